// Package auth handles credential checks and session issuance.
package auth

import "time"

// User is an operator account able to act on orders.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}
