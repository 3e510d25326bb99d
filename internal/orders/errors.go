package orders

import "errors"

var (
	// ErrNotFound indicates the requested order is not in the local mirror.
	ErrNotFound = errors.New("order not found")
	// ErrLocked indicates the order reached its terminal state and refuses mutation.
	ErrLocked = errors.New("order is completed and locked")
)
