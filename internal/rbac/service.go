// Package rbac resolves user permissions for workflow authorization.
package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PermSubmit is required to hold, close, resume or re-open submitted orders.
const PermSubmit = "orders.submit"

// PermView allows reading orders and their available actions.
const PermView = "orders.view"

// Service resolves effective permissions from postgres.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs a Service backed by the provided pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// EffectivePermissions returns the union of permissions granted through roles.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT p.code
FROM permissions p
JOIN role_permissions rp ON rp.permission_id = p.id
JOIN user_roles ur ON ur.role_id = rp.role_id
WHERE ur.user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: query permissions: %w", err)
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		perms = append(perms, strings.ToLower(code))
	}
	return perms, rows.Err()
}

// HasPermission reports whether the user holds the given permission.
func (s *Service) HasPermission(ctx context.Context, userID int64, perm string) (bool, error) {
	granted, err := s.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	perm = strings.ToLower(perm)
	for _, g := range granted {
		if g == perm {
			return true, nil
		}
	}
	return false, nil
}
