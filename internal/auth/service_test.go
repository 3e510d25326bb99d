package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubRepo struct {
	user *User
	err  error
}

func (r *stubRepo) FindByEmail(_ context.Context, _ string) (*User, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.user, nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthenticate(t *testing.T) {
	active := &User{ID: 1, Email: "ops@medrent.local", IsActive: true, PasswordHash: hashOf(t, "secret123")}

	tests := []struct {
		name     string
		repo     *stubRepo
		password string
		ok       bool
	}{
		{"valid credentials", &stubRepo{user: active}, "secret123", true},
		{"wrong password", &stubRepo{user: active}, "nope", false},
		{"unknown user", &stubRepo{err: ErrUserNotFound}, "secret123", false},
		{
			"inactive account",
			&stubRepo{user: &User{ID: 2, IsActive: false, PasswordHash: hashOf(t, "secret123")}},
			"secret123",
			false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(tc.repo)
			user, err := svc.Authenticate(context.Background(), "ops@medrent.local", tc.password)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1), user.ID)
		})
	}
}
