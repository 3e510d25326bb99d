package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMobile(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"plain digits", "9876543210", "9876543210", true},
		{"formatted", "(987) 654-3210", "9876543210", true},
		{"spaces and dashes", "98765 432-10", "9876543210", true},
		{"too short", "12345", "", false},
		{"too long", "+91 98765 43210", "", false},
		{"empty", "", "", false},
		{"letters only", "call me", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeMobile(tc.input)
			if !tc.ok {
				require.ErrorIs(t, err, ErrInvalidMobile)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
