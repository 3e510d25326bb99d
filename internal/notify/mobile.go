// Package notify handles outbound customer messaging for workflow transitions.
package notify

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidMobile indicates the number does not reduce to exactly 10 digits.
var ErrInvalidMobile = errors.New("mobile number must contain exactly 10 digits")

// NormalizeMobile strips non-digit characters and requires exactly 10 digits,
// the format accepted by the WhatsApp provider.
func NormalizeMobile(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 10 {
		return "", ErrInvalidMobile
	}
	return digits, nil
}
