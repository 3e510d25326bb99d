package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/medrent-erp/medrent-erp/internal/orders"
)

// FieldType enumerates the input widgets a transition may request.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldLongText FieldType = "longtext"
	FieldDate     FieldType = "date"
	FieldDatetime FieldType = "datetime"
	FieldSelect   FieldType = "select"
	FieldCheck    FieldType = "check"
	FieldCurrency FieldType = "currency"
	FieldAttach   FieldType = "attach"
)

// Field describes one input a transition collects before it runs. Read-only
// fields are informational; their values are never sent to the server.
type Field struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	ReadOnly bool      `json:"read_only,omitempty"`
	Options  []string  `json:"options,omitempty"`

	// RequiredIf names another boolean field; when that field is truthy
	// this one must be provided.
	RequiredIf string `json:"required_if,omitempty"`

	// RequiredWhen makes the field mandatory based on the order itself,
	// e.g. a pending-payment reason only when the order is unpaid.
	RequiredWhen func(o *orders.Order) bool `json:"-"`

	// Default computes the prefilled value shown to the operator.
	Default func(o *orders.Order) any `json:"-"`
}

// Values holds the operator-supplied inputs for a transition, keyed by
// field name.
type Values map[string]any

// Str returns the value as a trimmed string.
func (v Values) Str(name string) string {
	raw, ok := v[name]
	if !ok || raw == nil {
		return ""
	}
	switch t := raw.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// Bool interprets the value the way checkbox widgets submit it.
func (v Values) Bool(name string) bool {
	raw, ok := v[name]
	if !ok || raw == nil {
		return false
	}
	switch t := raw.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "on":
			return true
		}
	}
	return false
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

func parseWhen(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidateInputs checks the supplied values against a transition's field
// schema. It returns one message per violation; an empty slice means the
// values are acceptable.
func ValidateInputs(fields []Field, o *orders.Order, v Values) []string {
	var problems []string
	for _, f := range fields {
		if f.ReadOnly {
			continue
		}
		val := v.Str(f.Name)

		required := f.Required
		if f.RequiredIf != "" && v.Bool(f.RequiredIf) {
			required = true
		}
		if f.RequiredWhen != nil && f.RequiredWhen(o) {
			required = true
		}
		if required && val == "" {
			problems = append(problems, fmt.Sprintf("%s is required", f.Label))
			continue
		}
		if val == "" {
			continue
		}

		switch f.Type {
		case FieldDate, FieldDatetime:
			if _, ok := parseWhen(val); !ok {
				problems = append(problems, fmt.Sprintf("%s is not a valid date", f.Label))
			}
		case FieldSelect:
			if len(f.Options) > 0 && !contains(f.Options, val) {
				problems = append(problems, fmt.Sprintf("%s must be one of: %s", f.Label, strings.Join(f.Options, ", ")))
			}
		}
	}
	return problems
}

func contains(opts []string, val string) bool {
	for _, o := range opts {
		if o == val {
			return true
		}
	}
	return false
}
