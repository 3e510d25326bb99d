package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medrent-erp/medrent-erp/internal/orders"
)

func TestValidateInputs(t *testing.T) {
	fields := []Field{
		{Name: "technician_name", Label: "Technician Name", Type: FieldText, Required: true},
		{Name: "pickup_date", Label: "Pickup Date", Type: FieldDatetime, Required: true},
		{
			Name: "pickup_reason", Label: "Reason", Type: FieldSelect, Required: true,
			Options: []string{"Patient Recovered", "Other"},
		},
		{Name: "mobile_no", Label: "Mobile Number", Type: FieldText, RequiredIf: "notify"},
		{Name: "notify", Label: "Notify", Type: FieldCheck},
		{Name: "payment_status", Label: "Payment Status", Type: FieldText, ReadOnly: true},
		{
			Name: "payment_pending_reason", Label: "Payment Pending Reason", Type: FieldLongText,
			RequiredWhen: func(o *orders.Order) bool { return o.PaymentStatus != orders.PaymentPaid },
		},
	}

	unpaid := &orders.Order{PaymentStatus: orders.PaymentUnpaid}
	paid := &orders.Order{PaymentStatus: orders.PaymentPaid}

	valid := Values{
		"technician_name":        "Suresh",
		"pickup_date":            "2025-08-01",
		"pickup_reason":          "Patient Recovered",
		"payment_pending_reason": "awaiting transfer",
	}

	tests := []struct {
		name     string
		order    *orders.Order
		values   Values
		problems int
	}{
		{"all valid", unpaid, valid, 0},
		{"missing everything", unpaid, Values{}, 4},
		{"bad date", unpaid, mergeValues(valid, Values{"pickup_date": "not-a-date"}), 1},
		{"select outside options", unpaid, mergeValues(valid, Values{"pickup_reason": "Because"}), 1},
		{"conditional on order state", paid, mergeValues(valid, Values{"payment_pending_reason": ""}), 0},
		{"required_if triggered", unpaid, mergeValues(valid, Values{"notify": true}), 1},
		{"required_if satisfied", unpaid, mergeValues(valid, Values{"notify": true, "mobile_no": "9876543210"}), 0},
		{"read-only ignored", unpaid, mergeValues(valid, Values{"payment_status": ""}), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			problems := ValidateInputs(fields, tc.order, tc.values)
			assert.Len(t, problems, tc.problems, "problems: %v", problems)
		})
	}
}

func mergeValues(base, extra Values) Values {
	out := Values{}
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func TestValuesCoercion(t *testing.T) {
	v := Values{
		"checked_bool":   true,
		"checked_number": float64(1),
		"checked_string": "1",
		"off_string":     "0",
		"padded":         "  hello  ",
		"number":         float64(42),
	}

	assert.True(t, v.Bool("checked_bool"))
	assert.True(t, v.Bool("checked_number"))
	assert.True(t, v.Bool("checked_string"))
	assert.False(t, v.Bool("off_string"))
	assert.False(t, v.Bool("missing"))
	assert.Equal(t, "hello", v.Str("padded"))
	assert.Equal(t, "42", v.Str("number"))
	assert.Equal(t, "", v.Str("missing"))
}
