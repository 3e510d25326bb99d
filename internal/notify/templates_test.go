package notify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/medrent-erp/medrent-erp/internal/orders"
)

func TestApprovedMessage(t *testing.T) {
	tpl := NewTemplates("8884880013")
	o := &orders.Order{
		Name:         "SAL-ORD-2025-00001",
		CustomerName: "Ravi Kumar",
	}

	msg := tpl.Approved(o)
	assert.Contains(t, msg, "Ravi Kumar")
	assert.Contains(t, msg, "SAL-ORD-2025-00001")
	assert.Contains(t, msg, "8884880013")
	assert.NotContains(t, msg, "Payment Link")

	o.PaymentURL = "https://pay.example.com/abc"
	assert.Contains(t, tpl.Approved(o), "Payment Link: https://pay.example.com/abc")
}

func TestDeliveredMessageAmounts(t *testing.T) {
	tpl := NewTemplates("8884880013")
	o := &orders.Order{
		CustomerName:               "Meena Sharma",
		PaidSecurityDeposit:        decimal.NewFromInt(10000),
		ReceivedAmount:             decimal.NewFromInt(2345),
		OutstandingSecurityDeposit: decimal.NewFromInt(0),
		BalanceAmount:              decimal.NewFromInt(1500),
	}

	msg := tpl.Delivered(o)
	assert.Contains(t, msg, "12,345 rs")
	assert.Contains(t, msg, "outstanding amount of 1,500 rs")

	o.BalanceAmount = decimal.Zero
	assert.NotContains(t, tpl.Delivered(o), "outstanding")
}

func TestPickupMessageListsEquipment(t *testing.T) {
	tpl := NewTemplates("8884880013")
	o := &orders.Order{
		CustomerName: "Joseph Mathew",
		Items: []orders.Item{
			{ItemName: "Oxygen Concentrator 5L"},
			{ItemName: "Hospital Bed"},
		},
	}

	msg := tpl.PickupInitiated(o)
	assert.Contains(t, msg, "Joseph Mathew")
	assert.Contains(t, msg, "Oxygen Concentrator 5L, Hospital Bed")

	empty := &orders.Order{CustomerName: "Joseph Mathew"}
	assert.Contains(t, tpl.PickupInitiated(empty), "No items")
}
