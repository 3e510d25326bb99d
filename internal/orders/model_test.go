package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlt2(t *testing.T) {
	assert.Equal(t, 99.99, Flt2(99.994))
	assert.Equal(t, 100.0, Flt2(99.996))
	assert.Equal(t, 40.0, Flt2(40))
}

func TestOrderTypeIsSale(t *testing.T) {
	assert.True(t, TypeSales.IsSale())
	assert.True(t, TypeShoppingCart.IsSale())
	assert.False(t, TypeRental.IsSale())
	assert.False(t, TypeService.IsSale())
	assert.False(t, TypeMaintenance.IsSale())
	// Unknown customised types fall through to the sales lifecycle.
	assert.True(t, OrderType("Institutional").IsSale())
}

func TestAllowDelivery(t *testing.T) {
	o := &Order{
		Items: []Item{
			{ItemCode: "A", Qty: 2, DeliveredQty: 2},
			{ItemCode: "B", Qty: 1, DeliveredQty: 0},
		},
	}
	assert.True(t, o.AllowDelivery())

	o.Items[1].DeliveredBySupplier = true
	assert.False(t, o.AllowDelivery())

	o.Items[1].DeliveredBySupplier = false
	o.SkipDeliveryNote = true
	assert.False(t, o.AllowDelivery())
}

func TestTerminalAndSubmitted(t *testing.T) {
	o := &Order{DocStatus: DocStatusSubmitted, Status: StatusActive}
	assert.True(t, o.IsSubmitted())
	assert.False(t, o.IsTerminal())

	o.Status = StatusRentalCompleted
	assert.True(t, o.IsTerminal())

	o.DocStatus = DocStatusDraft
	assert.False(t, o.IsSubmitted())
}
