// Package orders holds the sales order read model mirrored from the document server.
package orders

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DocStatus gates whether workflow transitions are offered at all.
type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusSubmitted DocStatus = 1
	DocStatusCancelled DocStatus = 2
)

// Status is the business status of an order. The set is open-ended on the
// document server; the constants below cover every state the workflow acts on.
type Status string

const (
	StatusPending           Status = "Pending"
	StatusOnHold            Status = "On Hold"
	StatusClosed            Status = "Closed"
	StatusApproved          Status = "Approved"
	StatusOrder             Status = "Order"
	StatusReadyForDelivery  Status = "Ready for Delivery"
	StatusDispatched        Status = "DISPATCHED"
	StatusDelivered         Status = "DELIVERED"
	StatusActive            Status = "Active"
	StatusReadyForPickup    Status = "Ready for Pickup"
	StatusPickedUp          Status = "Picked Up"
	StatusSubmittedToOffice Status = "Submitted to Office"
	StatusRenewed           Status = "RENEWED"
	StatusRentalCompleted   Status = "Rental SO Completed"
)

// OrderType distinguishes the fulfillment lifecycle an order follows.
type OrderType string

const (
	TypeSales        OrderType = "Sales"
	TypeRental       OrderType = "Rental"
	TypeService      OrderType = "Service"
	TypeShoppingCart OrderType = "Shopping Cart"
	TypeMaintenance  OrderType = "Maintenance"
)

// IsSale reports whether the order type sells goods outright. Customised
// order types outside the known set are treated as sales for delivery
// purposes, matching the document server's behaviour.
func (t OrderType) IsSale() bool {
	switch t {
	case TypeSales, TypeShoppingCart:
		return true
	case TypeRental, TypeService, TypeMaintenance:
		return false
	default:
		return true
	}
}

// PaymentState values reported by the document server.
const (
	PaymentPaid          = "Paid"
	PaymentUnpaid        = "UnPaid"
	PaymentPartiallyPaid = "Partially Paid"
)

// Order mirrors the canonical sales order document. The local copy is
// authoritative only until a transition is invoked; afterwards it must be
// re-fetched from the document server.
type Order struct {
	Name           string    `json:"name" db:"name"`
	CustomerID     string    `json:"customer_id" db:"customer_id"`
	CustomerName   string    `json:"customer_name" db:"customer_name"`
	CustomerMobile string    `json:"customer_mobile" db:"customer_mobile"`
	CustomerEmail  string    `json:"customer_email" db:"customer_email"`
	OrderType      OrderType `json:"order_type" db:"order_type"`
	Status         Status    `json:"status" db:"status"`
	DocStatus      DocStatus `json:"docstatus" db:"docstatus"`

	PerDelivered float64 `json:"per_delivered" db:"per_delivered"`
	PerBilled    float64 `json:"per_billed" db:"per_billed"`
	PerPicked    float64 `json:"per_picked" db:"per_picked"`

	PaymentStatus         string `json:"payment_status" db:"payment_status"`
	SecurityDepositStatus string `json:"security_deposit_status" db:"security_deposit_status"`

	BalanceAmount              decimal.Decimal `json:"balance_amount" db:"balance_amount"`
	ReceivedAmount             decimal.Decimal `json:"received_amount" db:"received_amount"`
	RefundableSecurityDeposit  decimal.Decimal `json:"refundable_security_deposit" db:"refundable_security_deposit"`
	PaidSecurityDeposit        decimal.Decimal `json:"paid_security_deposit" db:"paid_security_deposit"`
	OutstandingSecurityDeposit decimal.Decimal `json:"outstanding_security_deposit" db:"outstanding_security_deposit"`

	PaymentURL       string `json:"payment_url,omitempty" db:"payment_url"`
	SkipDeliveryNote bool   `json:"skip_delivery_note" db:"skip_delivery_note"`

	TransactionDate time.Time `json:"transaction_date" db:"transaction_date"`
	SyncedAt        time.Time `json:"synced_at" db:"synced_at"`

	Items []Item `json:"items,omitempty" db:"-"`
}

// Item is one order line.
type Item struct {
	ID                  int64   `json:"id" db:"id"`
	OrderName           string  `json:"order_name" db:"order_name"`
	ItemCode            string  `json:"item_code" db:"item_code"`
	ItemName            string  `json:"item_name" db:"item_name"`
	Qty                 float64 `json:"qty" db:"qty"`
	DeliveredQty        float64 `json:"delivered_qty" db:"delivered_qty"`
	DeliveredBySupplier bool    `json:"delivered_by_supplier" db:"delivered_by_supplier"`
	Idx                 int     `json:"idx" db:"idx"`
}

// Flt2 rounds a percentage to two decimals, the precision at which the
// document server reports progress aggregates.
func Flt2(v float64) float64 {
	return math.Round(v*100) / 100
}

// IsSubmitted reports whether workflow transitions may be offered.
func (o *Order) IsSubmitted() bool {
	return o.DocStatus == DocStatusSubmitted
}

// IsTerminal reports whether the order reached its locked final state.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusRentalCompleted
}

// AllowDelivery reports whether a delivery note can still be created:
// at least one line not delivered by the supplier with open quantity,
// and the order does not skip delivery notes.
func (o *Order) AllowDelivery() bool {
	if o.SkipDeliveryNote {
		return false
	}
	for _, it := range o.Items {
		if !it.DeliveredBySupplier && it.Qty > it.DeliveredQty {
			return true
		}
	}
	return false
}

// ItemCodes returns the line item codes in document order.
func (o *Order) ItemCodes() []string {
	codes := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		codes = append(codes, it.ItemCode)
	}
	return codes
}

// ItemNames returns the line item display names in document order.
func (o *Order) ItemNames() []string {
	names := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		names = append(names, it.ItemName)
	}
	return names
}
