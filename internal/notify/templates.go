package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/medrent-erp/medrent-erp/internal/orders"
)

// Templates builds the default WhatsApp message per transition.
type Templates struct {
	SupportPhone string
	printer      *message.Printer
}

// NewTemplates constructs Templates with the support contact number.
func NewTemplates(supportPhone string) *Templates {
	return &Templates{
		SupportPhone: supportPhone,
		printer:      message.NewPrinter(language.English),
	}
}

func (t *Templates) amount(d decimal.Decimal) string {
	f, _ := d.Float64()
	return t.printer.Sprintf("%.0f", f)
}

// Approved is sent when an order is approved.
func (t *Templates) Approved(o *orders.Order) string {
	msg := fmt.Sprintf("Hello %s,\nYour order ID %s has been successfully approved.\nFor any query, call/WhatsApp on %s.",
		o.CustomerName, o.Name, t.SupportPhone)
	if o.PaymentURL != "" {
		msg += "\nPayment Link: " + o.PaymentURL
	}
	return msg
}

// Delivered is sent when rental equipment reaches the customer. It reports
// the received amount and, when present, the outstanding balance.
func (t *Templates) Delivered(o *orders.Order) string {
	received := o.PaidSecurityDeposit.Add(o.ReceivedAmount)
	outstanding := o.OutstandingSecurityDeposit.Add(o.BalanceAmount)

	msg := fmt.Sprintf("Hello %s,\nYour order has been delivered successfully. We have received your payment of %s rs successfully.",
		o.CustomerName, t.amount(received))
	if outstanding.IsPositive() {
		msg += fmt.Sprintf(" You have an outstanding amount of %s rs.", t.amount(outstanding))
	}
	msg += fmt.Sprintf("\nFor any query call/WhatsApp on %s.", t.SupportPhone)
	return msg
}

// PickupInitiated is sent when equipment pickup is scheduled.
func (t *Templates) PickupInitiated(o *orders.Order) string {
	equipment := strings.Join(o.ItemNames(), ", ")
	if equipment == "" {
		equipment = "No items"
	}
	return fmt.Sprintf("Hello Sir/Mam\n\nPatient Name: %s\nEquipment Name: %s\n\nWe have initiated pickup of the above equipment.\nFor any query call/WhatsApp on %s.",
		o.CustomerName, equipment, t.SupportPhone)
}
