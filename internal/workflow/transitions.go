package workflow

import (
	"fmt"

	"github.com/medrent-erp/medrent-erp/internal/notify"
	"github.com/medrent-erp/medrent-erp/internal/orders"
)

// Action identifies one workflow transition.
type Action string

const (
	ActionResume             Action = "resume"
	ActionReopen             Action = "reopen"
	ActionApprove            Action = "approve"
	ActionInvoiceAndDelivery Action = "create-invoice-delivery-note"
	ActionReadyForDelivery   Action = "ready-for-delivery"
	ActionDispatch           Action = "dispatch"
	ActionDeliver            Action = "deliver"
	ActionReadyForPickup     Action = "ready-for-pickup"
	ActionPickedUp           Action = "picked-up"
	ActionSubmitToOffice     Action = "submit-to-office"
	ActionComplete           Action = "complete"
	ActionCreateDeliveryNote Action = "create-delivery-note"
	ActionHold               Action = "hold"
	ActionClose              Action = "close"
)

// RPC method names on the document server. Every transition maps to exactly
// one main call; a few run a preparatory call first.
const (
	methodPrefix = "selling.sales_order."

	MethodUpdateStatus       = methodPrefix + "update_status"
	MethodApproveRental      = methodPrefix + "make_approved"
	MethodApproveSales       = methodPrefix + "make_sales_approved"
	MethodInvoiceAndDelivery = methodPrefix + "create_sales_invoice_and_delivery_note"
	MethodReadyForDelivery   = methodPrefix + "make_ready_for_delivery"
	MethodDispatch           = methodPrefix + "make_dispatch"
	MethodDelivered          = methodPrefix + "make_delivered"
	MethodReadyForPickup     = methodPrefix + "make_ready_for_pickup"
	MethodPickedUp           = methodPrefix + "make_pickedup"
	MethodSubmittedToOffice  = methodPrefix + "make_submitted_to_office"
	MethodMakeInvoice        = methodPrefix + "make_sales_invoice"
	MethodOrderCompleted     = methodPrefix + "make_order_completed"
	MethodDeliveryNote       = methodPrefix + "make_delivery_note"
	MethodOnHold             = methodPrefix + "on_hold"
	MethodClose              = methodPrefix + "close_rental_order"
	MethodAddComment         = "desk.form.add_comment"
)

// Step is a preparatory RPC executed before the main transition call.
type Step struct {
	Method string
	Args   func(o *orders.Order, v Values) map[string]any
}

// NotifySpec enables the WhatsApp sub-step for a transition. The message
// body defaults from the template when the operator leaves it blank.
type NotifySpec struct {
	DefaultMessage func(o *orders.Order) string
}

// MailSpec enables the email side-channel for a transition. When decides
// per order whether the mail goes out at all.
type MailSpec struct {
	When    func(o *orders.Order) bool
	Subject func(o *orders.Order) string
	Body    func(o *orders.Order) string
}

// Transition is one row of the workflow table. The document server remains
// the sole authority on the resulting status; a transition only names the
// call, never the next state.
type Transition struct {
	Action         Action
	Label          string
	Confirm        string
	Method         string
	RequiresSubmit bool
	Terminal       bool

	Guard    func(o *orders.Order) bool
	Warnings func(o *orders.Order) []string
	Fields   []Field
	Args     func(o *orders.Order, v Values) map[string]any
	Before   []Step
	Notify   *NotifySpec
	Mail     *MailSpec

	Success string
}

func docnameArgs(o *orders.Order, _ Values) map[string]any {
	return map[string]any{"docname": o.Name}
}

func billingOpen(o *orders.Order) bool {
	return orders.Flt2(o.PerBilled) < 100
}

func progressOpen(o *orders.Order) bool {
	return orders.Flt2(o.PerDelivered) < 100 || orders.Flt2(o.PerBilled) < 100
}

// whatsappFields is the shared notification block appended to transitions
// that message the customer. Opt-in defaults to on.
func whatsappFields(message func(o *orders.Order) string) []Field {
	return []Field{
		{
			Name:    "notify_through_whatsapp",
			Label:   "Notify Customer Through WhatsApp",
			Type:    FieldCheck,
			Default: func(o *orders.Order) any { return true },
		},
		{
			Name:       "mobile_no",
			Label:      "Mobile Number",
			Type:       FieldText,
			RequiredIf: "notify_through_whatsapp",
			Default:    func(o *orders.Order) any { return o.CustomerMobile },
		},
		{
			Name:       "message",
			Label:      "Message",
			Type:       FieldLongText,
			RequiredIf: "notify_through_whatsapp",
			Default:    func(o *orders.Order) any { return message(o) },
		},
	}
}

func technicianFields() []Field {
	return []Field{
		{Name: "technician_name", Label: "Technician Name", Type: FieldText, Required: true},
		{Name: "technician_mobile", Label: "Technician Mobile Number", Type: FieldText, Required: true},
	}
}

// completionWarnings surfaces unmet payment and deposit conditions for the
// completion transition. The warnings never block the action.
func completionWarnings(o *orders.Order) []string {
	var w []string
	if o.OrderType == orders.TypeRental {
		if o.SecurityDepositStatus != orders.PaymentPaid {
			w = append(w, fmt.Sprintf("Security deposit status is %q, expected Paid", o.SecurityDepositStatus))
		}
		if o.PaymentStatus != orders.PaymentPaid {
			w = append(w, fmt.Sprintf("Payment status is %q, expected Paid", o.PaymentStatus))
		}
		if !o.RefundableSecurityDeposit.IsZero() {
			w = append(w, fmt.Sprintf("Refundable security deposit of %s is not settled", o.RefundableSecurityDeposit.StringFixed(2)))
		}
		return w
	}
	if o.PaymentStatus != orders.PaymentPaid {
		w = append(w, fmt.Sprintf("Payment status is %q, expected Paid", o.PaymentStatus))
	}
	return w
}

// Table builds the full transition table. Row order is display order.
func Table(tpl *notify.Templates) []Transition {
	return []Transition{
		{
			Action:         ActionResume,
			Label:          "Resume",
			Confirm:        "Resume this order?",
			Method:         MethodUpdateStatus,
			RequiresSubmit: true,
			Guard:          func(o *orders.Order) bool { return o.Status == orders.StatusOnHold },
			Args: func(o *orders.Order, _ Values) map[string]any {
				return map[string]any{"docname": o.Name, "status": string(orders.StatusPending)}
			},
			Success: "Order resumed",
		},
		{
			Action:         ActionReopen,
			Label:          "Re-open",
			Confirm:        "Re-open this order?",
			Method:         MethodUpdateStatus,
			RequiresSubmit: true,
			Guard:          func(o *orders.Order) bool { return o.Status == orders.StatusClosed },
			Args: func(o *orders.Order, _ Values) map[string]any {
				return map[string]any{"docname": o.Name, "status": string(orders.StatusPending)}
			},
			Success: "Order re-opened",
		},
		{
			Action:         ActionApprove,
			Label:          "Approve",
			Confirm:        "Approve this order and reserve stock?",
			Method:         MethodApproveRental,
			RequiresSubmit: true,
			Guard: func(o *orders.Order) bool {
				return o.Status == orders.StatusPending && o.OrderType == orders.TypeRental && billingOpen(o)
			},
			Fields: whatsappFields(tpl.Approved),
			Args:   docnameArgs,
			Notify: &NotifySpec{DefaultMessage: tpl.Approved},
			Mail: &MailSpec{
				When:    func(o *orders.Order) bool { return o.CustomerEmail != "" && o.PaymentURL != "" },
				Subject: func(o *orders.Order) string { return "Order " + o.Name + " approved" },
				Body:    tpl.Approved,
			},
			Success: "Order approved",
		},
		{
			Action:         ActionApprove,
			Label:          "Approve",
			Confirm:        "Approve this order and reserve stock?",
			Method:         MethodApproveSales,
			RequiresSubmit: true,
			Guard: func(o *orders.Order) bool {
				if o.Status != orders.StatusPending || !billingOpen(o) {
					return false
				}
				return o.OrderType == orders.TypeSales || o.OrderType == orders.TypeService
			},
			Args:    docnameArgs,
			Success: "Order approved",
		},
		{
			Action:  ActionInvoiceAndDelivery,
			Label:   "Create Invoice & Delivery Note",
			Confirm: "Create the sales invoice and delivery note for this order?",
			Method:  MethodInvoiceAndDelivery,
			Guard: func(o *orders.Order) bool {
				return o.Status == orders.StatusOrder && o.OrderType == orders.TypeSales && billingOpen(o)
			},
			Args:    docnameArgs,
			Success: "Sales invoice and delivery note created",
		},
		{
			Action:  ActionReadyForDelivery,
			Label:   "Ready for Delivery",
			Confirm: "Mark this order ready for delivery?",
			Method:  MethodReadyForDelivery,
			Guard: func(o *orders.Order) bool {
				return o.Status == orders.StatusApproved && o.OrderType == orders.TypeRental && billingOpen(o)
			},
			Fields: technicianFields(),
			Args: func(o *orders.Order, v Values) map[string]any {
				return map[string]any{
					"docname":           o.Name,
					"technician_name":   v.Str("technician_name"),
					"technician_mobile": v.Str("technician_mobile"),
				}
			},
			Success: "Order is ready for delivery",
		},
		{
			Action:  ActionDispatch,
			Label:   "Dispatch",
			Confirm: "Dispatch this order?",
			Method:  MethodDispatch,
			Guard: func(o *orders.Order) bool {
				return o.Status == orders.StatusReadyForDelivery && o.OrderType == orders.TypeRental && billingOpen(o)
			},
			Fields: []Field{
				{Name: "dispatch_date", Label: "Dispatch Date", Type: FieldDatetime, Required: true},
			},
			Args: func(o *orders.Order, v Values) map[string]any {
				return map[string]any{"docname": o.Name, "dispatch_date": v.Str("dispatch_date")}
			},
			Success: "Order dispatched",
		},
		{
			Action:  ActionDeliver,
			Label:   "Delivered",
			Confirm: "Mark this order as delivered?",
			Method:  MethodDelivered,
			Guard: func(o *orders.Order) bool {
				return o.Status == orders.StatusDispatched && o.OrderType == orders.TypeRental && billingOpen(o)
			},
			Fields: append([]Field{
				{Name: "delivered_date", Label: "Delivered Date", Type: FieldDatetime, Required: true},
				{
					Name: "payment_status", Label: "Payment Status", Type: FieldText, ReadOnly: true,
					Default: func(o *orders.Order) any { return o.PaymentStatus },
				},
				{
					Name: "balance_amount", Label: "Balance Amount", Type: FieldCurrency, ReadOnly: true,
					Default: func(o *orders.Order) any { return o.BalanceAmount.StringFixed(2) },
				},
				{
					Name: "payment_pending_reason", Label: "Payment Pending Reason", Type: FieldLongText,
					RequiredWhen: func(o *orders.Order) bool { return o.PaymentStatus != orders.PaymentPaid },
				},
				{Name: "payment_proof", Label: "Payment Proof", Type: FieldAttach},
			}, whatsappFields(tpl.Delivered)...),
			Args: func(o *orders.Order, v Values) map[string]any {
				return map[string]any{
					"docname":                o.Name,
					"delivered_date":         v.Str("delivered_date"),
					"payment_pending_reason": v.Str("payment_pending_reason"),
					"payment_proof":          v.Str("payment_proof"),
				}
			},
			Notify:  &NotifySpec{DefaultMessage: tpl.Delivered},
			Success: "Order delivered",
		},
		{
			Action:  ActionReadyForPickup,
			Label:   "Ready for Pickup",
			Confirm: "Initiate pickup for this order?",
			Method:  MethodReadyForPickup,
			Guard: func(o *orders.Order) bool {
				return o.Status == orders.StatusActive && o.OrderType == orders.TypeRental
			},
			Fields: append(append(technicianFields(), []Field{
				{Name: "pickup_date", Label: "Pickup Date", Type: FieldDatetime, Required: true},
				{
					Name: "pickup_reason", Label: "Reason", Type: FieldSelect, Required: true,
					Options: []string{"Patient Recovered", "Patient Expired", "Shifted to Hospital", "Doctor Advised", "Other"},
				},
				{Name: "pickup_remark", Label: "Remark", Type: FieldLongText},
			}...), whatsappFields(tpl.PickupInitiated)...),
			Args: func(o *orders.Order, v Values) map[string]any {
				return map[string]any{
					"docname":           o.Name,
					"technician_name":   v.Str("technician_name"),
					"technician_mobile": v.Str("technician_mobile"),
					"pickup_date":       v.Str("pickup_date"),
					"pickup_reason":     v.Str("pickup_reason"),
					"pickup_remark":     v.Str("pickup_remark"),
				}
			},
			Notify:  &NotifySpec{DefaultMessage: tpl.PickupInitiated},
			Success: "Pickup initiated",
		},
		{
			Action:  ActionPickedUp,
			Label:   "Picked Up",
			Confirm: "Mark this order as picked up?",
			Method:  MethodPickedUp,
			Guard: func(o *orders.Order) bool {
				return o.Status == orders.StatusReadyForPickup && o.OrderType == orders.TypeRental
			},
			Args:    docnameArgs,
			Success: "Order picked up",
		},
		{
			Action:  ActionSubmitToOffice,
			Label:   "Submitted to Office",
			Confirm: "Mark the equipment as submitted to office?",
			Method:  MethodSubmittedToOffice,
			Guard: func(o *orders.Order) bool {
				return o.Status == orders.StatusPickedUp && o.OrderType == orders.TypeRental
			},
			Args:    docnameArgs,
			Success: "Equipment submitted to office",
		},
		{
			Action:   ActionComplete,
			Label:    "Order Completed",
			Confirm:  "Complete this order? This is final and the order will be locked.",
			Method:   MethodOrderCompleted,
			Terminal: true,
			Guard: func(o *orders.Order) bool {
				switch o.Status {
				case orders.StatusSubmittedToOffice, orders.StatusRenewed, orders.StatusOrder:
				default:
					return false
				}
				return o.OrderType == orders.TypeRental || o.OrderType == orders.TypeService
			},
			Warnings: completionWarnings,
			Before: []Step{
				{
					Method: MethodMakeInvoice,
					Args: func(o *orders.Order, _ Values) map[string]any {
						return map[string]any{
							"source_name":                     o.Name,
							"allocate_advances_automatically": 1,
						}
					},
				},
			},
			Args: func(o *orders.Order, _ Values) map[string]any {
				return map[string]any{"docname": o.Name, "item_code": o.ItemCodes()}
			},
			Success: "Order completed",
		},
		{
			Action:         ActionCreateDeliveryNote,
			Label:          "Create Delivery Note",
			Confirm:        "Create a delivery note for this order?",
			Method:         MethodDeliveryNote,
			RequiresSubmit: true,
			Guard: func(o *orders.Order) bool {
				if o.Status != orders.StatusOrder || !o.OrderType.IsSale() {
					return false
				}
				return o.AllowDelivery() && orders.Flt2(o.PerDelivered) < 100
			},
			Args:    docnameArgs,
			Success: "Delivery note created",
		},
		{
			Action:         ActionHold,
			Label:          "Hold",
			Confirm:        "Put this order on hold?",
			Method:         MethodOnHold,
			RequiresSubmit: true,
			Guard: func(o *orders.Order) bool {
				if o.Status == orders.StatusOnHold || o.Status == orders.StatusClosed {
					return false
				}
				return progressOpen(o)
			},
			Fields: []Field{
				{Name: "reason", Label: "Reason for Hold", Type: FieldLongText, Required: true},
			},
			Before: []Step{
				{
					Method: MethodAddComment,
					Args: func(o *orders.Order, v Values) map[string]any {
						return map[string]any{
							"reference_doctype": "Sales Order",
							"reference_name":    o.Name,
							"content":           "Reason for hold: " + v.Str("reason"),
						}
					},
				},
			},
			Args:    docnameArgs,
			Success: "Order put on hold",
		},
		{
			Action:         ActionClose,
			Label:          "Close",
			Confirm:        "Close this order?",
			Method:         MethodClose,
			RequiresSubmit: true,
			Guard: func(o *orders.Order) bool {
				if o.Status == orders.StatusClosed {
					return false
				}
				return progressOpen(o)
			},
			Args:    docnameArgs,
			Success: "Order closed",
		},
	}
}
