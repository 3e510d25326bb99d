package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medrent-erp/medrent-erp/internal/orders"
)

// MethodGetOrder fetches the full canonical order document.
const MethodGetOrder = "selling.sales_order.get_order"

// orderDoc mirrors the wire shape of a sales order document.
type orderDoc struct {
	Name                       string          `json:"name"`
	Customer                   string          `json:"customer"`
	CustomerName               string          `json:"customer_name"`
	CustomerMobileNo           string          `json:"customer_mobile_no"`
	CustomerEmailID            string          `json:"customer_email_id"`
	OrderType                  string          `json:"order_type"`
	Status                     string          `json:"status"`
	DocStatus                  int             `json:"docstatus"`
	PerDelivered               float64         `json:"per_delivered"`
	PerBilled                  float64         `json:"per_billed"`
	PerPicked                  float64         `json:"per_picked"`
	PaymentStatus              string          `json:"payment_status"`
	SecurityDepositStatus      string          `json:"security_deposit_status"`
	BalanceAmount              decimal.Decimal `json:"balance_amount"`
	ReceivedAmount             decimal.Decimal `json:"received_amount"`
	RefundableSecurityDeposit  decimal.Decimal `json:"refundable_security_deposit"`
	PaidSecurityDeposit        decimal.Decimal `json:"paid_security_deposit_amount"`
	OutstandingSecurityDeposit decimal.Decimal `json:"outstanding_security_deposit_amount"`
	PaymentURL                 string          `json:"payment_url"`
	SkipDeliveryNote           bool            `json:"skip_delivery_note"`
	TransactionDate            string          `json:"transaction_date"`
	Items                      []orderDocItem  `json:"items"`
}

type orderDocItem struct {
	ItemCode            string  `json:"item_code"`
	ItemName            string  `json:"item_name"`
	Qty                 float64 `json:"qty"`
	DeliveredQty        float64 `json:"delivered_qty"`
	DeliveredBySupplier int     `json:"delivered_by_supplier"`
	Idx                 int     `json:"idx"`
}

// FetchOrder retrieves the canonical order record from the document server.
func (c *Client) FetchOrder(ctx context.Context, name string) (*orders.Order, error) {
	resp, err := c.Call(ctx, MethodGetOrder, map[string]any{"docname": name})
	if err != nil {
		return nil, err
	}

	var doc orderDoc
	if err := json.Unmarshal(resp.Message, &doc); err != nil {
		return nil, fmt.Errorf("gateway: decode order document: %w", err)
	}

	o := &orders.Order{
		Name:                       doc.Name,
		CustomerID:                 doc.Customer,
		CustomerName:               doc.CustomerName,
		CustomerMobile:             doc.CustomerMobileNo,
		CustomerEmail:              doc.CustomerEmailID,
		OrderType:                  orders.OrderType(doc.OrderType),
		Status:                     orders.Status(doc.Status),
		DocStatus:                  orders.DocStatus(doc.DocStatus),
		PerDelivered:               doc.PerDelivered,
		PerBilled:                  doc.PerBilled,
		PerPicked:                  doc.PerPicked,
		PaymentStatus:              doc.PaymentStatus,
		SecurityDepositStatus:      doc.SecurityDepositStatus,
		BalanceAmount:              doc.BalanceAmount,
		ReceivedAmount:             doc.ReceivedAmount,
		RefundableSecurityDeposit:  doc.RefundableSecurityDeposit,
		PaidSecurityDeposit:        doc.PaidSecurityDeposit,
		OutstandingSecurityDeposit: doc.OutstandingSecurityDeposit,
		PaymentURL:                 doc.PaymentURL,
		SkipDeliveryNote:           doc.SkipDeliveryNote,
		SyncedAt:                   time.Now(),
	}
	if doc.TransactionDate != "" {
		if t, err := time.Parse("2006-01-02", doc.TransactionDate); err == nil {
			o.TransactionDate = t
		}
	}
	for _, it := range doc.Items {
		o.Items = append(o.Items, orders.Item{
			OrderName:           doc.Name,
			ItemCode:            it.ItemCode,
			ItemName:            it.ItemName,
			Qty:                 it.Qty,
			DeliveredQty:        it.DeliveredQty,
			DeliveredBySupplier: it.DeliveredBySupplier != 0,
			Idx:                 it.Idx,
		})
	}
	return o, nil
}
