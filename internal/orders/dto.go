package orders

import "time"

// ListOrdersRequest filters the order list.
type ListOrdersRequest struct {
	Status    *Status    `json:"status,omitempty"`
	OrderType *OrderType `json:"order_type,omitempty"`
	Customer  *string    `json:"customer,omitempty"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
	Limit     int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int        `json:"offset" validate:"gte=0"`
}
