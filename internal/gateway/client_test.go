package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrent-erp/medrent-erp/internal/orders"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret-key", 5*time.Second, slog.New(slog.DiscardHandler))
}

func TestCallSuccess(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{"message": {"status": "Approved"}}`))
	})

	resp, err := client.Call(context.Background(), "selling.sales_order.make_approved",
		map[string]any{"docname": "SAL-ORD-2025-00001"})
	require.NoError(t, err)
	assert.True(t, resp.Succeeded())
	assert.Equal(t, "/api/method/selling.sales_order.make_approved", gotPath)
	assert.Equal(t, "token secret-key", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "SAL-ORD-2025-00001", gotBody["docname"])
}

func TestCallServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Call(context.Background(), "selling.sales_order.make_approved", nil)
	assert.ErrorIs(t, err, ErrCallFailed)
}

func TestCallMissingSuccessPayloadIsAnError(t *testing.T) {
	// A 200 without a truthy message must not pass silently.
	bodies := []string{`{}`, `{"message": null}`, `{"message": false}`, `{"message": ""}`}
	for _, body := range bodies {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		_, err := client.Call(context.Background(), "selling.sales_order.on_hold", nil)
		assert.ErrorIs(t, err, ErrCallFailed, "body %s", body)
	}
}

func TestCallExceptionIsAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": true, "exception": "ValidationError"}`))
	})
	_, err := client.Call(context.Background(), "selling.sales_order.make_dispatch", nil)
	assert.ErrorIs(t, err, ErrCallFailed)
}

func TestFetchOrderMapsDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": {
			"name": "SAL-ORD-2025-00001",
			"customer": "CUST-0001",
			"customer_name": "Ravi Kumar",
			"customer_mobile_no": "9876543210",
			"order_type": "Rental",
			"status": "Pending",
			"docstatus": 1,
			"per_billed": 40,
			"payment_status": "UnPaid",
			"balance_amount": "1500.50",
			"paid_security_deposit_amount": "10000",
			"transaction_date": "2025-07-15",
			"items": [
				{"item_code": "OXY-CON-5L", "item_name": "Oxygen Concentrator 5L",
				 "qty": 1, "delivered_qty": 0, "delivered_by_supplier": 0, "idx": 1}
			]
		}}`))
	})

	o, err := client.FetchOrder(context.Background(), "SAL-ORD-2025-00001")
	require.NoError(t, err)
	assert.Equal(t, "SAL-ORD-2025-00001", o.Name)
	assert.Equal(t, orders.TypeRental, o.OrderType)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Equal(t, orders.DocStatusSubmitted, o.DocStatus)
	assert.Equal(t, 40.0, o.PerBilled)
	assert.Equal(t, "1500.5", o.BalanceAmount.String())
	assert.Equal(t, "2025-07-15", o.TransactionDate.Format("2006-01-02"))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "OXY-CON-5L", o.Items[0].ItemCode)
	assert.False(t, o.Items[0].DeliveredBySupplier)
	assert.False(t, o.SyncedAt.IsZero())
}
