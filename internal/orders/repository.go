package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores the local mirror of sales order documents.
type Repository interface {
	Get(ctx context.Context, name string) (*Order, error)
	List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error)
	Upsert(ctx context.Context, o *Order) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const orderColumns = `name, customer_id, customer_name, customer_mobile, customer_email,
order_type, status, docstatus, per_delivered, per_billed, per_picked,
payment_status, security_deposit_status, balance_amount, received_amount,
refundable_security_deposit, paid_security_deposit, outstanding_security_deposit,
payment_url, skip_delivery_note, transaction_date, synced_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.Name, &o.CustomerID, &o.CustomerName, &o.CustomerMobile, &o.CustomerEmail,
		&o.OrderType, &o.Status, &o.DocStatus, &o.PerDelivered, &o.PerBilled, &o.PerPicked,
		&o.PaymentStatus, &o.SecurityDepositStatus, &o.BalanceAmount, &o.ReceivedAmount,
		&o.RefundableSecurityDeposit, &o.PaidSecurityDeposit, &o.OutstandingSecurityDeposit,
		&o.PaymentURL, &o.SkipDeliveryNote, &o.TransactionDate, &o.SyncedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) Get(ctx context.Context, name string) (*Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM sales_orders WHERE name = $1`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT id, order_name, item_code, item_name, qty,
delivered_qty, delivered_by_supplier, idx
FROM sales_order_items WHERE order_name = $1 ORDER BY idx`, name)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderName, &it.ItemCode, &it.ItemName,
			&it.Qty, &it.DeliveredQty, &it.DeliveredBySupplier, &it.Idx); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.OrderType != nil {
		conditions = append(conditions, fmt.Sprintf("order_type = $%d", argPos))
		args = append(args, *req.OrderType)
		argPos++
	}
	if req.Customer != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.Customer)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("transaction_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("transaction_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM sales_orders WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT `+orderColumns+` FROM sales_orders WHERE %s
ORDER BY transaction_date DESC, name LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var result []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *o)
	}
	return result, total, rows.Err()
}

// Upsert replaces the mirrored document and its items. A completed order is
// immutable: once the stored row is terminal the mirror refuses further writes.
func (r *repository) Upsert(ctx context.Context, o *Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current Status
	err = tx.QueryRow(ctx, `SELECT status FROM sales_orders WHERE name = $1 FOR UPDATE`, o.Name).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("lock order row: %w", err)
	}
	if err == nil && current == StatusRentalCompleted && o.Status != StatusRentalCompleted {
		return ErrLocked
	}

	if o.SyncedAt.IsZero() {
		o.SyncedAt = time.Now()
	}

	_, err = tx.Exec(ctx, `INSERT INTO sales_orders (`+orderColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
ON CONFLICT (name) DO UPDATE SET
customer_id=EXCLUDED.customer_id, customer_name=EXCLUDED.customer_name,
customer_mobile=EXCLUDED.customer_mobile, customer_email=EXCLUDED.customer_email,
order_type=EXCLUDED.order_type, status=EXCLUDED.status, docstatus=EXCLUDED.docstatus,
per_delivered=EXCLUDED.per_delivered, per_billed=EXCLUDED.per_billed, per_picked=EXCLUDED.per_picked,
payment_status=EXCLUDED.payment_status, security_deposit_status=EXCLUDED.security_deposit_status,
balance_amount=EXCLUDED.balance_amount, received_amount=EXCLUDED.received_amount,
refundable_security_deposit=EXCLUDED.refundable_security_deposit,
paid_security_deposit=EXCLUDED.paid_security_deposit,
outstanding_security_deposit=EXCLUDED.outstanding_security_deposit,
payment_url=EXCLUDED.payment_url, skip_delivery_note=EXCLUDED.skip_delivery_note,
transaction_date=EXCLUDED.transaction_date, synced_at=EXCLUDED.synced_at`,
		o.Name, o.CustomerID, o.CustomerName, o.CustomerMobile, o.CustomerEmail,
		o.OrderType, o.Status, o.DocStatus, o.PerDelivered, o.PerBilled, o.PerPicked,
		o.PaymentStatus, o.SecurityDepositStatus, o.BalanceAmount, o.ReceivedAmount,
		o.RefundableSecurityDeposit, o.PaidSecurityDeposit, o.OutstandingSecurityDeposit,
		o.PaymentURL, o.SkipDeliveryNote, o.TransactionDate, o.SyncedAt)
	if err != nil {
		return fmt.Errorf("upsert order: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM sales_order_items WHERE order_name = $1`, o.Name); err != nil {
		return fmt.Errorf("clear order items: %w", err)
	}
	for _, it := range o.Items {
		_, err := tx.Exec(ctx, `INSERT INTO sales_order_items
(order_name, item_code, item_name, qty, delivered_qty, delivered_by_supplier, idx)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			o.Name, it.ItemCode, it.ItemName, it.Qty, it.DeliveredQty, it.DeliveredBySupplier, it.Idx)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit(ctx)
}
