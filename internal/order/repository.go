package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/pcnexus-api/internal/db"
)

// ErrDuplicateNumber is returned when the generated order number is already taken.
var ErrDuplicateNumber = errors.New("order number already exists")

// Repository persists orders.
type Repository interface {
	Create(ctx context.Context, o Order) error
	// GetByNumber loads an order. An empty userID skips the ownership check.
	GetByNumber(ctx context.Context, userID, number string) (Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	// UpdateStatus moves number from one status to another, failing with
	// ErrInvalidTransition if the stored status is no longer from.
	UpdateStatus(ctx context.Context, number string, from, to Status) error
}

// PGRepository stores orders in Postgres. Passing a pgx.Tx as DB makes Create
// part of the caller's transaction.
type PGRepository struct {
	DB db.TxBeginner
}

const orderColumns = `id, order_number, user_id, customer_name, customer_email, customer_phone,
	division, district, upazila, address, postal_code,
	subtotal, shipping_cost, tax, discount, total, delivery_time,
	payment_method, payment_status, status, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o      Order
		id     uuid.UUID
		userID *uuid.UUID
	)
	err := row.Scan(&id, &o.Number, &userID, &o.Customer.Name, &o.Customer.Email, &o.Customer.Phone,
		&o.Address.Division, &o.Address.District, &o.Address.Upazila, &o.Address.Address, &o.Address.PostalCode,
		&o.Subtotal, &o.Shipping, &o.Tax, &o.Discount, &o.Total, &o.DeliveryTime,
		&o.PaymentMethod, &o.PaymentStatus, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.ID = id.String()
	if userID != nil {
		o.UserID = userID.String()
	}
	return o, nil
}

func parseOptionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Create inserts the order and its items.
func (r PGRepository) Create(ctx context.Context, o Order) error {
	oid, err := uuid.Parse(o.ID)
	if err != nil {
		return fmt.Errorf("order id: %w", err)
	}
	userID, err := parseOptionalUUID(o.UserID)
	if err != nil {
		return fmt.Errorf("order user id: %w", err)
	}
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		oid, o.Number, userID, o.Customer.Name, o.Customer.Email, o.Customer.Phone,
		o.Address.Division, o.Address.District, o.Address.Upazila, o.Address.Address, o.Address.PostalCode,
		o.Subtotal, o.Shipping, o.Tax, o.Discount, o.Total, o.DeliveryTime,
		o.PaymentMethod, o.PaymentStatus, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateNumber
		}
		return fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, it := range o.Items {
		pid, err := parseOptionalUUID(it.ProductID)
		if err != nil {
			return fmt.Errorf("order item product id: %w", err)
		}
		batch.Queue(`INSERT INTO order_items (id, order_id, product_id, product_name, qty, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.MustParse(it.ID), oid, pid, it.ProductName, it.Qty, it.UnitPrice, it.LineTotal)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return tx.Commit(ctx)
}

// GetByNumber loads an order with its items.
func (r PGRepository) GetByNumber(ctx context.Context, userID, number string) (Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	args := []any{number}
	if userID != "" {
		uid, err := uuid.Parse(userID)
		if err != nil {
			return Order{}, ErrNotFound
		}
		query += ` AND user_id = $2`
		args = append(args, uid)
	}
	o, err := scanOrder(r.DB.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("load order: %w", err)
	}
	items, err := r.items(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r PGRepository) items(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, product_id, product_name, qty, unit_price, line_total
		FROM order_items WHERE order_id = $1 ORDER BY product_name`, uuid.MustParse(orderID))
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		var (
			it  Item
			id  uuid.UUID
			pid *uuid.UUID
		)
		if err := rows.Scan(&id, &pid, &it.ProductName, &it.Qty, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		it.ID = id.String()
		if pid != nil {
			it.ProductID = pid.String()
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListByUser returns the user's orders newest first, without items.
func (r PGRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return []Order{}, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, uid, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountByUser counts the user's orders.
func (r PGRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, nil
	}
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id = $1`, uid).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// UpdateStatus performs a compare-and-set on the order status.
func (r PGRepository) UpdateStatus(ctx context.Context, number string, from, to Status) error {
	tag, err := r.DB.Exec(ctx, `UPDATE orders SET status = $3, updated_at = $4
		WHERE order_number = $1 AND status = $2`, number, from, to, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}
