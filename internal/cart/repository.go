package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/pcnexus-api/internal/db"
)

// Repository persists carts.
type Repository interface {
	Get(ctx context.Context, id string) (Cart, error)
	FindActive(ctx context.Context, owner Owner) (Cart, error)
	Save(ctx context.Context, c Cart) error
	Delete(ctx context.Context, id string) error
}

// PGRepository stores carts in Postgres. With a pool as DB, Save runs in its
// own transaction; with a pgx.Tx it joins the caller's transaction.
type PGRepository struct {
	DB db.TxBeginner
}

const cartColumns = `id, user_id, anon_id, created_at, updated_at, expires_at`

func scanCart(row pgx.Row) (Cart, error) {
	var (
		c      Cart
		id     uuid.UUID
		userID *uuid.UUID
		anonID *string
	)
	if err := row.Scan(&id, &userID, &anonID, &c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt); err != nil {
		return Cart{}, err
	}
	c.ID = id.String()
	if userID != nil {
		c.UserID = userID.String()
	}
	if anonID != nil {
		c.AnonID = *anonID
	}
	return c, nil
}

// Get loads a cart with its lines.
func (r PGRepository) Get(ctx context.Context, id string) (Cart, error) {
	cid, err := uuid.Parse(id)
	if err != nil {
		return Cart{}, ErrNotFound
	}
	c, err := scanCart(r.DB.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, cid))
	if errors.Is(err, pgx.ErrNoRows) {
		return Cart{}, ErrNotFound
	}
	if err != nil {
		return Cart{}, fmt.Errorf("get cart: %w", err)
	}
	return r.withLines(ctx, c)
}

// FindActive returns the owner's newest cart, expired or not.
func (r PGRepository) FindActive(ctx context.Context, owner Owner) (Cart, error) {
	var row pgx.Row
	switch {
	case owner.UserID != "":
		uid, err := uuid.Parse(owner.UserID)
		if err != nil {
			return Cart{}, ErrInvalidInput
		}
		row = r.DB.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts
			WHERE user_id = $1`, uid)
	case owner.AnonID != "":
		row = r.DB.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts
			WHERE anon_id = $1 AND user_id IS NULL ORDER BY updated_at DESC LIMIT 1`, owner.AnonID)
	default:
		return Cart{}, ErrInvalidInput
	}
	c, err := scanCart(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cart{}, ErrNotFound
	}
	if err != nil {
		return Cart{}, fmt.Errorf("find active cart: %w", err)
	}
	return r.withLines(ctx, c)
}

func (r PGRepository) withLines(ctx context.Context, c Cart) (Cart, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, product_id, name, slug, unit_price, qty, added_at
		FROM cart_items WHERE cart_id = $1 ORDER BY added_at, id`, uuid.MustParse(c.ID))
	if err != nil {
		return Cart{}, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	c.Lines = []Line{}
	for rows.Next() {
		var (
			l       Line
			id, pid uuid.UUID
		)
		if err := rows.Scan(&id, &pid, &l.Name, &l.Slug, &l.UnitPrice, &l.Qty, &l.AddedAt); err != nil {
			return Cart{}, fmt.Errorf("scan cart item: %w", err)
		}
		l.ID = id.String()
		l.ProductID = pid.String()
		c.Lines = append(c.Lines, l)
	}
	return c, rows.Err()
}

// Save upserts the cart row and replaces its line set atomically.
func (r PGRepository) Save(ctx context.Context, c Cart) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin cart tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cid, err := uuid.Parse(c.ID)
	if err != nil {
		return ErrInvalidInput
	}
	var userID *uuid.UUID
	if c.UserID != "" {
		uid, err := uuid.Parse(c.UserID)
		if err != nil {
			return ErrInvalidInput
		}
		userID = &uid
	}
	var anonID *string
	if c.AnonID != "" {
		anonID = &c.AnonID
	}

	if _, err := tx.Exec(ctx, `INSERT INTO carts (id, user_id, anon_id, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id, anon_id = EXCLUDED.anon_id,
			updated_at = EXCLUDED.updated_at, expires_at = EXCLUDED.expires_at`,
		cid, userID, anonID, c.CreatedAt, c.UpdatedAt, c.ExpiresAt); err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("upsert cart: %w", ErrOwnerHasCart)
		}
		return fmt.Errorf("upsert cart: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cid); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	if len(c.Lines) > 0 {
		batch := &pgx.Batch{}
		for _, l := range c.Lines {
			batch.Queue(`INSERT INTO cart_items (id, cart_id, product_id, name, slug, unit_price, qty, added_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				uuid.MustParse(l.ID), cid, uuid.MustParse(l.ProductID), l.Name, l.Slug, l.UnitPrice, l.Qty, l.AddedAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert cart items: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Delete removes a cart and its lines.
func (r PGRepository) Delete(ctx context.Context, id string) error {
	cid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	if _, err := r.DB.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cid); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
