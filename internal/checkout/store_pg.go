package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/pcnexus-api/internal/cart"
	"github.com/noah-isme/pcnexus-api/internal/db"
	"github.com/noah-isme/pcnexus-api/internal/order"
)

// PGStore writes the order and deletes the cart in a single transaction.
type PGStore struct {
	DB db.TxBeginner
}

// Place implements Placer.
func (s PGStore) Place(ctx context.Context, o order.Order, cartID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin checkout tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := (order.PGRepository{DB: tx}).Create(ctx, o); err != nil {
		return err
	}
	if err := (cart.PGRepository{DB: tx}).Delete(ctx, cartID); err != nil && !errors.Is(err, cart.ErrNotFound) {
		return err
	}
	return tx.Commit(ctx)
}
