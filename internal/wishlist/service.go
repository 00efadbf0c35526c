// Package wishlist keeps the products a signed-in user has saved for later.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/pcnexus-api/internal/catalog"
	"github.com/noah-isme/pcnexus-api/internal/db"
)

// ErrUnknownProduct is returned when adding a product that does not exist.
var ErrUnknownProduct = errors.New("wishlist: unknown product")

// Store persists wishlist entries.
type Store interface {
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	ProductIDs(ctx context.Context, userID string) ([]string, error)
	Count(ctx context.Context, userID string) (int, error)
}

// Products resolves product cards for display.
type Products interface {
	ProductsByID(ctx context.Context, ids []string) ([]catalog.ProductCard, error)
}

type Service struct {
	Store    Store
	Products Products
}

// Add saves productID for the user. Adding twice is a no-op.
func (s *Service) Add(ctx context.Context, userID, productID string) error {
	if _, err := uuid.Parse(productID); err != nil {
		return ErrUnknownProduct
	}
	return s.Store.Add(ctx, userID, productID)
}

// Remove deletes productID from the user's wishlist.
func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	return s.Store.Remove(ctx, userID, productID)
}

// List returns the saved products that are still on sale, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]catalog.ProductCard, error) {
	ids, err := s.Store.ProductIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Products.ProductsByID(ctx, ids)
}

// Count returns the number of saved products.
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	return s.Store.Count(ctx, userID)
}

// PGStore implements Store on Postgres.
type PGStore struct {
	DB db.Querier
}

func (s PGStore) Add(ctx context.Context, userID, productID string) error {
	_, err := s.DB.Exec(ctx, `INSERT INTO wishlist_items (user_id, product_id, created_at)
		VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, userID, productID, time.Now().UTC())
	if db.IsForeignKeyViolation(err) {
		return ErrUnknownProduct
	}
	if err != nil {
		return fmt.Errorf("add wishlist item: %w", err)
	}
	return nil
}

func (s PGStore) Remove(ctx context.Context, userID, productID string) error {
	if _, err := s.DB.Exec(ctx, `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID); err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	return nil
}

func (s PGStore) ProductIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT product_id::text FROM wishlist_items WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s PGStore) Count(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM wishlist_items WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count wishlist: %w", err)
	}
	return n, nil
}
