// Package account assembles the signed-in customer's dashboard.
package account

import (
	"context"
	"fmt"

	"github.com/noah-isme/pcnexus-api/internal/auth"
	"github.com/noah-isme/pcnexus-api/internal/order"
)

const recentOrders = 5

// Profiles loads the account owner. auth.Service implements it.
type Profiles interface {
	Me(ctx context.Context, userID string) (auth.User, error)
}

// Carts counts items in the user's active cart. cart.Service implements it.
type Carts interface {
	ItemCountFor(ctx context.Context, userID string) (int, error)
}

// Wishlists counts saved products. wishlist.Service implements it.
type Wishlists interface {
	Count(ctx context.Context, userID string) (int, error)
}

// Orders lists the newest orders. order.Service implements it.
type Orders interface {
	Recent(ctx context.Context, userID string, n int) ([]order.Order, error)
}

// Overview is the account dashboard payload.
type Overview struct {
	Profile       auth.User       `json:"profile"`
	CartItems     int             `json:"cartItemCount"`
	WishlistCount int             `json:"wishlistCount"`
	RecentOrders  []order.Summary `json:"recentOrders"`
}

type Service struct {
	Profiles  Profiles
	Carts     Carts
	Wishlists Wishlists
	Orders    Orders
}

// Overview gathers the dashboard for userID.
func (s *Service) Overview(ctx context.Context, userID string) (Overview, error) {
	profile, err := s.Profiles.Me(ctx, userID)
	if err != nil {
		return Overview{}, err
	}
	out := Overview{Profile: profile, RecentOrders: []order.Summary{}}
	if s.Carts != nil {
		if out.CartItems, err = s.Carts.ItemCountFor(ctx, userID); err != nil {
			return Overview{}, fmt.Errorf("cart count: %w", err)
		}
	}
	if s.Wishlists != nil {
		if out.WishlistCount, err = s.Wishlists.Count(ctx, userID); err != nil {
			return Overview{}, fmt.Errorf("wishlist count: %w", err)
		}
	}
	if s.Orders != nil {
		orders, err := s.Orders.Recent(ctx, userID, recentOrders)
		if err != nil {
			return Overview{}, fmt.Errorf("recent orders: %w", err)
		}
		for _, o := range orders {
			out.RecentOrders = append(out.RecentOrders, order.Summarize(o))
		}
	}
	return out, nil
}
