package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/pcnexus-api/internal/catalog"
	"github.com/noah-isme/pcnexus-api/internal/common"
	"github.com/noah-isme/pcnexus-api/internal/lock"
	"github.com/noah-isme/pcnexus-api/internal/obs"
	"github.com/noah-isme/pcnexus-api/internal/pricing"
)

// ProductLookup resolves live product data for cart lines.
type ProductLookup interface {
	ProductForCart(ctx context.Context, id string) (catalog.Product, error)
}

// Locker runs fn while holding a named lock. lock.Locker implements it.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service encapsulates cart domain operations.
type Service struct {
	Repo       Repository
	Products   ProductLookup
	Locker     Locker
	Calculator pricing.Calculator
	TTL        time.Duration
	LockTTL    time.Duration
	Now        func() time.Time
}

// View is a cart with live prices and the display pricing breakdown.
type View struct {
	Cart
	Availability
	ItemCount int                  `json:"itemCount"`
	Pricing   pricing.OrderPricing `json:"pricing"`
}

// Shortage is a line asking for more units than the catalog holds.
type Shortage struct {
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// Availability lists the cart lines that cannot be sold as they stand.
type Availability struct {
	Unavailable []string   `json:"unavailable,omitempty"`
	Short       []Shortage `json:"insufficientStock,omitempty"`
}

func (s *Service) ttl() time.Duration {
	if s.TTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// WithCartLock serialises work on one cart across requests and instances.
func (s *Service) WithCartLock(ctx context.Context, cartID string, fn func(context.Context) error) error {
	if s.Locker == nil {
		return fn(ctx)
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return s.Locker.WithLock(ctx, lock.CartKey(cartID), ttl, fn)
}

// Ensure returns the active cart of owner, creating one when none exists.
func (s *Service) Ensure(ctx context.Context, owner Owner) (Cart, error) {
	if owner.UserID == "" && owner.AnonID == "" {
		return Cart{}, ErrInvalidInput
	}
	now := s.now()
	c, err := s.Repo.FindActive(ctx, owner)
	if err == nil {
		if c.ExpiresAt.After(now) {
			return c, nil
		}
		// An expired cart is emptied and reused; users hold at most one cart.
		c.Lines = []Line{}
		s.touch(&c)
		if err := s.Repo.Save(ctx, c); err != nil {
			return Cart{}, err
		}
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Cart{}, err
	}
	c = Cart{
		ID:        uuid.NewString(),
		UserID:    owner.UserID,
		AnonID:    owner.AnonID,
		Lines:     []Line{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}
	err = s.Repo.Save(ctx, c)
	if errors.Is(err, ErrOwnerHasCart) {
		// A concurrent Ensure for the same user created the cart first.
		return s.Repo.FindActive(ctx, owner)
	}
	if err != nil {
		return Cart{}, err
	}
	return c, nil
}

// ItemCountFor reports the item count of a user's active cart without creating one.
func (s *Service) ItemCountFor(ctx context.Context, userID string) (int, error) {
	c, err := s.Repo.FindActive(ctx, Owner{UserID: userID})
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if c.ExpiresAt.Before(s.now()) {
		return 0, nil
	}
	return c.ItemCount(), nil
}

// Get loads an unexpired cart.
func (s *Service) Get(ctx context.Context, id string) (Cart, error) {
	c, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Cart{}, err
	}
	if !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(s.now()) {
		return Cart{}, ErrNotFound
	}
	return c, nil
}

// View returns the cart repriced against the catalog with a default-shipping preview.
func (s *Service) View(ctx context.Context, id string) (View, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	if err := Authorize(ctx, c); err != nil {
		return View{}, err
	}
	c, avail, err := s.Reprice(ctx, c)
	if err != nil {
		return View{}, err
	}
	return View{
		Cart:         c,
		Availability: avail,
		ItemCount:    c.ItemCount(),
		Pricing:      s.Calculator.Preview(c.PricingLines()),
	}, nil
}

// Reprice replaces each line's unit price with the current catalog price.
// Lines whose product is gone or unavailable are dropped and reported by name;
// lines exceeding current stock are kept and reported as shortages.
func (s *Service) Reprice(ctx context.Context, c Cart) (Cart, Availability, error) {
	lines := make([]Line, 0, len(c.Lines))
	var avail Availability
	for _, l := range c.Lines {
		p, err := s.Products.ProductForCart(ctx, l.ProductID)
		if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, catalog.ErrUnavailable) {
			avail.Unavailable = append(avail.Unavailable, l.Name)
			continue
		}
		if err != nil {
			return Cart{}, Availability{}, err
		}
		l.UnitPrice = p.CurrentPrice()
		l.Name = p.Name
		l.Slug = p.Slug
		if l.Qty > p.StockQuantity {
			avail.Short = append(avail.Short, Shortage{Name: p.Name, Requested: l.Qty, Available: p.StockQuantity})
		}
		lines = append(lines, l)
	}
	c.Lines = lines
	return c, avail, nil
}

// AddItem snapshots the current price of productID into the cart, incrementing an existing line.
func (s *Service) AddItem(ctx context.Context, cartID, productID string, qty int) (Cart, error) {
	if err := pricing.ValidateQuantity(qty); err != nil {
		return Cart{}, err
	}
	return s.mutate(ctx, cartID, "add", func(ctx context.Context, c *Cart) error {
		p, err := s.Products.ProductForCart(ctx, productID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return fmt.Errorf("product %s: %w", productID, ErrInvalidInput)
			}
			return err
		}
		want := qty
		idx := c.productIndex(p.ID)
		if idx >= 0 {
			want += c.Lines[idx].Qty
		}
		if want > p.StockQuantity {
			return fmt.Errorf("%s: %w (%d available)", p.Name, ErrOutOfStock, p.StockQuantity)
		}
		if idx >= 0 {
			c.Lines[idx].Qty = want
			c.Lines[idx].UnitPrice = p.CurrentPrice()
			return nil
		}
		c.Lines = append(c.Lines, Line{
			ID:        uuid.NewString(),
			ProductID: p.ID,
			Name:      p.Name,
			Slug:      p.Slug,
			UnitPrice: p.CurrentPrice(),
			Qty:       qty,
			AddedAt:   s.now(),
		})
		return nil
	})
}

// UpdateQty sets a line quantity. A quantity of zero or less removes the line.
func (s *Service) UpdateQty(ctx context.Context, cartID, lineID string, qty int) (Cart, error) {
	if qty <= 0 {
		return s.RemoveItem(ctx, cartID, lineID)
	}
	return s.mutate(ctx, cartID, "update", func(ctx context.Context, c *Cart) error {
		idx := c.lineIndex(lineID)
		if idx < 0 {
			return ErrNotFound
		}
		p, err := s.Products.ProductForCart(ctx, c.Lines[idx].ProductID)
		if err != nil {
			return err
		}
		if qty > p.StockQuantity {
			return fmt.Errorf("%s: %w (%d available)", p.Name, ErrOutOfStock, p.StockQuantity)
		}
		c.Lines[idx].Qty = qty
		return nil
	})
}

// RemoveItem deletes a line.
func (s *Service) RemoveItem(ctx context.Context, cartID, lineID string) (Cart, error) {
	return s.mutate(ctx, cartID, "remove", func(_ context.Context, c *Cart) error {
		idx := c.lineIndex(lineID)
		if idx < 0 {
			return ErrNotFound
		}
		c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
		return nil
	})
}

// Clear removes every line but keeps the cart.
func (s *Service) Clear(ctx context.Context, cartID string) (Cart, error) {
	return s.mutate(ctx, cartID, "clear", func(_ context.Context, c *Cart) error {
		c.Lines = []Line{}
		return nil
	})
}

// Merge moves the lines of a guest cart into the user's cart and deletes the guest cart.
// Quantities of products present in both are summed and capped at current stock.
func (s *Service) Merge(ctx context.Context, guestCartID, userID string) (Cart, error) {
	if userID == "" {
		return Cart{}, ErrInvalidInput
	}
	var merged Cart
	err := s.WithCartLock(ctx, guestCartID, func(ctx context.Context) error {
		guest, err := s.Get(ctx, guestCartID)
		if err != nil {
			return err
		}
		if guest.UserID == userID {
			merged = guest
			return nil
		}
		if guest.UserID != "" {
			return ErrForbidden
		}
		target, err := s.Ensure(ctx, Owner{UserID: userID})
		if err != nil {
			return err
		}
		return s.WithCartLock(ctx, target.ID, func(ctx context.Context) error {
			target, err := s.Get(ctx, target.ID)
			if err != nil {
				return err
			}
			for _, gl := range guest.Lines {
				idx := target.productIndex(gl.ProductID)
				want := gl.Qty
				if idx >= 0 {
					want += target.Lines[idx].Qty
				}
				if want, err = s.capToStock(ctx, gl.ProductID, want); err != nil {
					return err
				}
				switch {
				case idx >= 0 && want > 0:
					target.Lines[idx].Qty = want
				case idx >= 0:
					target.Lines = append(target.Lines[:idx], target.Lines[idx+1:]...)
				case want > 0:
					gl.ID = uuid.NewString()
					gl.Qty = want
					target.Lines = append(target.Lines, gl)
				}
			}
			s.touch(&target)
			if err := s.Repo.Save(ctx, target); err != nil {
				return err
			}
			if err := s.Repo.Delete(ctx, guest.ID); err != nil {
				return err
			}
			merged = target
			return nil
		})
	})
	if err != nil {
		return Cart{}, err
	}
	obs.RecordCartMutation("merge")
	return merged, nil
}

// capToStock limits qty to the product's stock. Products that are gone or
// unavailable keep qty so checkout can report them by name.
func (s *Service) capToStock(ctx context.Context, productID string, qty int) (int, error) {
	p, err := s.Products.ProductForCart(ctx, productID)
	if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, catalog.ErrUnavailable) {
		return qty, nil
	}
	if err != nil {
		return 0, err
	}
	if qty > p.StockQuantity {
		return p.StockQuantity, nil
	}
	return qty, nil
}

// Delete removes the cart entirely.
func (s *Service) Delete(ctx context.Context, cartID string) error {
	return s.WithCartLock(ctx, cartID, func(ctx context.Context) error {
		c, err := s.Get(ctx, cartID)
		if err != nil {
			return err
		}
		if err := Authorize(ctx, c); err != nil {
			return err
		}
		return s.Repo.Delete(ctx, cartID)
	})
}

func (s *Service) mutate(ctx context.Context, cartID, op string, fn func(context.Context, *Cart) error) (Cart, error) {
	var out Cart
	err := s.WithCartLock(ctx, cartID, func(ctx context.Context) error {
		c, err := s.Get(ctx, cartID)
		if err != nil {
			return err
		}
		if err := Authorize(ctx, c); err != nil {
			return err
		}
		if err := fn(ctx, &c); err != nil {
			return err
		}
		s.touch(&c)
		if err := s.Repo.Save(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return Cart{}, err
	}
	obs.RecordCartMutation(op)
	return out, nil
}

// Authorize rejects access to a user-owned cart by anyone but that user.
func Authorize(ctx context.Context, c Cart) error {
	if c.UserID == "" {
		return nil
	}
	if userID, _ := common.UserID(ctx); userID != c.UserID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) touch(c *Cart) {
	now := s.now()
	c.UpdatedAt = now
	c.ExpiresAt = now.Add(s.ttl())
}
