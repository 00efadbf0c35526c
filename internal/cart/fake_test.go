package cart

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pcnexus-api/internal/catalog"
	"github.com/noah-isme/pcnexus-api/internal/pricing"
)

type memRepo struct {
	mu    sync.Mutex
	carts map[string]Cart
	saves int
}

func newMemRepo() *memRepo {
	return &memRepo{carts: make(map[string]Cart)}
}

func cloneCart(c Cart) Cart {
	c.Lines = append([]Line{}, c.Lines...)
	return c
}

func (m *memRepo) Get(_ context.Context, id string) (Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[id]
	if !ok {
		return Cart{}, ErrNotFound
	}
	return cloneCart(c), nil
}

func (m *memRepo) FindActive(_ context.Context, owner Owner) (Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *Cart
	for _, c := range m.carts {
		c := c
		match := (owner.UserID != "" && c.UserID == owner.UserID) ||
			(owner.UserID == "" && owner.AnonID != "" && c.UserID == "" && c.AnonID == owner.AnonID)
		if match && (best == nil || c.CreatedAt.After(best.CreatedAt)) {
			best = &c
		}
	}
	if best == nil {
		return Cart{}, ErrNotFound
	}
	return cloneCart(*best), nil
}

func (m *memRepo) Save(_ context.Context, c Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.carts {
		if id != c.ID && c.UserID != "" && other.UserID == c.UserID {
			return ErrOwnerHasCart
		}
	}
	m.saves++
	m.carts[c.ID] = cloneCart(c)
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[id]; !ok {
		return ErrNotFound
	}
	delete(m.carts, id)
	return nil
}

type fakeProducts map[string]catalog.Product

func (f fakeProducts) ProductForCart(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if !p.IsAvailable {
		return catalog.Product{}, catalog.ErrUnavailable
	}
	return p, nil
}

func testProducts() fakeProducts {
	return fakeProducts{
		"ssd": {ID: "ssd", Name: "Samsung 980 1TB", Slug: "samsung-980-1tb", PriceBDT: decimal.NewFromInt(100), StockQuantity: 5, IsAvailable: true},
		"ram": {ID: "ram", Name: "Corsair 16GB", Slug: "corsair-16gb", PriceBDT: decimal.NewFromInt(50), StockQuantity: 10, IsAvailable: true},
		"psu": {ID: "psu", Name: "Antec 650W", Slug: "antec-650w", PriceBDT: decimal.NewFromInt(80), DiscountPercentage: 25, StockQuantity: 3, IsAvailable: true},
	}
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func newTestService() (*Service, *memRepo, fakeProducts, *fixedClock) {
	repo := newMemRepo()
	products := testProducts()
	clock := &fixedClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := &Service{
		Repo:       repo,
		Products:   products,
		Calculator: pricing.NewCalculator(decimal.NewFromInt(15), decimal.NewFromInt(120), "3-5 business days", nil),
		TTL:        24 * time.Hour,
		Now:        clock.now,
	}
	return svc, repo, products, clock
}

// racingRepo creates a competing cart for the owner right after the first
// FindActive misses, as a concurrent request would.
type racingRepo struct {
	*memRepo
	rival Cart
	raced bool
}

func (r *racingRepo) FindActive(ctx context.Context, owner Owner) (Cart, error) {
	c, err := r.memRepo.FindActive(ctx, owner)
	if err == nil || r.raced {
		return c, err
	}
	r.raced = true
	if err := r.memRepo.Save(ctx, r.rival); err != nil {
		return Cart{}, err
	}
	return Cart{}, ErrNotFound
}
