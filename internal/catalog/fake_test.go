package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memStore struct {
	categories []Category
	products   []Product
	reviews    map[string][]Review
	faqs       map[string][]FAQ
	calls      int
}

func (m *memStore) match(p Product, f Filter) bool {
	if !p.IsAvailable {
		return false
	}
	if q := strings.ToLower(f.Query); q != "" {
		hay := strings.ToLower(p.Name + " " + p.Description + " " + p.Brand + " " + p.Model)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	switch {
	case f.CategorySlug != "" && p.CategorySlug != f.CategorySlug,
		f.Brand != "" && !strings.EqualFold(p.Brand, f.Brand),
		f.Warranty != "" && p.Warranty != f.Warranty,
		f.Stock == StockInStock && p.StockQuantity <= 0,
		f.Stock == StockLowStock && (p.StockQuantity <= 0 || p.StockQuantity >= LowStockThreshold),
		f.MinPrice != nil && p.PriceBDT.LessThan(*f.MinPrice),
		f.MaxPrice != nil && p.PriceBDT.GreaterThan(*f.MaxPrice),
		f.Featured && !p.IsFeatured,
		f.BestSeller && !p.IsBestSeller,
		f.NewArrival && !p.IsNewArrival,
		f.Discounted && p.DiscountPercentage == 0,
		f.ExcludeID != "" && p.ID == f.ExcludeID,
		len(f.IDs) > 0 && !contains(f.IDs, p.ID):
		return false
	}
	return true
}

func (m *memStore) filter(f Filter) []Product {
	var out []Product
	for _, p := range m.products {
		if m.match(p, f) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		switch f.Sort {
		case SortPriceLow:
			return out[i].PriceBDT.LessThan(out[j].PriceBDT)
		case SortPriceHigh:
			return out[i].PriceBDT.GreaterThan(out[j].PriceBDT)
		case SortRating:
			return out[i].AverageRating.GreaterThan(out[j].AverageRating)
		default:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
	})
	return out
}

func (m *memStore) ListCategories(_ context.Context, limit int) ([]Category, error) {
	m.calls++
	if limit > 0 && limit < len(m.categories) {
		return m.categories[:limit], nil
	}
	return m.categories, nil
}

func (m *memStore) GetCategory(_ context.Context, slug string) (Category, error) {
	for _, c := range m.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return Category{}, ErrNotFound
}

func (m *memStore) ListProducts(_ context.Context, f Filter) ([]Product, error) {
	m.calls++
	out := m.filter(f)
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) CountProducts(_ context.Context, f Filter) (int64, error) {
	return int64(len(m.filter(f))), nil
}

func (m *memStore) GetProductBySlug(_ context.Context, slug string) (Product, error) {
	m.calls++
	for _, p := range m.products {
		if p.Slug == slug && p.IsAvailable {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (m *memStore) GetProductByID(_ context.Context, id string) (Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (m *memStore) ListReviews(_ context.Context, productID string, limit int) ([]Review, error) {
	rows := m.reviews[productID]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *memStore) ListFAQs(_ context.Context, productID string) ([]FAQ, error) {
	return m.faqs[productID], nil
}

func (m *memStore) ListBrands(_ context.Context) ([]Brand, error) {
	counts := map[string]int{}
	for _, p := range m.products {
		if p.IsAvailable {
			counts[p.Brand]++
		}
	}
	var out []Brand
	for name, n := range counts {
		out = append(out, Brand{Name: name, ProductCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func product(name, category, brand, price string, stock int, age time.Duration) Product {
	return Product{
		ID:            uuid.NewString(),
		Name:          name,
		Slug:          strings.ReplaceAll(strings.ToLower(name), " ", "-"),
		CategorySlug:  category,
		Brand:         brand,
		Warranty:      "1",
		PriceBDT:      decimal.RequireFromString(price),
		StockQuantity: stock,
		IsAvailable:   true,
		CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(-age),
	}
}

func seedStore() *memStore {
	ryzen := product("Ryzen 7 7800X3D", "processors", "AMD", "52000", 25, 0)
	ryzen.IsFeatured = true
	ryzen.DiscountPercentage = 10
	ryzen.AverageRating = decimal.RequireFromString("4.9")
	intel := product("Core i5 14600K", "processors", "Intel", "38500", 4, time.Hour)
	intel.IsBestSeller = true
	intel.AverageRating = decimal.RequireFromString("4.5")
	celeron := product("Celeron G6900", "processors", "Intel", "6500", 0, 2*time.Hour)
	rtx := product("RTX 4070 Super", "graphics-cards", "NVIDIA", "89000", 12, 3*time.Hour)
	rtx.IsNewArrival = true
	retired := product("GTX 1050", "graphics-cards", "NVIDIA", "9000", 3, 4*time.Hour)
	retired.IsAvailable = false

	return &memStore{
		categories: []Category{
			{ID: uuid.NewString(), Name: "Graphics Cards", Slug: "graphics-cards"},
			{ID: uuid.NewString(), Name: "Processors", Slug: "processors"},
		},
		products: []Product{ryzen, intel, celeron, rtx, retired},
		reviews: map[string][]Review{
			ryzen.ID: {{ID: uuid.NewString(), Author: "rahim", Rating: 5, Comment: "fast"}},
		},
		faqs: map[string][]FAQ{
			"": {{Question: "ডেলিভারি সময় কত?", Answer: "ঢাকায় ১-২ দিন"}},
		},
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
