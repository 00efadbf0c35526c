package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Sort orders accepted by product listings.
const (
	SortNewest    = "-created_at"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
	SortRating    = "-average_rating"
)

// Stock filters.
const (
	StockInStock  = "in_stock"
	StockLowStock = "low_stock"
)

// Filter narrows a product listing. Only available products are ever listed.
type Filter struct {
	Query        string
	CategorySlug string
	Brand        string
	Warranty     string
	Stock        string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Featured     bool
	BestSeller   bool
	NewArrival   bool
	Discounted   bool
	ExcludeID    string
	IDs          []string
	Sort         string
	Limit        int
	Offset       int
}

// Store is the catalog persistence contract.
type Store interface {
	ListCategories(ctx context.Context, limit int) ([]Category, error)
	GetCategory(ctx context.Context, slug string) (Category, error)
	ListProducts(ctx context.Context, f Filter) ([]Product, error)
	CountProducts(ctx context.Context, f Filter) (int64, error)
	GetProductBySlug(ctx context.Context, slug string) (Product, error)
	GetProductByID(ctx context.Context, id string) (Product, error)
	ListReviews(ctx context.Context, productID string, limit int) ([]Review, error)
	ListFAQs(ctx context.Context, productID string) ([]FAQ, error)
	ListBrands(ctx context.Context) ([]Brand, error)
}
