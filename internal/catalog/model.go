package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a category or product does not exist or is not available.
	ErrNotFound = errors.New("catalog: not found")
	// ErrUnavailable is returned when a product cannot be sold right now.
	ErrUnavailable = errors.New("catalog: product unavailable")
)

// LowStockThreshold is the stock level below which a product shows "Only N left".
const LowStockThreshold = 10

// EMIMonths is the instalment plan length used for EMI quotes.
const EMIMonths = 12

// usdRate approximates BDT per USD when a product has no explicit USD price.
var usdRate = decimal.NewFromInt(110)

var hundred = decimal.NewFromInt(100)

// Category groups products for navigation.
type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Icon         string `json:"icon"`
	Description  string `json:"description,omitempty"`
	ProductCount int    `json:"productCount"`
}

// Product is a catalog entry priced in taka.
type Product struct {
	ID                 string
	CategoryID         string
	CategorySlug       string
	CategoryName       string
	Name               string
	Slug               string
	SKU                string
	Description        string
	ShortDescription   string
	Highlights         []string
	Specifications     map[string]string
	Brand              string
	Model              string
	Warranty           string
	PriceBDT           decimal.Decimal
	PriceUSD           decimal.NullDecimal
	OldPrice           decimal.NullDecimal
	DiscountPercentage int
	StockQuantity      int
	IsAvailable        bool
	IsFeatured         bool
	IsBestSeller       bool
	IsNewArrival       bool
	AverageRating      decimal.Decimal
	ReviewCount        int
	MainImage          string
	CreatedAt          time.Time
}

// CurrentPrice applies the percentage discount to PriceBDT.
func (p Product) CurrentPrice() decimal.Decimal {
	if p.DiscountPercentage <= 0 {
		return p.PriceBDT
	}
	discount := p.PriceBDT.Mul(decimal.NewFromInt(int64(p.DiscountPercentage))).Div(hundred)
	return p.PriceBDT.Sub(discount).Round(2)
}

// InStock reports whether any units are left.
func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// StockStatus renders the storefront stock label.
func (p Product) StockStatus() string {
	switch {
	case p.StockQuantity <= 0:
		return "Out of Stock"
	case p.StockQuantity < LowStockThreshold:
		return fmt.Sprintf("Only %d left", p.StockQuantity)
	default:
		return "In Stock"
	}
}

// SaveAmount is OldPrice minus PriceBDT when a higher old price is recorded.
func (p Product) SaveAmount() decimal.Decimal {
	if p.OldPrice.Valid && p.OldPrice.Decimal.GreaterThan(p.PriceBDT) {
		return p.OldPrice.Decimal.Sub(p.PriceBDT)
	}
	return decimal.Zero
}

// EMI is the monthly instalment over EMIMonths, rounded to poisha.
func (p Product) EMI() decimal.Decimal {
	return p.CurrentPrice().Div(decimal.NewFromInt(EMIMonths)).Round(2)
}

// USDPrice returns the stored USD price or an approximation from PriceBDT.
func (p Product) USDPrice() decimal.Decimal {
	if p.PriceUSD.Valid {
		return p.PriceUSD.Decimal
	}
	return p.PriceBDT.Div(usdRate).Round(2)
}

// Review is a customer product review.
type Review struct {
	ID               string    `json:"id"`
	Author           string    `json:"author"`
	Rating           int       `json:"rating"`
	Comment          string    `json:"comment"`
	VerifiedPurchase bool      `json:"verifiedPurchase"`
	CreatedAt        time.Time `json:"createdAt"`
}

// FAQ is a question shown on product pages or the support page.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Brand aggregates available products by brand name.
type Brand struct {
	Name         string `json:"name"`
	ProductCount int    `json:"productCount"`
}

// ProductCard is the list payload for a product.
type ProductCard struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Slug               string          `json:"slug"`
	Brand              string          `json:"brand"`
	Category           string          `json:"category"`
	Price              decimal.Decimal `json:"price"`
	CurrentPrice       decimal.Decimal `json:"currentPrice"`
	DiscountPercentage int             `json:"discountPercentage"`
	InStock            bool            `json:"inStock"`
	StockStatus        string          `json:"stockStatus"`
	AverageRating      decimal.Decimal `json:"averageRating"`
	ReviewCount        int             `json:"reviewCount"`
	Image              string          `json:"image,omitempty"`
	Badges             []string        `json:"badges"`
}

// ProductDetail is the full product page payload.
type ProductDetail struct {
	ProductCard
	SKU              string            `json:"sku,omitempty"`
	Model            string            `json:"model"`
	Warranty         string            `json:"warranty"`
	Description      string            `json:"description"`
	ShortDescription string            `json:"shortDescription,omitempty"`
	Highlights       []string          `json:"highlights"`
	Specifications   map[string]string `json:"specifications"`
	PriceUSD         decimal.Decimal   `json:"priceUsd"`
	OldPrice         *decimal.Decimal  `json:"oldPrice,omitempty"`
	SaveAmount       decimal.Decimal   `json:"saveAmount"`
	EMI              decimal.Decimal   `json:"emiAmount"`
	StockQuantity    int               `json:"stockQuantity"`
	Related          []ProductCard     `json:"related"`
	Reviews          []Review          `json:"reviews"`
	FAQs             []FAQ             `json:"faqs"`
}

// Card converts a product to its list payload.
func (p Product) Card() ProductCard {
	badges := []string{}
	if p.IsFeatured {
		badges = append(badges, "featured")
	}
	if p.IsBestSeller {
		badges = append(badges, "best-seller")
	}
	if p.IsNewArrival {
		badges = append(badges, "new")
	}
	if p.DiscountPercentage > 0 {
		badges = append(badges, fmt.Sprintf("-%d%%", p.DiscountPercentage))
	}
	return ProductCard{
		ID:                 p.ID,
		Name:               p.Name,
		Slug:               p.Slug,
		Brand:              p.Brand,
		Category:           p.CategorySlug,
		Price:              p.PriceBDT,
		CurrentPrice:       p.CurrentPrice(),
		DiscountPercentage: p.DiscountPercentage,
		InStock:            p.InStock(),
		StockStatus:        p.StockStatus(),
		AverageRating:      p.AverageRating,
		ReviewCount:        p.ReviewCount,
		Image:              p.MainImage,
		Badges:             badges,
	}
}

// Detail converts a product to its page payload without related data.
func (p Product) Detail() ProductDetail {
	d := ProductDetail{
		ProductCard:      p.Card(),
		SKU:              p.SKU,
		Model:            p.Model,
		Warranty:         p.Warranty,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Highlights:       p.Highlights,
		Specifications:   p.Specifications,
		PriceUSD:         p.USDPrice(),
		SaveAmount:       p.SaveAmount(),
		EMI:              p.EMI(),
		StockQuantity:    p.StockQuantity,
		Related:          []ProductCard{},
		Reviews:          []Review{},
		FAQs:             []FAQ{},
	}
	if p.OldPrice.Valid {
		old := p.OldPrice.Decimal
		d.OldPrice = &old
	}
	if d.Highlights == nil {
		d.Highlights = []string{}
	}
	if d.Specifications == nil {
		d.Specifications = map[string]string{}
	}
	return d
}

// Cards converts a slice of products.
func Cards(products []Product) []ProductCard {
	out := make([]ProductCard, 0, len(products))
	for _, p := range products {
		out = append(out, p.Card())
	}
	return out
}
