package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pcnexus-api/internal/cache"
	"github.com/noah-isme/pcnexus-api/internal/common"
)

// Section sizes shown on the home and product pages.
const (
	homeFeatured    = 8
	homeBestSellers = 4
	homeNewArrivals = 4
	homeCategories  = 6
	relatedLimit    = 4
	reviewLimit     = 10
)

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	store        Store
	cache        *cache.JSON
	logger       zerolog.Logger
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        Store
	Cache        *cache.JSON
	Logger       zerolog.Logger
	DefaultLimit int
	MaxLimit     int
}

// ListParams is a parsed product listing request.
type ListParams struct {
	Filter
	Page int
}

// ProductPage is one page of product cards.
type ProductPage struct {
	Items []ProductCard
	Total int64
	Page  int
	Limit int
}

// Home is the storefront landing payload.
type Home struct {
	Featured    []ProductCard `json:"featured"`
	BestSellers []ProductCard `json:"bestSellers"`
	NewArrivals []ProductCard `json:"newArrivals"`
	Categories  []Category    `json:"categories"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 12
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		logger:       cfg.Logger,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1}
	params.Limit = s.defaultLimit
	params.Query = strings.TrimSpace(values.Get("q"))
	params.CategorySlug = strings.TrimSpace(values.Get("category"))
	params.Brand = strings.TrimSpace(values.Get("brand"))
	params.Warranty = strings.TrimSpace(values.Get("warranty"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer")
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, badRequest("limit", "limit must be a positive integer")
		}
		params.Limit = min(l, s.maxLimit)
	}
	params.Offset = common.Offset(params.Page, params.Limit)

	for _, key := range []string{"min_price", "max_price"} {
		v := strings.TrimSpace(values.Get(key))
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			return params, badRequest(key, key+" must be a non-negative amount")
		}
		if key == "min_price" {
			params.MinPrice = &d
		} else {
			params.MaxPrice = &d
		}
	}
	if params.MinPrice != nil && params.MaxPrice != nil && params.MinPrice.GreaterThan(*params.MaxPrice) {
		return params, badRequest("min_price", "min_price must not exceed max_price")
	}

	switch stock := strings.TrimSpace(values.Get("stock")); stock {
	case "", StockInStock, StockLowStock:
		params.Stock = stock
	default:
		return params, badRequest("stock", "stock must be in_stock or low_stock")
	}

	// Unknown sort keys fall back to newest first.
	switch sort := strings.TrimSpace(values.Get("sort")); sort {
	case SortPriceLow, SortPriceHigh, SortRating:
		params.Sort = sort
	default:
		params.Sort = SortNewest
	}
	return params, nil
}

// ListProducts returns a filtered page of products.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ProductPage, error) {
	total, err := s.store.CountProducts(ctx, params.Filter)
	if err != nil {
		return ProductPage{}, err
	}
	items, err := s.store.ListProducts(ctx, params.Filter)
	if err != nil {
		return ProductPage{}, err
	}
	return ProductPage{Items: Cards(items), Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// Deals lists discounted products.
func (s *Service) Deals(ctx context.Context, params ListParams) (ProductPage, error) {
	params.Discounted = true
	return s.ListProducts(ctx, params)
}

// ProductDetail returns the product page with related products, reviews and FAQs.
func (s *Service) ProductDetail(ctx context.Context, slug string) (ProductDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ProductDetail{}, ErrNotFound
	}
	return cache.Load(ctx, s.cache, "product:"+slug, s.cacheErr, func(ctx context.Context) (ProductDetail, error) {
		p, err := s.store.GetProductBySlug(ctx, slug)
		if err != nil {
			return ProductDetail{}, err
		}
		detail := p.Detail()
		related, err := s.store.ListProducts(ctx, Filter{CategorySlug: p.CategorySlug, ExcludeID: p.ID, Limit: relatedLimit})
		if err != nil {
			return ProductDetail{}, err
		}
		detail.Related = Cards(related)
		reviews, err := s.store.ListReviews(ctx, p.ID, reviewLimit)
		if err != nil {
			return ProductDetail{}, err
		}
		if reviews != nil {
			detail.Reviews = reviews
		}
		faqs, err := s.store.ListFAQs(ctx, p.ID)
		if err != nil {
			return ProductDetail{}, err
		}
		if faqs != nil {
			detail.FAQs = faqs
		}
		return detail, nil
	})
}

// Home returns the landing page sections.
func (s *Service) Home(ctx context.Context) (Home, error) {
	return cache.Load(ctx, s.cache, "home", s.cacheErr, func(ctx context.Context) (Home, error) {
		var (
			home Home
			err  error
		)
		sections := []struct {
			dst *[]ProductCard
			f   Filter
		}{
			{&home.Featured, Filter{Featured: true, Limit: homeFeatured}},
			{&home.BestSellers, Filter{BestSeller: true, Limit: homeBestSellers}},
			{&home.NewArrivals, Filter{NewArrival: true, Limit: homeNewArrivals}},
		}
		for _, sec := range sections {
			products, err := s.store.ListProducts(ctx, sec.f)
			if err != nil {
				return Home{}, err
			}
			*sec.dst = Cards(products)
		}
		home.Categories, err = s.Categories(ctx, homeCategories)
		return home, err
	})
}

// Categories lists categories; limit <= 0 returns all.
func (s *Service) Categories(ctx context.Context, limit int) ([]Category, error) {
	return cache.Load(ctx, s.cache, fmt.Sprintf("categories:%d", limit), s.cacheErr, func(ctx context.Context) ([]Category, error) {
		rows, err := s.store.ListCategories(ctx, limit)
		if rows == nil {
			rows = []Category{}
		}
		return rows, err
	})
}

// Category returns one category.
func (s *Service) Category(ctx context.Context, slug string) (Category, error) {
	return s.store.GetCategory(ctx, strings.TrimSpace(slug))
}

// Brands lists distinct brands of available products.
func (s *Service) Brands(ctx context.Context) ([]Brand, error) {
	return cache.Load(ctx, s.cache, "brands", s.cacheErr, func(ctx context.Context) ([]Brand, error) {
		rows, err := s.store.ListBrands(ctx)
		if rows == nil {
			rows = []Brand{}
		}
		return rows, err
	})
}

// FAQs returns the general support FAQs.
func (s *Service) FAQs(ctx context.Context) ([]FAQ, error) {
	rows, err := s.store.ListFAQs(ctx, "")
	if rows == nil {
		rows = []FAQ{}
	}
	return rows, err
}

// ProductsByID returns cards for the available products among ids, in ids order.
func (s *Service) ProductsByID(ctx context.Context, ids []string) ([]ProductCard, error) {
	if len(ids) == 0 {
		return []ProductCard{}, nil
	}
	rows, err := s.store.ListProducts(ctx, Filter{IDs: ids, Limit: len(ids)})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	cards := make([]ProductCard, 0, len(rows))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			cards = append(cards, p.Card())
		}
	}
	return cards, nil
}

// ProductForCart loads a product with its live price for cart and checkout use.
// It never reads from cache so the price snapshot is current.
func (s *Service) ProductForCart(ctx context.Context, id string) (Product, error) {
	p, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if !p.IsAvailable {
		return Product{}, fmt.Errorf("%w: %s", ErrUnavailable, p.Name)
	}
	return p, nil
}

func (s *Service) cacheErr(err error) {
	s.logger.Warn().Err(err).Msg("catalog cache")
}

func badRequest(field, message string) error {
	return common.ValidationError(message, map[string]string{"field": field})
}
