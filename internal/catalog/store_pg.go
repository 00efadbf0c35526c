package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/pcnexus-api/internal/db"
)

// PGStore implements Store on Postgres.
type PGStore struct {
	DB db.Querier
}

const productColumns = `p.id, p.category_id, c.slug, c.name, p.name, p.slug, COALESCE(p.sku, ''),
	p.description, p.short_description, p.highlights, p.specifications, p.brand, p.model, p.warranty,
	p.price_bdt, p.price_usd, p.old_price, p.discount_percentage, p.stock_quantity, p.is_available,
	p.is_featured, p.is_best_seller, p.is_new_arrival, p.average_rating, p.review_count, p.main_image, p.created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p       Product
		id, cid uuid.UUID
		specs   []byte
	)
	err := row.Scan(&id, &cid, &p.CategorySlug, &p.CategoryName, &p.Name, &p.Slug, &p.SKU,
		&p.Description, &p.ShortDescription, &p.Highlights, &specs, &p.Brand, &p.Model, &p.Warranty,
		&p.PriceBDT, &p.PriceUSD, &p.OldPrice, &p.DiscountPercentage, &p.StockQuantity, &p.IsAvailable,
		&p.IsFeatured, &p.IsBestSeller, &p.IsNewArrival, &p.AverageRating, &p.ReviewCount, &p.MainImage, &p.CreatedAt)
	if err != nil {
		return Product{}, err
	}
	p.ID = id.String()
	p.CategoryID = cid.String()
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &p.Specifications); err != nil {
			p.Specifications = map[string]string{}
		}
	}
	return p, nil
}

// where builds the WHERE clause and argument list for f.
func where(f Filter) (string, []any) {
	conds := []string{"p.is_available"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		ph := arg("%" + q + "%")
		conds = append(conds, fmt.Sprintf("(p.name ILIKE %[1]s OR p.description ILIKE %[1]s OR p.brand ILIKE %[1]s OR p.model ILIKE %[1]s)", ph))
	}
	if f.CategorySlug != "" {
		conds = append(conds, "c.slug = "+arg(f.CategorySlug))
	}
	if f.Brand != "" {
		conds = append(conds, "lower(p.brand) = lower("+arg(f.Brand)+")")
	}
	if f.Warranty != "" {
		conds = append(conds, "p.warranty = "+arg(f.Warranty))
	}
	switch f.Stock {
	case StockInStock:
		conds = append(conds, "p.stock_quantity > 0")
	case StockLowStock:
		conds = append(conds, fmt.Sprintf("p.stock_quantity > 0 AND p.stock_quantity < %d", LowStockThreshold))
	}
	if f.MinPrice != nil {
		conds = append(conds, "p.price_bdt >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, "p.price_bdt <= "+arg(*f.MaxPrice))
	}
	if f.Featured {
		conds = append(conds, "p.is_featured")
	}
	if f.BestSeller {
		conds = append(conds, "p.is_best_seller")
	}
	if f.NewArrival {
		conds = append(conds, "p.is_new_arrival")
	}
	if f.Discounted {
		conds = append(conds, "p.discount_percentage > 0")
	}
	if f.ExcludeID != "" {
		if id, err := uuid.Parse(f.ExcludeID); err == nil {
			conds = append(conds, "p.id <> "+arg(id))
		}
	}
	if len(f.IDs) > 0 {
		ids := make([]uuid.UUID, 0, len(f.IDs))
		for _, raw := range f.IDs {
			if id, err := uuid.Parse(raw); err == nil {
				ids = append(ids, id)
			}
		}
		conds = append(conds, "p.id = ANY("+arg(ids)+")")
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(sort string) string {
	switch sort {
	case SortPriceLow:
		return " ORDER BY p.price_bdt ASC, p.id"
	case SortPriceHigh:
		return " ORDER BY p.price_bdt DESC, p.id"
	case SortRating:
		return " ORDER BY p.average_rating DESC, p.id"
	default:
		return " ORDER BY p.created_at DESC, p.id"
	}
}

const productFrom = ` FROM products p JOIN categories c ON c.id = p.category_id`

// ListProducts returns one page of products matching f.
func (s PGStore) ListProducts(ctx context.Context, f Filter) ([]Product, error) {
	cond, args := where(f)
	sql := `SELECT ` + productColumns + productFrom + cond + orderBy(f.Sort)
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountProducts counts products matching f, ignoring limit and offset.
func (s PGStore) CountProducts(ctx context.Context, f Filter) (int64, error) {
	cond, args := where(f)
	var n int64
	if err := s.DB.QueryRow(ctx, `SELECT count(*)`+productFrom+cond, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// GetProductBySlug returns an available product.
func (s PGStore) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+productColumns+productFrom+` WHERE p.slug = $1 AND p.is_available`, slug)
	return notFound(scanProduct(row))
}

// GetProductByID returns a product regardless of availability.
func (s PGStore) GetProductByID(ctx context.Context, id string) (Product, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Product{}, ErrNotFound
	}
	row := s.DB.QueryRow(ctx, `SELECT `+productColumns+productFrom+` WHERE p.id = $1`, parsed)
	return notFound(scanProduct(row))
}

func notFound(p Product, err error) (Product, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// ListCategories returns categories with available product counts.
func (s PGStore) ListCategories(ctx context.Context, limit int) ([]Category, error) {
	sql := `SELECT c.id, c.name, c.slug, c.icon, c.description,
		(SELECT count(*) FROM products p WHERE p.category_id = c.id AND p.is_available)
		FROM categories c ORDER BY c.name`
	var args []any
	if limit > 0 {
		sql += " LIMIT $1"
		args = append(args, limit)
	}
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory returns a category by slug.
func (s PGStore) GetCategory(ctx context.Context, slug string) (Category, error) {
	row := s.DB.QueryRow(ctx, `SELECT c.id, c.name, c.slug, c.icon, c.description,
		(SELECT count(*) FROM products p WHERE p.category_id = c.id AND p.is_available)
		FROM categories c WHERE c.slug = $1`, slug)
	c, err := scanCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func scanCategory(row pgx.Row) (Category, error) {
	var (
		c  Category
		id uuid.UUID
	)
	if err := row.Scan(&id, &c.Name, &c.Slug, &c.Icon, &c.Description, &c.ProductCount); err != nil {
		return Category{}, err
	}
	c.ID = id.String()
	return c, nil
}

// ListReviews returns the newest reviews for a product.
func (s PGStore) ListReviews(ctx context.Context, productID string, limit int) ([]Review, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := s.DB.Query(ctx, `SELECT r.id, COALESCE(NULLIF(r.author_name, ''), u.username, 'Customer'),
		r.rating, r.comment, r.verified_purchase, r.created_at
		FROM product_reviews r LEFT JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1 ORDER BY r.created_at DESC LIMIT $2`, pid, limit)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var (
			r  Review
			id uuid.UUID
		)
		if err := rows.Scan(&id, &r.Author, &r.Rating, &r.Comment, &r.VerifiedPurchase, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		r.ID = id.String()
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListFAQs returns active FAQs for a product, or the general FAQs when productID is empty.
func (s PGStore) ListFAQs(ctx context.Context, productID string) ([]FAQ, error) {
	sql := `SELECT question, answer FROM faqs WHERE is_active AND product_id IS NULL AND category_id IS NULL ORDER BY position, created_at DESC`
	var args []any
	if productID != "" {
		pid, err := uuid.Parse(productID)
		if err != nil {
			return nil, ErrNotFound
		}
		sql = `SELECT f.question, f.answer FROM faqs f
			WHERE f.is_active AND (f.product_id = $1 OR f.category_id = (SELECT category_id FROM products WHERE id = $1))
			ORDER BY f.position, f.created_at DESC`
		args = append(args, pid)
	}
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	defer rows.Close()

	var out []FAQ
	for rows.Next() {
		var f FAQ
		if err := rows.Scan(&f.Question, &f.Answer); err != nil {
			return nil, fmt.Errorf("scan faq: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListBrands returns distinct brands of available products.
func (s PGStore) ListBrands(ctx context.Context) ([]Brand, error) {
	rows, err := s.DB.Query(ctx, `SELECT brand, count(*) FROM products WHERE is_available GROUP BY brand ORDER BY brand`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var out []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.Name, &b.ProductCount); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
