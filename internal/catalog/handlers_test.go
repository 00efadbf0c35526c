package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pcnexus-api/internal/catalog"
)

type emptyStore struct{}

func (emptyStore) ListCategories(context.Context, int) ([]catalog.Category, error) {
	return nil, nil
}
func (emptyStore) GetCategory(context.Context, string) (catalog.Category, error) {
	return catalog.Category{}, catalog.ErrNotFound
}
func (emptyStore) ListProducts(context.Context, catalog.Filter) ([]catalog.Product, error) {
	return nil, nil
}
func (emptyStore) CountProducts(context.Context, catalog.Filter) (int64, error) { return 0, nil }
func (emptyStore) GetProductBySlug(context.Context, string) (catalog.Product, error) {
	return catalog.Product{}, catalog.ErrNotFound
}
func (emptyStore) GetProductByID(context.Context, string) (catalog.Product, error) {
	return catalog.Product{}, catalog.ErrNotFound
}
func (emptyStore) ListReviews(context.Context, string, int) ([]catalog.Review, error) {
	return nil, nil
}
func (emptyStore) ListFAQs(context.Context, string) ([]catalog.FAQ, error) {
	return nil, nil
}
func (emptyStore) ListBrands(context.Context) ([]catalog.Brand, error) {
	return nil, nil
}

func TestCatalogHandlers(t *testing.T) {
	svc, err := catalog.NewService(catalog.ServiceConfig{Store: emptyStore{}})
	require.NoError(t, err)
	h := catalog.NewHandler(catalog.HandlerConfig{Service: svc})

	r := chi.NewRouter()
	r.Get("/products", h.Products)
	r.Get("/products/{slug}", h.ProductDetail)
	r.Get("/categories", h.Categories)
	r.Get("/categories/{slug}", h.CategoryDetail)

	t.Run("empty list renders pagination", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?page=2", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "0", rec.Header().Get("X-Total-Count"))

		var body struct {
			Data       []catalog.ProductCard `json:"data"`
			Pagination struct {
				Page    int `json:"page"`
				PerPage int `json:"per_page"`
			} `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Empty(t, body.Data)
		require.Equal(t, 2, body.Pagination.Page)
		require.Equal(t, 12, body.Pagination.PerPage)
	})

	t.Run("bad query is a validation error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?stock=lots", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("missing product and category", func(t *testing.T) {
		for _, path := range []string{"/products/nope", "/categories/nope"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			require.Equal(t, http.StatusNotFound, rec.Code, path)
		}
	})

	t.Run("categories is never null", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories", nil))
		require.JSONEq(t, `{"data":[]}`, rec.Body.String())
	})
}
