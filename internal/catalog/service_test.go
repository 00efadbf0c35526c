package catalog

import (
	"context"
	"net/url"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pcnexus-api/internal/cache"
	"github.com/noah-isme/pcnexus-api/internal/common"
)

func newTestService(t *testing.T, store Store, c *cache.JSON) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{Store: store, Cache: c, Logger: zerolog.Nop(), DefaultLimit: 12, MaxLimit: 50})
	require.NoError(t, err)
	return svc
}

func names(cards []ProductCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Name)
	}
	return out
}

func TestParseListParams(t *testing.T) {
	svc := newTestService(t, seedStore(), nil)

	params, err := svc.ParseListParams(url.Values{"page": {"3"}, "limit": {"500"}, "sort": {"bogus"}, "min_price": {"1000"}})
	require.NoError(t, err)
	require.Equal(t, 3, params.Page)
	require.Equal(t, 50, params.Limit)
	require.Equal(t, 100, params.Offset)
	require.Equal(t, SortNewest, params.Sort)
	require.Equal(t, "1000", params.MinPrice.String())

	for _, bad := range []url.Values{
		{"page": {"0"}},
		{"limit": {"x"}},
		{"min_price": {"-1"}},
		{"min_price": {"500"}, "max_price": {"100"}},
		{"stock": {"plenty"}},
	} {
		_, err := svc.ParseListParams(bad)
		require.True(t, common.IsAppError(err), "%v", bad)
	}
}

func TestListProductsFilters(t *testing.T) {
	svc := newTestService(t, seedStore(), nil)
	ctx := context.Background()

	list := func(v url.Values) []string {
		params, err := svc.ParseListParams(v)
		require.NoError(t, err)
		page, err := svc.ListProducts(ctx, params)
		require.NoError(t, err)
		return names(page.Items)
	}

	require.Equal(t, []string{"Ryzen 7 7800X3D", "Core i5 14600K", "Celeron G6900", "RTX 4070 Super"}, list(url.Values{}))
	require.Equal(t, []string{"Core i5 14600K", "Celeron G6900"}, list(url.Values{"brand": {"intel"}}))
	require.Equal(t, []string{"Core i5 14600K"}, list(url.Values{"stock": {"low_stock"}}))
	require.Equal(t, []string{"Celeron G6900", "Core i5 14600K", "Ryzen 7 7800X3D", "RTX 4070 Super"}, list(url.Values{"sort": {"price_low"}}))
	require.Equal(t, []string{"Core i5 14600K", "Ryzen 7 7800X3D"}, list(url.Values{"min_price": {"10000"}, "max_price": {"60000"}, "sort": {"price_low"}}))
	require.Equal(t, []string{"Ryzen 7 7800X3D"}, list(url.Values{"q": {"x3d"}}))
	require.Equal(t, []string{"RTX 4070 Super"}, list(url.Values{"category": {"graphics-cards"}}))
}

func TestDeals(t *testing.T) {
	svc := newTestService(t, seedStore(), nil)
	params, err := svc.ParseListParams(url.Values{})
	require.NoError(t, err)
	page, err := svc.Deals(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, []string{"Ryzen 7 7800X3D"}, names(page.Items))
	require.EqualValues(t, 1, page.Total)
}

func TestProductDetailIncludesRelatedAndCaches(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := seedStore()
	svc := newTestService(t, store, cache.New(client, "catalog", time.Minute))
	ctx := context.Background()

	detail, err := svc.ProductDetail(ctx, "ryzen-7-7800x3d")
	require.NoError(t, err)
	require.Equal(t, "46800", detail.CurrentPrice.String())
	require.Equal(t, []string{"Core i5 14600K", "Celeron G6900"}, names(detail.Related))
	require.Len(t, detail.Reviews, 1)
	calls := store.calls

	again, err := svc.ProductDetail(ctx, "ryzen-7-7800x3d")
	require.NoError(t, err)
	require.Equal(t, calls, store.calls)
	require.Equal(t, detail.Name, again.Name)

	_, err = svc.ProductDetail(ctx, "gtx-1050")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHome(t *testing.T) {
	svc := newTestService(t, seedStore(), nil)
	home, err := svc.Home(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Ryzen 7 7800X3D"}, names(home.Featured))
	require.Equal(t, []string{"Core i5 14600K"}, names(home.BestSellers))
	require.Equal(t, []string{"RTX 4070 Super"}, names(home.NewArrivals))
	require.Len(t, home.Categories, 2)
}

func TestProductForCart(t *testing.T) {
	store := seedStore()
	svc := newTestService(t, store, nil)

	p, err := svc.ProductForCart(context.Background(), store.products[0].ID)
	require.NoError(t, err)
	require.Equal(t, "Ryzen 7 7800X3D", p.Name)

	_, err = svc.ProductForCart(context.Background(), store.products[4].ID)
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = svc.ProductForCart(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProductsByIDKeepsOrderAndSkipsUnavailable(t *testing.T) {
	store := seedStore()
	svc := newTestService(t, store, nil)
	ids := []string{store.products[3].ID, store.products[4].ID, store.products[0].ID, "missing"}

	cards, err := svc.ProductsByID(context.Background(), ids)
	require.NoError(t, err)
	require.Equal(t, []string{"RTX 4070 Super", "Ryzen 7 7800X3D"}, names(cards))

	cards, err = svc.ProductsByID(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, cards)
}
