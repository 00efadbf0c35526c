package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pcnexus-api/internal/cache"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestJSONRoundTripAndTTL(t *testing.T) {
	mr, client := newClient(t)
	c := cache.New(client, "catalog", time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "home", payload{Name: "home", Count: 8}))
	require.True(t, mr.Exists("catalog:home"))

	var got payload
	hit, err := c.Get(ctx, "home", &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, payload{Name: "home", Count: 8}, got)

	mr.FastForward(2 * time.Minute)
	hit, err = c.Get(ctx, "home", &got)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestLoadFillsOnce(t *testing.T) {
	_, client := newClient(t)
	c := cache.New(client, "catalog", time.Minute)
	calls := 0
	fill := func(context.Context) (payload, error) {
		calls++
		return payload{Name: "brands", Count: calls}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := cache.Load(context.Background(), c, "brands", nil, fill)
		require.NoError(t, err)
		require.Equal(t, 1, v.Count)
	}
	require.Equal(t, 1, calls)
}

func TestLoadPropagatesFillError(t *testing.T) {
	_, client := newClient(t)
	c := cache.New(client, "catalog", time.Minute)
	_, err := cache.Load(context.Background(), c, "x", nil, func(context.Context) (int, error) {
		return 0, errors.New("db down")
	})
	require.EqualError(t, err, "db down")
}

func TestFlushRemovesPrefixOnly(t *testing.T) {
	mr, client := newClient(t)
	ctx := context.Background()
	c := cache.New(client, "location", time.Minute)
	require.NoError(t, c.Set(ctx, "a", 1))
	require.NoError(t, c.Set(ctx, "b", 2))
	require.NoError(t, mr.Set("other:key", "x"))

	require.NoError(t, c.Flush(ctx))
	require.False(t, mr.Exists("location:a"))
	require.False(t, mr.Exists("location:b"))
	require.True(t, mr.Exists("other:key"))
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *cache.JSON
	var dst payload
	hit, err := c.Get(context.Background(), "k", &dst)
	require.NoError(t, err)
	require.False(t, hit)
	require.NoError(t, c.Set(context.Background(), "k", dst))
}
