package location

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pcnexus-api/internal/cache"
	"github.com/noah-isme/pcnexus-api/internal/obs"
	"github.com/noah-isme/pcnexus-api/internal/pricing"
)

// Table implements pricing.RateTable over a Store with a Redis read-through cache.
// Misses are cached too so unknown upazilas do not hit Postgres on every quote.
type Table struct {
	Store  Store
	Cache  *cache.JSON
	Logger zerolog.Logger
}

type cachedRate struct {
	Found bool         `json:"found"`
	Rate  pricing.Rate `json:"rate"`
}

var _ pricing.RateTable = (*Table)(nil)

func rateKey(d pricing.Destination) string {
	n := d.Normalize()
	return "rate:" + strings.Join([]string{n.Division, n.District, n.Upazila}, "|")
}

// Lookup resolves the rate for dest.
func (t *Table) Lookup(ctx context.Context, dest pricing.Destination) (pricing.Rate, bool, error) {
	logErr := func(err error) {
		t.Logger.Warn().Err(err).Str("destination", rateKey(dest)).Msg("rate cache")
	}
	entry, err := cache.Load(ctx, t.Cache, rateKey(dest), logErr, func(ctx context.Context) (cachedRate, error) {
		loc, err := t.Store.Get(ctx, dest)
		if errors.Is(err, ErrNotFound) {
			return cachedRate{}, nil
		}
		if err != nil {
			return cachedRate{}, err
		}
		return cachedRate{Found: true, Rate: loc.Rate()}, nil
	})
	if err != nil {
		return pricing.Rate{}, false, err
	}
	if entry.Found {
		obs.RecordShippingLookup("table")
	} else {
		obs.RecordShippingLookup("default")
	}
	return entry.Rate, entry.Found, nil
}

// Invalidate drops cached entries after the table changes.
func (t *Table) Invalidate(ctx context.Context) {
	if err := t.Cache.Flush(ctx); err != nil {
		t.Logger.Warn().Err(err).Msg("flush rate cache")
	}
}
