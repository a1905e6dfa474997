package data

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
)

// CachedSource memoizes a Source by ticker and date. Entries expire after
// ttl and are swept every cleanup interval. Errors are never cached.
type CachedSource struct {
	source Source
	cache  *cache.Cache
}

var _ Source = (*CachedSource)(nil)

func NewCachedSource(source Source, ttl, cleanup time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache.New(ttl, cleanup),
	}
}

// CacheKey creates the composite key for one cached lookup
func CacheKey(kind, ticker string, asOf time.Time, extra ...time.Time) string {
	key := kind + "/" + DataKey(ticker, asOf)
	for _, t := range extra {
		key += "/" + t.Format(DateLayout)
	}
	return key
}

func (c *CachedSource) Name() string { return c.source.Name() }

func (c *CachedSource) FetchContracts(ctx context.Context, ticker string, expiration, asOf time.Time) ([]chain.Contract, error) {
	key := CacheKey("contracts", ticker, asOf, expiration)
	if v, ok := c.cache.Get(key); ok {
		return append([]chain.Contract{}, v.([]chain.Contract)...), nil
	}
	contracts, err := c.source.FetchContracts(ctx, ticker, expiration, asOf)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, append([]chain.Contract{}, contracts...), cache.DefaultExpiration)
	return contracts, nil
}

type cachedPrice struct {
	price *float64
}

func (c *CachedSource) FetchUnderlyingPrice(ctx context.Context, ticker string, asOf time.Time) (*float64, error) {
	key := CacheKey("underlying", ticker, asOf)
	if v, ok := c.cache.Get(key); ok {
		return copyPrice(v.(cachedPrice).price), nil
	}
	price, err := c.source.FetchUnderlyingPrice(ctx, ticker, asOf)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, cachedPrice{price: copyPrice(price)}, cache.DefaultExpiration)
	return price, nil
}

func (c *CachedSource) Expirations(ctx context.Context, ticker string, asOf time.Time) ([]time.Time, error) {
	key := CacheKey("expirations", ticker, asOf)
	if v, ok := c.cache.Get(key); ok {
		return append([]time.Time{}, v.([]time.Time)...), nil
	}
	exps, err := c.source.Expirations(ctx, ticker, asOf)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, append([]time.Time{}, exps...), cache.DefaultExpiration)
	return exps, nil
}

// Flush drops every cached entry.
func (c *CachedSource) Flush() {
	c.cache.Flush()
}

// Len returns the number of cached entries, including expired ones not yet swept.
func (c *CachedSource) Len() int {
	return c.cache.ItemCount()
}

func copyPrice(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
