package collector

import (
	"context"
	"log"
	"time"

	"CandleScope/internal/cache"
	"CandleScope/internal/metrics"
)

// CachedFetcher serves chart payloads from a cache before asking the wrapped fetcher.
type CachedFetcher struct {
	Fetcher Fetcher
	Cache   cache.Cache
	TTL     time.Duration
	Metrics *metrics.Metrics
}

// NewCachedFetcher wraps f with c.
func NewCachedFetcher(f Fetcher, c cache.Cache, ttl time.Duration, m *metrics.Metrics) *CachedFetcher {
	return &CachedFetcher{Fetcher: f, Cache: c, TTL: ttl, Metrics: m}
}

func (f *CachedFetcher) Name() string { return f.Fetcher.Name() }

func (f *CachedFetcher) FetchChart(ctx context.Context, q ChartQuery) ([]byte, error) {
	key := f.Fetcher.Name() + ":" + q.Key()
	if raw, ok, err := f.Cache.Get(ctx, key); err != nil {
		log.Printf("[WARN] cache get %s: %v", key, err)
	} else if ok {
		f.Metrics.CacheHit()
		return raw, nil
	}

	raw, err := f.Fetcher.FetchChart(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := f.Cache.Set(ctx, key, raw, f.TTL); err != nil {
		log.Printf("[WARN] cache set %s: %v", key, err)
	}
	return raw, nil
}
