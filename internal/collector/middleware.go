package collector

import (
	"context"
	"errors"
	"time"

	"CryptoSentinel/internal/cache"
	"CryptoSentinel/internal/logger"
	"CryptoSentinel/internal/model"
)

// Waiter blocks until a request slot for key is available.
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// Metrics receives provider and pipeline observations.
type Metrics interface {
	RecordProviderRequest(provider, op string, err error)
	RecordCacheLookup(op string, hit bool)
	RecordLatency(op string, seconds float64)
}

type nopMetrics struct{}

func (nopMetrics) RecordProviderRequest(string, string, error) {}
func (nopMetrics) RecordCacheLookup(string, bool)              {}
func (nopMetrics) RecordLatency(string, float64)               {}

// RateLimited throttles every call to the wrapped provider through one bucket.
type RateLimited struct {
	next    Provider
	limiter Waiter
}

func NewRateLimited(next Provider, limiter Waiter) *RateLimited {
	return &RateLimited{next: next, limiter: limiter}
}

func (r *RateLimited) Name() string { return r.next.Name() }

func (r *RateLimited) Markets(ctx context.Context, vs string, limit int) ([]model.Quote, error) {
	if err := r.limiter.Wait(ctx, r.next.Name()); err != nil {
		return nil, err
	}
	return r.next.Markets(ctx, vs, limit)
}

func (r *RateLimited) SpotPrice(ctx context.Context, assetID string) (model.Quote, error) {
	if err := r.limiter.Wait(ctx, r.next.Name()); err != nil {
		return model.Quote{}, err
	}
	return r.next.SpotPrice(ctx, assetID)
}

func (r *RateLimited) HistoricalDaily(ctx context.Context, assetID string, days int) ([]model.PricePoint, error) {
	if err := r.limiter.Wait(ctx, r.next.Name()); err != nil {
		return nil, err
	}
	return r.next.HistoricalDaily(ctx, assetID, days)
}

// Instrumented counts provider calls and their outcome.
type Instrumented struct {
	next    Provider
	metrics Metrics
}

func NewInstrumented(next Provider, m Metrics) *Instrumented {
	if m == nil {
		m = nopMetrics{}
	}
	return &Instrumented{next: next, metrics: m}
}

func (i *Instrumented) Name() string { return i.next.Name() }

func (i *Instrumented) Markets(ctx context.Context, vs string, limit int) ([]model.Quote, error) {
	q, err := i.next.Markets(ctx, vs, limit)
	i.metrics.RecordProviderRequest(i.next.Name(), "markets", err)
	return q, err
}

func (i *Instrumented) SpotPrice(ctx context.Context, assetID string) (model.Quote, error) {
	q, err := i.next.SpotPrice(ctx, assetID)
	i.metrics.RecordProviderRequest(i.next.Name(), "spot", err)
	return q, err
}

func (i *Instrumented) HistoricalDaily(ctx context.Context, assetID string, days int) ([]model.PricePoint, error) {
	h, err := i.next.HistoricalDaily(ctx, assetID, days)
	i.metrics.RecordProviderRequest(i.next.Name(), "history", err)
	return h, err
}

// Cached keeps historical series in a cache for ttl. Spot prices and
// market lists always go to the provider.
type Cached struct {
	next    Provider
	cache   cache.Service
	ttl     time.Duration
	log     *logger.Logger
	metrics Metrics
}

func NewCached(next Provider, c cache.Service, ttl time.Duration, log *logger.Logger, m Metrics) *Cached {
	if log == nil {
		log = logger.Nop()
	}
	if m == nil {
		m = nopMetrics{}
	}
	return &Cached{next: next, cache: c, ttl: ttl, log: log, metrics: m}
}

func (c *Cached) Name() string { return c.next.Name() }

func (c *Cached) Markets(ctx context.Context, vs string, limit int) ([]model.Quote, error) {
	return c.next.Markets(ctx, vs, limit)
}

func (c *Cached) SpotPrice(ctx context.Context, assetID string) (model.Quote, error) {
	return c.next.SpotPrice(ctx, assetID)
}

func (c *Cached) HistoricalDaily(ctx context.Context, assetID string, days int) ([]model.PricePoint, error) {
	key := cache.GenerateKey("history", c.next.Name(), assetID, days)

	var points []model.PricePoint
	err := c.cache.Get(ctx, key, &points)
	switch {
	case err == nil && len(points) > 0:
		c.metrics.RecordCacheLookup("history", true)
		return points, nil
	case err != nil && !errors.Is(err, cache.ErrCacheMiss):
		c.log.Warn("history cache read failed", logger.String("key", key), logger.Error(err))
	}
	c.metrics.RecordCacheLookup("history", false)

	points, err = c.next.HistoricalDaily(ctx, assetID, days)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, points, c.ttl); err != nil {
		c.log.Warn("history cache write failed", logger.String("key", key), logger.Error(err))
	}
	return points, nil
}
