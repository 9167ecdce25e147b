package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"time"

	"CryptoSentinel/internal/model"
)

var (
	// ErrNoData is returned when a provider answers with an empty series or list.
	ErrNoData = errors.New("no market data returned")
	// ErrNotFound is returned when the provider does not know the asset.
	ErrNotFound = errors.New("asset not found")
)

// Provider defines the interface for fetching crypto market data.
type Provider interface {
	// Markets returns the top assets by market cap.
	Markets(ctx context.Context, vsCurrency string, limit int) ([]model.Quote, error)
	// SpotPrice returns the current price and 24h change of one asset.
	SpotPrice(ctx context.Context, assetID string) (model.Quote, error)
	// HistoricalDaily returns daily closes, ascending, one point per day.
	HistoricalDaily(ctx context.Context, assetID string, days int) ([]model.PricePoint, error)
	Name() string
}

// newHTTPClient builds a client with optional proxy support.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// normalizeDaily sorts points chronologically and keeps the latest point
// of each UTC day, dropping non-positive prices.
func normalizeDaily(points []model.PricePoint) []model.PricePoint {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })

	out := make([]model.PricePoint, 0, len(points))
	for _, p := range points {
		if p.Price <= 0 {
			continue
		}
		if n := len(out); n > 0 && sameDay(out[n-1].Timestamp, p.Timestamp) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// trimDays keeps the most recent n points.
func trimDays(points []model.PricePoint, n int) []model.PricePoint {
	if n > 0 && len(points) > n {
		return points[len(points)-n:]
	}
	return points
}
