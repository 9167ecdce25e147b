package collector

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"CryptoSentinel/internal/model"
)

// MockProvider returns controllable fixed data for development and testing.
// Quotes and History override the generated data; HistoryErr forces a
// history failure for the listed asset ids.
type MockProvider struct {
	Quotes     []model.Quote
	History    map[string][]model.PricePoint
	HistoryErr map[string]error
	Now        time.Time

	mu    sync.Mutex
	calls map[string]int
}

// NewMockProvider returns a provider with a small generated market.
func NewMockProvider() *MockProvider {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	return &MockProvider{
		Quotes: []model.Quote{
			mockQuote("bitcoin", "BTC", "Bitcoin", 64000, 2.4, now),
			mockQuote("ethereum", "ETH", "Ethereum", 3100, -1.2, now),
			mockQuote("solana", "SOL", "Solana", 145, 6.5, now),
			mockQuote("dogecoin", "DOGE", "Dogecoin", 0.12, -5.8, now),
			mockQuote("cardano", "ADA", "Cardano", 0.45, 0.3, now),
		},
		Now: now,
	}
}

func mockQuote(id, symbol, name string, price, change float64, at time.Time) model.Quote {
	return model.Quote{
		ID:             id,
		Symbol:         symbol,
		Name:           name,
		CurrentPrice:   model.Float(price),
		PriceChange24h: model.Float(change),
		MarketCap:      model.Float(price * 1e7),
		FetchedAt:      at,
	}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Markets(_ context.Context, _ string, limit int) ([]model.Quote, error) {
	m.count("markets")
	if len(m.Quotes) == 0 {
		return nil, ErrNoData
	}
	out := m.Quotes
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return append([]model.Quote(nil), out...), nil
}

func (m *MockProvider) SpotPrice(_ context.Context, assetID string) (model.Quote, error) {
	m.count("spot:" + assetID)
	for _, q := range m.Quotes {
		if strings.EqualFold(q.ID, assetID) || strings.EqualFold(q.Symbol, assetID) {
			return q, nil
		}
	}
	return model.Quote{}, fmt.Errorf("mock spot %s: %w", assetID, ErrNotFound)
}

func (m *MockProvider) HistoricalDaily(ctx context.Context, assetID string, days int) ([]model.PricePoint, error) {
	m.count("history:" + assetID)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.HistoryErr[assetID]; ok {
		return nil, err
	}
	if h, ok := m.History[assetID]; ok {
		if len(h) == 0 {
			return nil, fmt.Errorf("mock history %s: %w", assetID, ErrNoData)
		}
		return trimDays(append([]model.PricePoint(nil), h...), days), nil
	}
	q, err := m.SpotPrice(ctx, assetID)
	if err != nil {
		return nil, err
	}
	return generateMockSeries(q.Price(), days, m.Now), nil
}

// Calls reports how many times an operation was served, e.g. "history:bitcoin".
func (m *MockProvider) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MockProvider) count(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[op]++
}

// generateMockSeries draws a gentle deterministic wave ending at basePrice.
func generateMockSeries(basePrice float64, days int, end time.Time) []model.PricePoint {
	if end.IsZero() {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	}
	points := make([]model.PricePoint, days)
	for i := 0; i < days; i++ {
		offset := days - 1 - i
		p := basePrice * (1 + 0.03*math.Sin(float64(offset)/5) - float64(offset)*0.0005)
		if p <= 0 {
			p = basePrice
		}
		points[i] = model.PricePoint{
			Timestamp: end.AddDate(0, 0, -offset),
			Price:     p,
		}
	}
	return points
}
