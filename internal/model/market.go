package model

import "time"

// PricePoint is a single daily close.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// PredictedPoint is a projected daily price produced by the predictor.
type PredictedPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Price       float64   `json:"price"`
	IsPredicted bool      `json:"is_predicted"`
}

// Quote holds spot market data for one asset. Optional attributes are
// nil when the provider did not report them.
type Quote struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Name           string    `json:"name"`
	CurrentPrice   *float64  `json:"current_price,omitempty"`
	PriceChange24h *float64  `json:"price_change_24h,omitempty"`
	MarketCap      *float64  `json:"market_cap,omitempty"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// Price returns the current price, or 0 when unknown.
func (q Quote) Price() float64 {
	if q.CurrentPrice == nil {
		return 0
	}
	return *q.CurrentPrice
}

// Float returns a pointer to v, for filling optional fields.
func Float(v float64) *float64 {
	return &v
}

// Prices extracts the raw price values of a series.
func Prices(series []PricePoint) []float64 {
	prices := make([]float64, len(series))
	for i, p := range series {
		prices[i] = p.Price
	}
	return prices
}
