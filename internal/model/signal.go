package model

import "time"

// Label is the discrete trading posture.
type Label string

const (
	LabelBuy  Label = "Buy"
	LabelSell Label = "Sell"
	LabelHold Label = "Hold"
)

// Mode indicates which input variant produced a recommendation.
type Mode string

const (
	ModeForecast Mode = "forecast" // current price vs predicted horizon price
	ModeMomentum Mode = "momentum" // 24h percent change only
	ModeNone     Mode = "none"     // nothing usable
)

// Recommendation is the output of the strategy engine.
type Recommendation struct {
	Label Label `json:"label"`
	Score int   `json:"score"`
	Mode  Mode  `json:"mode"`
}

// Degenerate reports whether the recommendation carries no information.
func (r Recommendation) Degenerate() bool {
	return r.Mode == ModeNone
}

// SeriesStats summarises a historical series.
type SeriesStats struct {
	MA7        float64 `json:"ma_7d"`
	MA30       float64 `json:"ma_30d"`
	Volatility float64 `json:"volatility"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
}

// AssetAnalysis is the per-asset pipeline result.
type AssetAnalysis struct {
	Quote           Quote            `json:"quote"`
	History         []PricePoint     `json:"history,omitempty"`
	Stats           *SeriesStats     `json:"stats,omitempty"`
	Prediction      []PredictedPoint `json:"prediction"`
	PredictedPrice  *float64         `json:"predicted_price,omitempty"`
	Recommendation  Recommendation   `json:"recommendation"`
	PotentialProfit float64          `json:"potential_profit"`
	HistoryErr      string           `json:"history_error,omitempty"`
}

// BoardSnapshot is one analysed top-N market board.
type BoardSnapshot struct {
	ID          string          `json:"id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Provider    string          `json:"provider"`
	Assets      []AssetAnalysis `json:"assets"`
	// Partial marks a board whose collection was cancelled midway. Assets
	// analysed after the cancellation carry a momentum or neutral fallback.
	Partial bool `json:"partial,omitempty"`
}

// Count returns how many assets carry the given label.
func (s *BoardSnapshot) Count(label Label) int {
	n := 0
	for _, a := range s.Assets {
		if a.Recommendation.Label == label {
			n++
		}
	}
	return n
}
