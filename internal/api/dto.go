package api

import (
	"time"

	"CryptoSentinel/internal/model"
)

// DetailRequest asks for a live analysis of one asset.
type DetailRequest struct {
	ID      string `param:"id" validate:"required,max=64"`
	Days    int    `query:"days" default:"90" validate:"min=1,max=365"`
	Horizon int    `query:"horizon" default:"30" validate:"min=1,max=90"`
}

// PointInput is one historical close in a predict request.
type PointInput struct {
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Price     float64   `json:"price" validate:"gt=0"`
}

// PredictRequest projects a caller-supplied series.
type PredictRequest struct {
	Series  []PointInput `json:"series" validate:"max=1000,dive"`
	Horizon int          `json:"horizon" default:"30" validate:"min=1,max=90"`
	Seed    *int64       `json:"seed"`
}

// RecommendRequest carries whichever inputs the caller has.
type RecommendRequest struct {
	CurrentPrice   *float64 `json:"current_price"`
	PredictedPrice *float64 `json:"predicted_price"`
	Change24h      *float64 `json:"change_24h"`
}

// BoardResponse is the filtered board view.
type BoardResponse struct {
	SnapshotID  string                `json:"snapshot_id"`
	GeneratedAt time.Time             `json:"generated_at"`
	Provider    string                `json:"provider"`
	Total       int                   `json:"total"`
	Rows        []model.AssetAnalysis `json:"rows"`
}

// PredictResponse is the projection of a predict request.
type PredictResponse struct {
	Prediction     []model.PredictedPoint `json:"prediction"`
	PredictedPrice *float64               `json:"predicted_price,omitempty"`
	Display        string                 `json:"display"`
}

// RecommendResponse adds rendered text to a recommendation.
type RecommendResponse struct {
	model.Recommendation
	Display string `json:"display"`
}

// RefreshResponse summarises a freshly collected board.
type RefreshResponse struct {
	SnapshotID  string    `json:"snapshot_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Assets      int       `json:"assets"`
	Buy         int       `json:"buy"`
	Sell        int       `json:"sell"`
	Hold        int       `json:"hold"`
}
