package predictor

import (
	"math"
	"math/rand"

	"CryptoSentinel/internal/calculator"
	"CryptoSentinel/internal/model"
)

const (
	DefaultHorizon  = 30
	DefaultMAPeriod = 30
	DefaultDamping  = 0.1
	DefaultFloor    = 1e-8
)

// RandSource supplies uniform draws in [0, 1). *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithDamping scales the volatility-sized perturbation applied each day.
func WithDamping(k float64) Option {
	return func(p *Predictor) {
		if k >= 0 {
			p.damping = k
		}
	}
}

// WithMAPeriod sets the moving-average window used as the base price.
func WithMAPeriod(period int) Option {
	return func(p *Predictor) {
		if period > 0 {
			p.maPeriod = period
		}
	}
}

// WithFloor sets the strictly positive lower bound for projected prices.
func WithFloor(floor float64) Option {
	return func(p *Predictor) {
		if floor > 0 {
			p.floor = floor
		}
	}
}

// Predictor projects a daily price path from a historical series.
// It is not safe for concurrent use unless its RandSource is.
type Predictor struct {
	src      RandSource
	damping  float64
	maPeriod int
	floor    float64
}

// New creates a Predictor drawing perturbations from src.
func New(src RandSource, opts ...Option) *Predictor {
	p := &Predictor{
		src:      src,
		damping:  DefaultDamping,
		maPeriod: DefaultMAPeriod,
		floor:    DefaultFloor,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewSeeded creates a Predictor backed by a math/rand source with the given seed.
func NewSeeded(seed int64, opts ...Option) *Predictor {
	return New(rand.New(rand.NewSource(seed)), opts...)
}

// Predict returns horizonDays projected points following the last
// historical point. An empty series yields an empty result.
//
// The base price is the trailing moving average rather than the last
// close. Day one is the plain average of base and the last real price so
// the projected line joins the history without a jump; later days add a
// damped random fluctuation to base.
func (p *Predictor) Predict(series []model.PricePoint, horizonDays int) []model.PredictedPoint {
	if len(series) == 0 || horizonDays <= 0 {
		return []model.PredictedPoint{}
	}

	base := calculator.MovingAverage(series, p.maPeriod)
	vol := calculator.Volatility(series)
	last := series[len(series)-1]

	out := make([]model.PredictedPoint, horizonDays)
	for i := 1; i <= horizonDays; i++ {
		var price float64
		if i == 1 {
			price = (base + last.Price) / 2
		} else {
			price = base + (2*p.src.Float64()-1)*vol*p.damping
		}
		if math.IsNaN(price) || math.IsInf(price, 0) || price < p.floor {
			price = p.floor
		}

		out[i-1] = model.PredictedPoint{
			Timestamp:   last.Timestamp.AddDate(0, 0, i),
			Price:       price,
			IsPredicted: true,
		}
	}
	return out
}

// FinalPrice returns the price at the end of the projected horizon.
func FinalPrice(points []model.PredictedPoint) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	return points[len(points)-1].Price, true
}
