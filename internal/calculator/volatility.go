package calculator

import (
	"math"

	"CryptoSentinel/internal/model"

	"gonum.org/v1/gonum/stat"
)

// Volatility returns the population standard deviation of raw prices.
// Series shorter than two points have zero volatility.
func Volatility(series []model.PricePoint) float64 {
	if len(series) < 2 {
		return 0
	}
	variance := stat.PopVariance(model.Prices(series), nil)
	if variance <= 0 || math.IsNaN(variance) {
		return 0
	}
	return math.Sqrt(variance)
}
