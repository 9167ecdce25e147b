package calculator

import (
	"errors"
	"math"

	"CryptoSentinel/internal/model"

	"gonum.org/v1/gonum/floats"
)

// PriceRange scans the series and returns its highest and lowest price.
func PriceRange(series []model.PricePoint) (high, low float64, err error) {
	if len(series) == 0 {
		return 0, 0, errors.New("no price points provided")
	}
	high, low = extremes(model.Prices(series))
	return high, low, nil
}

// PotentialProfit maps a 24h percent change onto the 1..20 profit hint shown on the board.
func PotentialProfit(change24h float64) float64 {
	return math.Min(math.Max(change24h*3, 1), 20)
}

// extremes panics on an empty slice, like floats.Max.
func extremes(prices []float64) (high, low float64) {
	return floats.Max(prices), floats.Min(prices)
}
