package calculator

import (
	"CryptoSentinel/internal/model"

	"gonum.org/v1/gonum/stat"
)

// MovingAverage returns the mean of the trailing period prices. When the
// series is shorter than period it averages everything available.
// The series must not be empty.
func MovingAverage(series []model.PricePoint, period int) float64 {
	if period < 1 {
		period = 1
	}
	start := len(series) - period
	if start < 0 {
		start = 0
	}
	window := model.Prices(series[start:])
	avg := stat.Mean(window, nil)

	// keep rounding residue inside the window's range
	high, low := extremes(window)
	if avg > high {
		return high
	}
	if avg < low {
		return low
	}
	return avg
}

// MovingAverage7d and MovingAverage30d are the windows shown next to the chart.
func MovingAverage7d(series []model.PricePoint) float64 { return MovingAverage(series, 7) }

func MovingAverage30d(series []model.PricePoint) float64 { return MovingAverage(series, 30) }
