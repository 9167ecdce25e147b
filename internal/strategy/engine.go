package strategy

import (
	"math"

	"CryptoSentinel/internal/model"
)

const (
	BuyThreshold  = 1.05 // predicted / current above this is a buy
	SellThreshold = 0.95 // predicted / current below this is a sell
	HoldBand      = 0.01 // relative distance that tilts a hold score

	ScoreBuy      = 90
	ScoreSell     = 10
	ScoreHoldUp   = 70
	ScoreHoldDown = 30
	ScoreNeutral  = 50
)

type momentumTier struct {
	above bool // true: change > bound, false: change < bound
	bound float64
	label model.Label
	score int
}

// momentumTiers maps a 24h percent change to a label and score, checked in order.
var momentumTiers = [...]momentumTier{
	{true, 5, model.LabelBuy, 75},
	{true, 2, model.LabelBuy, 65},
	{false, -5, model.LabelSell, 25},
	{false, -2, model.LabelSell, 35},
}

// Input is the discriminated input of the engine. Build it with
// Forecast, Momentum, None or SelectInput.
type Input struct {
	Mode           model.Mode
	CurrentPrice   float64
	PredictedPrice float64
	Change24h      float64
}

// Forecast compares the current price with the predicted horizon price.
func Forecast(current, predicted float64) Input {
	return Input{Mode: model.ModeForecast, CurrentPrice: current, PredictedPrice: predicted}
}

// Momentum falls back to the 24h percent change.
func Momentum(change24h float64) Input {
	return Input{Mode: model.ModeMomentum, Change24h: change24h}
}

// None carries no usable signal.
func None() Input {
	return Input{Mode: model.ModeNone}
}

// SelectInput picks the richest mode the available data supports.
func SelectInput(q model.Quote, predicted *float64) Input {
	switch {
	case predicted != nil && q.CurrentPrice != nil:
		return Forecast(*q.CurrentPrice, *predicted)
	case q.PriceChange24h != nil:
		return Momentum(*q.PriceChange24h)
	default:
		return None()
	}
}

// Evaluate computes the recommendation for in. It never fails: inputs it
// cannot use produce a neutral Hold.
func Evaluate(in Input) model.Recommendation {
	switch in.Mode {
	case model.ModeForecast:
		return evaluateForecast(in.CurrentPrice, in.PredictedPrice)
	case model.ModeMomentum:
		return evaluateMomentum(in.Change24h)
	default:
		return neutral()
	}
}

// Recommend evaluates a current price with an optional predicted price and
// 24h change. Without a predicted price it falls back to momentum on the
// change, and without either it returns the neutral Hold.
func Recommend(current float64, predicted, change24h *float64) model.Recommendation {
	return Evaluate(SelectInput(model.Quote{CurrentPrice: &current, PriceChange24h: change24h}, predicted))
}

func evaluateForecast(current, predicted float64) model.Recommendation {
	if !finite(current) || !finite(predicted) || current <= 0 {
		return neutral()
	}

	rec := model.Recommendation{Mode: model.ModeForecast}
	switch {
	case predicted > current*BuyThreshold:
		rec.Label, rec.Score = model.LabelBuy, ScoreBuy
	case predicted < current*SellThreshold:
		rec.Label, rec.Score = model.LabelSell, ScoreSell
	default:
		rec.Label = model.LabelHold
		diff := (predicted - current) / current
		switch {
		case diff >= HoldBand:
			rec.Score = ScoreHoldUp
		case diff <= -HoldBand:
			rec.Score = ScoreHoldDown
		default:
			rec.Score = ScoreNeutral
		}
	}
	return rec
}

func evaluateMomentum(change float64) model.Recommendation {
	if !finite(change) {
		return neutral()
	}
	for _, t := range momentumTiers {
		if (t.above && change > t.bound) || (!t.above && change < t.bound) {
			return model.Recommendation{Label: t.label, Score: t.score, Mode: model.ModeMomentum}
		}
	}
	return model.Recommendation{Label: model.LabelHold, Score: ScoreNeutral, Mode: model.ModeMomentum}
}

func neutral() model.Recommendation {
	return model.Recommendation{Label: model.LabelHold, Score: ScoreNeutral, Mode: model.ModeNone}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
