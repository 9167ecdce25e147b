package strategy

import (
	"math"
	"testing"

	"CryptoSentinel/internal/model"
)

func TestRecommend_Forecast(t *testing.T) {
	tests := []struct {
		current, predicted float64
		label              model.Label
		score              int
	}{
		{100, 106, model.LabelBuy, 90},
		{100, 94, model.LabelSell, 10},
		{100, 101, model.LabelHold, 70},
		{100, 99, model.LabelHold, 30},
		{100, 100, model.LabelHold, 50},
		{100, 105, model.LabelHold, 70},
		{100, 95, model.LabelHold, 30},
		{100, 100.5, model.LabelHold, 50},
		{0.002, 0.003, model.LabelBuy, 90},
	}
	for _, tt := range tests {
		got := Recommend(tt.current, &tt.predicted, nil)
		if got.Label != tt.label || got.Score != tt.score {
			t.Errorf("Recommend(%v, %v) = %s/%d, want %s/%d",
				tt.current, tt.predicted, got.Label, got.Score, tt.label, tt.score)
		}
		if got.Mode != model.ModeForecast {
			t.Errorf("Recommend(%v, %v) mode = %s, want forecast", tt.current, tt.predicted, got.Mode)
		}
	}
}

func TestRecommend_Degenerate(t *testing.T) {
	p := 120.0
	tests := []struct {
		name      string
		current   float64
		predicted *float64
	}{
		{"no prediction", 100, nil},
		{"zero current", 0, &p},
		{"negative current", -5, &p},
		{"NaN current", math.NaN(), &p},
	}
	for _, tt := range tests {
		got := Recommend(tt.current, tt.predicted, nil)
		if got.Label != model.LabelHold || got.Score != 50 {
			t.Errorf("%s: got %s/%d, want Hold/50", tt.name, got.Label, got.Score)
		}
		if !got.Degenerate() {
			t.Errorf("%s: expected degenerate mode, got %s", tt.name, got.Mode)
		}
	}
}

func TestRecommend_MomentumFallback(t *testing.T) {
	tests := []struct {
		change float64
		label  model.Label
		score  int
	}{
		{6, model.LabelBuy, 75},
		{-6, model.LabelSell, 25},
		{0, model.LabelHold, 50},
	}
	for _, tt := range tests {
		got := Recommend(100, nil, &tt.change)
		if got.Label != tt.label || got.Score != tt.score || got.Mode != model.ModeMomentum {
			t.Errorf("Recommend(100, nil, %v) = %s/%d (%s), want %s/%d momentum",
				tt.change, got.Label, got.Score, got.Mode, tt.label, tt.score)
		}
	}

	// a prediction takes precedence over the change
	p, c := 100.0, 6.0
	if got := Recommend(100, &p, &c); got.Mode != model.ModeForecast || got.Score != 50 {
		t.Errorf("Recommend(100, 100, 6) = %s/%d (%s), want forecast Hold/50", got.Label, got.Score, got.Mode)
	}
}

func TestEvaluate_MomentumStaysInRange(t *testing.T) {
	for change := -50.0; change <= 50; change += 0.25 {
		got := Evaluate(Momentum(change))
		switch got.Label {
		case model.LabelBuy, model.LabelSell, model.LabelHold:
		default:
			t.Fatalf("change %v: label %q outside Buy/Sell/Hold", change, got.Label)
		}
		if got.Score < 0 || got.Score > 100 {
			t.Fatalf("change %v: score %d outside [0,100]", change, got.Score)
		}
	}
}

func TestEvaluate_Momentum(t *testing.T) {
	tests := []struct {
		change float64
		label  model.Label
		score  int
	}{
		{6, model.LabelBuy, 75},
		{5.01, model.LabelBuy, 75},
		{5, model.LabelBuy, 65},
		{3, model.LabelBuy, 65},
		{2, model.LabelHold, 50},
		{0, model.LabelHold, 50},
		{-2, model.LabelHold, 50},
		{-3, model.LabelSell, 35},
		{-5, model.LabelSell, 35},
		{-6, model.LabelSell, 25},
	}
	for _, tt := range tests {
		got := Evaluate(Momentum(tt.change))
		if got.Label != tt.label || got.Score != tt.score {
			t.Errorf("Momentum(%v) = %s/%d, want %s/%d", tt.change, got.Label, got.Score, tt.label, tt.score)
		}
	}
}

func TestSelectInput(t *testing.T) {
	predicted := 106.0
	full := model.Quote{CurrentPrice: model.Float(100), PriceChange24h: model.Float(-6)}
	changeOnly := model.Quote{CurrentPrice: model.Float(100), PriceChange24h: model.Float(6)}
	bare := model.Quote{ID: "unknown"}

	tests := []struct {
		name      string
		quote     model.Quote
		predicted *float64
		mode      model.Mode
		label     model.Label
		score     int
	}{
		{"forecast wins over momentum", full, &predicted, model.ModeForecast, model.LabelBuy, 90},
		{"momentum fallback", changeOnly, nil, model.ModeMomentum, model.LabelBuy, 75},
		{"momentum sell", full, nil, model.ModeMomentum, model.LabelSell, 25},
		{"nothing available", bare, nil, model.ModeNone, model.LabelHold, 50},
		{"prediction without price", model.Quote{PriceChange24h: model.Float(0)}, &predicted, model.ModeMomentum, model.LabelHold, 50},
	}
	for _, tt := range tests {
		in := SelectInput(tt.quote, tt.predicted)
		if in.Mode != tt.mode {
			t.Errorf("%s: mode = %s, want %s", tt.name, in.Mode, tt.mode)
		}
		got := Evaluate(in)
		if got.Label != tt.label || got.Score != tt.score {
			t.Errorf("%s: got %s/%d, want %s/%d", tt.name, got.Label, got.Score, tt.label, tt.score)
		}
	}
}

func TestEvaluate_LabelsAndScoresBounded(t *testing.T) {
	inputs := []Input{None(), Momentum(math.Inf(1)), Momentum(math.NaN()), Forecast(1, math.Inf(-1))}
	for c := -50.0; c <= 50; c += 0.5 {
		inputs = append(inputs, Momentum(c), Forecast(100, 100+c))
	}
	for _, in := range inputs {
		got := Evaluate(in)
		switch got.Label {
		case model.LabelBuy, model.LabelSell, model.LabelHold:
		default:
			t.Fatalf("unexpected label %q for %+v", got.Label, in)
		}
		if got.Score < 0 || got.Score > 100 {
			t.Fatalf("score %d out of range for %+v", got.Score, in)
		}
	}
}
