package display

import (
	"math"
	"testing"

	"CryptoSentinel/internal/model"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.00123456, "$0.001235"},
		{0.5, "$0.500000"},
		{1, "$1.00"},
		{999.999, "$1,000.00"},
		{64000.5, "$64,000.50"},
		{1234567.891, "$1,234,567.89"},
		{math.NaN(), NotAvailable},
		{math.Inf(1), NotAvailable},
	}
	for _, tt := range tests {
		if got := Price(tt.in); got != tt.want {
			t.Errorf("Price(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2.345, "+2.35%"},
		{0, "+0.00%"},
		{-1.5, "-1.50%"},
		{-0.001, "+0.00%"},
		{12, "+12.00%"},
	}
	for _, tt := range tests {
		if got := Percent(tt.in); got != tt.want {
			t.Errorf("Percent(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNotAvailable(t *testing.T) {
	if got := OptionalPrice(nil); got != NotAvailable {
		t.Errorf("OptionalPrice(nil) = %q", got)
	}
	if got := OptionalPercent(nil); got != NotAvailable {
		t.Errorf("OptionalPercent(nil) = %q", got)
	}
	if got := PredictedPrice(nil); got != NotAvailable {
		t.Errorf("PredictedPrice(nil) = %q", got)
	}
	if got := Recommendation(model.Recommendation{Label: model.LabelHold, Score: 50, Mode: model.ModeNone}); got != NotAvailable {
		t.Errorf("degenerate recommendation = %q", got)
	}
	if got := Recommendation(model.Recommendation{Label: model.LabelBuy, Score: 90, Mode: model.ModeForecast}); got != "Buy (90)" {
		t.Errorf("Recommendation = %q", got)
	}
}

func TestGroup(t *testing.T) {
	tests := map[string]string{
		"1.00":      "1.00",
		"100.00":    "100.00",
		"1000.00":   "1,000.00",
		"123456.78": "123,456.78",
		"-12345.00": "-12,345.00",
		"1234567":   "1,234,567",
	}
	for in, want := range tests {
		if got := group(in); got != want {
			t.Errorf("group(%q) = %q, want %q", in, got, want)
		}
	}
}
