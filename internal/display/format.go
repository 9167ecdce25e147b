package display

import (
	"fmt"
	"math"
	"strings"

	"CryptoSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// NotAvailable is rendered wherever a value is absent or carries no information.
const NotAvailable = "N/A"

// Price renders a USD price. Sub-dollar prices keep six decimals so that
// small-cap coins stay readable; everything else gets two decimals and
// thousands separators.
func Price(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return NotAvailable
	}
	d := decimal.NewFromFloat(p)
	if d.Abs().LessThan(decimal.NewFromInt(1)) {
		return "$" + d.StringFixed(6)
	}
	return "$" + group(d.StringFixed(2))
}

// OptionalPrice renders p, or N/A when p is nil.
func OptionalPrice(p *float64) string {
	if p == nil {
		return NotAvailable
	}
	return Price(*p)
}

// Percent renders a signed percentage with two decimals, e.g. "+2.35%".
func Percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.Sign() >= 0 {
		sign = "+"
	}
	return sign + d.StringFixed(2) + "%"
}

// OptionalPercent renders v, or N/A when v is nil.
func OptionalPercent(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return Percent(*v)
}

// Recommendation renders "Buy (90)", or N/A when nothing informed it.
func Recommendation(r model.Recommendation) string {
	if r.Degenerate() {
		return NotAvailable
	}
	return fmt.Sprintf("%s (%d)", r.Label, r.Score)
}

// PredictedPrice renders the horizon-end price of a projection.
func PredictedPrice(points []model.PredictedPoint) string {
	if len(points) == 0 {
		return NotAvailable
	}
	return Price(points[len(points)-1].Price)
}

// group inserts thousands separators into a fixed-point decimal string.
func group(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
