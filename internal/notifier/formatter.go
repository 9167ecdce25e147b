package notifier

import (
	"fmt"
	"html"
	"strings"

	"CryptoSentinel/internal/display"
	"CryptoSentinel/internal/model"
)

const maxDigestRows = 20

func labelIcon(l model.Label) string {
	switch l {
	case model.LabelBuy:
		return "🟢"
	case model.LabelSell:
		return "🔴"
	default:
		return "⚪"
	}
}

// FormatBoardDigest formats the board summary sent after each refresh.
func FormatBoardDigest(snap *model.BoardSnapshot) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>CryptoSentinel board</b> | %s\n", snap.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")))
	b.WriteString(fmt.Sprintf("Provider: %s | Assets: %d\n", html.EscapeString(snap.Provider), len(snap.Assets)))
	b.WriteString(fmt.Sprintf("🟢 Buy %d | 🔴 Sell %d | ⚪ Hold %d\n\n",
		snap.Count(model.LabelBuy), snap.Count(model.LabelSell), snap.Count(model.LabelHold)))

	writeRows(&b, snap.Assets)
	return b.String()
}

// FormatAssetList formats a titled subset of the board, e.g. only Buy signals.
func FormatAssetList(title string, assets []model.AssetAnalysis) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>%s</b> (%d)\n\n", html.EscapeString(title), len(assets)))
	if len(assets) == 0 {
		b.WriteString("Nothing to show.")
		return b.String()
	}
	writeRows(&b, assets)
	return b.String()
}

func writeRows(b *strings.Builder, assets []model.AssetAnalysis) {
	for i, a := range assets {
		if i == maxDigestRows {
			b.WriteString(fmt.Sprintf("… and %d more\n", len(assets)-maxDigestRows))
			break
		}
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s (%s) → %s | %s\n",
			labelIcon(a.Recommendation.Label),
			html.EscapeString(a.Quote.Symbol),
			display.OptionalPrice(a.Quote.CurrentPrice),
			display.OptionalPercent(a.Quote.PriceChange24h),
			display.OptionalPrice(a.PredictedPrice),
			display.Recommendation(a.Recommendation),
		))
	}
}

// FormatAssetDetail formats one analysed asset.
func FormatAssetDetail(a *model.AssetAnalysis) string {
	var b strings.Builder
	q := a.Quote

	b.WriteString(fmt.Sprintf("🪙 <b>%s</b> (%s)\n\n", html.EscapeString(q.Name), html.EscapeString(q.Symbol)))
	b.WriteString(fmt.Sprintf("Current price: %s\n", display.OptionalPrice(q.CurrentPrice)))
	b.WriteString(fmt.Sprintf("24h change: %s\n", display.OptionalPercent(q.PriceChange24h)))
	if a.Stats != nil {
		b.WriteString(fmt.Sprintf("MA7: %s | MA30: %s\n", display.Price(a.Stats.MA7), display.Price(a.Stats.MA30)))
		b.WriteString(fmt.Sprintf("Range: %s – %s\n", display.Price(a.Stats.Low), display.Price(a.Stats.High)))
	}
	b.WriteString(fmt.Sprintf("Predicted (%dd): %s\n", len(a.Prediction), display.PredictedPrice(a.Prediction)))
	b.WriteString(fmt.Sprintf("Recommendation: %s %s\n", labelIcon(a.Recommendation.Label), display.Recommendation(a.Recommendation)))
	if a.PotentialProfit > 0 {
		b.WriteString(fmt.Sprintf("Potential profit: %.1f%%\n", a.PotentialProfit))
	}
	if a.HistoryErr != "" {
		b.WriteString(fmt.Sprintf("\n⚠️ History unavailable: %s\n", html.EscapeString(a.HistoryErr)))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /board - latest board\n" +
		"• /buy - Buy signals\n" +
		"• /sell - Sell signals\n" +
		"• /coin &lt;id&gt; - live analysis of one asset\n" +
		"• /refresh - refresh the board now"
}
