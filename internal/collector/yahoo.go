package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"CryptoSentinel/internal/model"
)

const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooAsset maps an asset id onto its Yahoo ticker base.
type YahooAsset struct {
	ID     string
	Symbol string
	Name   string
}

// DefaultYahooAssets is the board universe used when Yahoo is the provider,
// since Yahoo has no market-cap ranking endpoint.
var DefaultYahooAssets = []YahooAsset{
	{"bitcoin", "BTC", "Bitcoin"},
	{"ethereum", "ETH", "Ethereum"},
	{"tether", "USDT", "Tether"},
	{"binancecoin", "BNB", "BNB"},
	{"solana", "SOL", "Solana"},
	{"ripple", "XRP", "XRP"},
	{"usd-coin", "USDC", "USDC"},
	{"dogecoin", "DOGE", "Dogecoin"},
	{"cardano", "ADA", "Cardano"},
	{"tron", "TRX", "TRON"},
	{"avalanche-2", "AVAX", "Avalanche"},
	{"chainlink", "LINK", "Chainlink"},
	{"polkadot", "DOT", "Polkadot"},
	{"litecoin", "LTC", "Litecoin"},
	{"stellar", "XLM", "Stellar"},
}

// YahooProvider implements Provider using the Yahoo Finance chart API.
type YahooProvider struct {
	BaseURL string
	Client  *http.Client
	Assets  []YahooAsset
	now     func() time.Time
}

// NewYahooProvider creates a Yahoo Finance provider with optional proxy support.
func NewYahooProvider(baseURL, proxyURL string, timeout time.Duration) *YahooProvider {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	return &YahooProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newHTTPClient(proxyURL, timeout),
		Assets:  DefaultYahooAssets,
		now:     time.Now,
	}
}

func (f *YahooProvider) Name() string { return "yahoo" }

// lookup resolves an asset id, falling back to treating it as a ticker.
func (f *YahooProvider) lookup(assetID string) YahooAsset {
	for _, a := range f.Assets {
		if strings.EqualFold(a.ID, assetID) || strings.EqualFold(a.Symbol, assetID) {
			return a
		}
	}
	sym := strings.ToUpper(assetID)
	return YahooAsset{ID: assetID, Symbol: sym, Name: sym}
}

func (f *YahooProvider) ticker(a YahooAsset) string {
	return a.Symbol + "-USD"
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (f *YahooProvider) fetchChart(ctx context.Context, a YahooAsset, rng string) ([]model.PricePoint, *float64, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.BaseURL, url.PathEscape(f.ticker(a)), rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil, fmt.Errorf("yahoo %s: %w", a.Symbol, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, nil, fmt.Errorf("yahoo %s: %w", a.Symbol, ErrNoData)
	}

	result := chart.Chart.Result[0]
	var closes []interface{}
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}
	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) {
			break
		}
		c := toFloat(closes[i])
		if c == 0 {
			continue // null bar
		}
		points = append(points, model.PricePoint{Timestamp: time.Unix(ts, 0).UTC(), Price: c})
	}
	return normalizeDaily(points), result.Meta.RegularMarketPrice, nil
}

func yahooRange(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}

func (f *YahooProvider) HistoricalDaily(ctx context.Context, assetID string, days int) ([]model.PricePoint, error) {
	points, _, err := f.fetchChart(ctx, f.lookup(assetID), yahooRange(days))
	if err != nil {
		return nil, err
	}
	points = trimDays(points, days)
	if len(points) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", assetID, ErrNoData)
	}
	return points, nil
}

func (f *YahooProvider) SpotPrice(ctx context.Context, assetID string) (model.Quote, error) {
	a := f.lookup(assetID)
	points, live, err := f.fetchChart(ctx, a, "5d")
	if err != nil {
		return model.Quote{}, err
	}

	q := model.Quote{ID: a.ID, Symbol: a.Symbol, Name: a.Name, FetchedAt: f.now()}
	switch {
	case live != nil && *live > 0:
		q.CurrentPrice = model.Float(*live)
	case len(points) > 0:
		q.CurrentPrice = model.Float(points[len(points)-1].Price)
	}
	if q.CurrentPrice != nil && len(points) >= 2 {
		prev := points[len(points)-2].Price
		q.PriceChange24h = model.Float((*q.CurrentPrice - prev) / prev * 100)
	}
	return q, nil
}

// Markets quotes the configured universe in order. Assets that fail are skipped.
func (f *YahooProvider) Markets(ctx context.Context, _ string, limit int) ([]model.Quote, error) {
	assets := f.Assets
	if limit > 0 && len(assets) > limit {
		assets = assets[:limit]
	}
	quotes := make([]model.Quote, 0, len(assets))
	var lastErr error
	for _, a := range assets {
		q, err := f.SpotPrice(ctx, a.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		quotes = append(quotes, q)
	}
	if len(quotes) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("yahoo markets: %w", lastErr)
		}
		return nil, fmt.Errorf("yahoo markets: %w", ErrNoData)
	}
	return quotes, nil
}
