package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"CryptoSentinel/internal/model"
)

const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider implements Provider using the public CoinGecko API.
type CoinGeckoProvider struct {
	BaseURL    string
	APIKey     string
	VsCurrency string
	Client     *http.Client
	now        func() time.Time
}

// NewCoinGeckoProvider creates a CoinGecko provider with optional proxy support.
// An empty baseURL selects the public endpoint.
func NewCoinGeckoProvider(baseURL, apiKey, proxyURL string, timeout time.Duration) *CoinGeckoProvider {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGeckoProvider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		VsCurrency: "usd",
		Client:     newHTTPClient(proxyURL, timeout),
		now:        time.Now,
	}
}

func (p *CoinGeckoProvider) Name() string { return "coingecko" }

// cgMarket is one row of /coins/markets. Nullable numbers stay pointers.
type cgMarket struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
}

// cgChart is the /coins/{id}/market_chart payload: [ms, price] pairs.
type cgChart struct {
	Prices [][2]float64 `json:"prices"`
}

func (m cgMarket) quote(fetchedAt time.Time) model.Quote {
	return model.Quote{
		ID:             m.ID,
		Symbol:         strings.ToUpper(m.Symbol),
		Name:           m.Name,
		CurrentPrice:   m.CurrentPrice,
		PriceChange24h: m.PriceChangePercentage24h,
		MarketCap:      m.MarketCap,
		FetchedAt:      fetchedAt,
	}
}

func (p *CoinGeckoProvider) Markets(ctx context.Context, vsCurrency string, limit int) ([]model.Quote, error) {
	q := url.Values{}
	q.Set("vs_currency", p.currency(vsCurrency))
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("page", "1")
	q.Set("sparkline", "false")

	var rows []cgMarket
	if err := p.get(ctx, "/coins/markets", q, &rows); err != nil {
		return nil, fmt.Errorf("coingecko markets: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("coingecko markets: %w", ErrNoData)
	}

	now := p.now()
	quotes := make([]model.Quote, 0, len(rows))
	for _, r := range rows {
		quotes = append(quotes, r.quote(now))
	}
	return quotes, nil
}

func (p *CoinGeckoProvider) SpotPrice(ctx context.Context, assetID string) (model.Quote, error) {
	q := url.Values{}
	q.Set("vs_currency", p.currency(""))
	q.Set("ids", assetID)

	var rows []cgMarket
	if err := p.get(ctx, "/coins/markets", q, &rows); err != nil {
		return model.Quote{}, fmt.Errorf("coingecko spot %s: %w", assetID, err)
	}
	if len(rows) == 0 {
		return model.Quote{}, fmt.Errorf("coingecko spot %s: %w", assetID, ErrNotFound)
	}
	return rows[0].quote(p.now()), nil
}

func (p *CoinGeckoProvider) HistoricalDaily(ctx context.Context, assetID string, days int) ([]model.PricePoint, error) {
	q := url.Values{}
	q.Set("vs_currency", p.currency(""))
	q.Set("days", strconv.Itoa(days))
	q.Set("interval", "daily")

	var chart cgChart
	if err := p.get(ctx, "/coins/"+url.PathEscape(assetID)+"/market_chart", q, &chart); err != nil {
		return nil, fmt.Errorf("coingecko history %s: %w", assetID, err)
	}

	points := make([]model.PricePoint, 0, len(chart.Prices))
	for _, pair := range chart.Prices {
		points = append(points, model.PricePoint{
			Timestamp: time.UnixMilli(int64(pair[0])).UTC(),
			Price:     pair[1],
		})
	}
	points = trimDays(normalizeDaily(points), days)
	if len(points) == 0 {
		return nil, fmt.Errorf("coingecko history %s: %w", assetID, ErrNoData)
	}
	return points, nil
}

func (p *CoinGeckoProvider) currency(vs string) string {
	if vs != "" {
		return vs
	}
	if p.VsCurrency != "" {
		return p.VsCurrency
	}
	return "usd"
}

func (p *CoinGeckoProvider) get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	endpoint := p.BaseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if p.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
