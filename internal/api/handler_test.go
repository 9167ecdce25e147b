package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CryptoSentinel/internal/board"
	"CryptoSentinel/internal/collector"
	"CryptoSentinel/internal/model"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type stubRefresher struct {
	snap *model.BoardSnapshot
	err  error
}

func (s *stubRefresher) Refresh(context.Context) (*model.BoardSnapshot, error) {
	return s.snap, s.err
}

func testSnapshot() *model.BoardSnapshot {
	mk := func(id, sym, name string, price float64, label model.Label) model.AssetAnalysis {
		return model.AssetAnalysis{
			Quote:          model.Quote{ID: id, Symbol: sym, Name: name, CurrentPrice: model.Float(price)},
			Prediction:     []model.PredictedPoint{},
			Recommendation: model.Recommendation{Label: label, Score: 50, Mode: model.ModeForecast},
		}
	}
	return &model.BoardSnapshot{
		ID:          "snap-42",
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Provider:    "mock",
		Assets: []model.AssetAnalysis{
			mk("bitcoin", "BTC", "Bitcoin", 64000, model.LabelBuy),
			mk("ethereum", "ETH", "Ethereum", 3100, model.LabelSell),
			mk("solana", "SOL", "Solana", 145, model.LabelBuy),
		},
	}
}

func newTestServer(t *testing.T, store *board.Store, ref Refresher) *Server {
	t.Helper()
	col := collector.NewCollector(collector.NewMockProvider(), collector.Options{Seed: 5}, nil, nil)
	h := NewSentinelHandler(nil, store, col, ref)
	return NewServer(h, nil, WithMetrics(nil, nil))
}

func do(t *testing.T, s *Server, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v (body %s)", method, target, err, rec.Body.String())
	}
	return rec, env
}

func TestAssets_NotReady(t *testing.T) {
	s := newTestServer(t, board.NewStore(), &stubRefresher{})
	rec, env := do(t, s, http.MethodGet, "/api/assets", "")
	if rec.Code != http.StatusServiceUnavailable || env.Status != http.StatusServiceUnavailable {
		t.Errorf("status = %d/%d, want 503", rec.Code, env.Status)
	}
}

func TestAssets_FilterSearchSort(t *testing.T) {
	store := board.NewStore()
	store.Publish(testSnapshot())
	s := newTestServer(t, store, &stubRefresher{})

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"bitcoin", "ethereum", "solana"}},
		{"?filter=buy", []string{"bitcoin", "solana"}},
		{"?filter=sell", []string{"ethereum"}},
		{"?filter=buy&sort=asc", []string{"solana", "bitcoin"}},
		{"?q=eth", []string{"ethereum"}},
	}
	for _, tt := range tests {
		rec, env := do(t, s, http.MethodGet, "/api/assets"+tt.query, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%q: status %d: %s", tt.query, rec.Code, rec.Body.String())
		}
		var body BoardResponse
		if err := json.Unmarshal(env.Data, &body); err != nil {
			t.Fatal(err)
		}
		if body.SnapshotID != "snap-42" || body.Total != len(tt.want) {
			t.Errorf("%q: snapshot %s total %d", tt.query, body.SnapshotID, body.Total)
			continue
		}
		for i, id := range tt.want {
			if body.Rows[i].Quote.ID != id {
				t.Errorf("%q: row %d = %s, want %s", tt.query, i, body.Rows[i].Quote.ID, id)
			}
		}
	}
}

func TestAssets_InvalidFilter(t *testing.T) {
	store := board.NewStore()
	store.Publish(testSnapshot())
	s := newTestServer(t, store, &stubRefresher{})

	rec, env := do(t, s, http.MethodGet, "/api/assets?filter=moon", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var errs []ValidationError
	if err := json.Unmarshal(env.Data, &errs); err != nil {
		t.Fatal(err)
	}
	if len(errs) != 1 || errs[0].Field != "filter" || errs[0].Code != "ERR_ONEOF" {
		t.Errorf("errors = %+v", errs)
	}
}

func TestAsset_Detail(t *testing.T) {
	s := newTestServer(t, board.NewStore(), &stubRefresher{})

	rec, env := do(t, s, http.MethodGet, "/api/assets/bitcoin?days=30&horizon=7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var a model.AssetAnalysis
	if err := json.Unmarshal(env.Data, &a); err != nil {
		t.Fatal(err)
	}
	if len(a.History) != 30 || len(a.Prediction) != 7 || a.PredictedPrice == nil {
		t.Errorf("history %d prediction %d", len(a.History), len(a.Prediction))
	}

	rec, _ = do(t, s, http.MethodGet, "/api/assets/unknown-coin", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown asset status = %d, want 404", rec.Code)
	}

	rec, _ = do(t, s, http.MethodGet, "/api/assets/bitcoin?horizon=365", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("horizon 365 status = %d, want 400", rec.Code)
	}
}

func TestPredict(t *testing.T) {
	s := newTestServer(t, board.NewStore(), &stubRefresher{})

	body := `{"series":[
		{"timestamp":"2025-01-01T00:00:00Z","price":100},
		{"timestamp":"2025-01-02T00:00:00Z","price":100},
		{"timestamp":"2025-01-03T00:00:00Z","price":100}
	],"horizon":5,"seed":1}`
	rec, env := do(t, s, http.MethodPost, "/api/predict", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp PredictResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Prediction) != 5 {
		t.Fatalf("len = %d, want 5", len(resp.Prediction))
	}
	for _, p := range resp.Prediction {
		if p.Price != 100 || !p.IsPredicted {
			t.Errorf("constant series should project flat: %+v", p)
		}
	}
	if resp.Display != "$100.00" {
		t.Errorf("display = %q", resp.Display)
	}
}

func TestPredict_DuplicateTimestamps(t *testing.T) {
	s := newTestServer(t, board.NewStore(), &stubRefresher{})

	// same instant in two zones, out of order
	body := `{"series":[
		{"timestamp":"2025-01-02T00:00:00Z","price":101},
		{"timestamp":"2025-01-01T00:00:00Z","price":100},
		{"timestamp":"2025-01-02T01:00:00+01:00","price":102}
	],"horizon":5,"seed":1}`
	rec, env := do(t, s, http.MethodPost, "/api/predict", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var verrs []ValidationError
	if err := json.Unmarshal(env.Data, &verrs); err != nil {
		t.Fatal(err)
	}
	if len(verrs) != 1 || verrs[0].Field != "series" || verrs[0].Code != "ERR_DUPLICATE" {
		t.Errorf("errors = %+v", verrs)
	}
}

func TestPredict_EmptySeriesAndValidation(t *testing.T) {
	s := newTestServer(t, board.NewStore(), &stubRefresher{})

	rec, env := do(t, s, http.MethodPost, "/api/predict", `{"series":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp PredictResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Prediction) != 0 || resp.PredictedPrice != nil || resp.Display != "N/A" {
		t.Errorf("empty series response = %+v", resp)
	}

	rec, _ = do(t, s, http.MethodPost, "/api/predict", `{"series":[{"timestamp":"2025-01-01T00:00:00Z","price":-3}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative price status = %d, want 400", rec.Code)
	}
	rec, _ = do(t, s, http.MethodPost, "/api/predict", `{"series":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestRecommend(t *testing.T) {
	s := newTestServer(t, board.NewStore(), &stubRefresher{})

	tests := []struct {
		body    string
		label   model.Label
		score   int
		mode    model.Mode
		display string
	}{
		{`{"current_price":100,"predicted_price":106}`, model.LabelBuy, 90, model.ModeForecast, "Buy (90)"},
		{`{"current_price":100,"predicted_price":94}`, model.LabelSell, 10, model.ModeForecast, "Sell (10)"},
		{`{"current_price":100,"predicted_price":101}`, model.LabelHold, 70, model.ModeForecast, "Hold (70)"},
		{`{"change_24h":-6}`, model.LabelSell, 25, model.ModeMomentum, "Sell (25)"},
		{`{}`, model.LabelHold, 50, model.ModeNone, "N/A"},
	}
	for _, tt := range tests {
		rec, env := do(t, s, http.MethodPost, "/api/recommend", tt.body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", tt.body, rec.Code)
		}
		var got RecommendResponse
		if err := json.Unmarshal(env.Data, &got); err != nil {
			t.Fatal(err)
		}
		if got.Label != tt.label || got.Score != tt.score || got.Mode != tt.mode || got.Display != tt.display {
			t.Errorf("%s: got %+v", tt.body, got)
		}
	}
}

func TestRefresh(t *testing.T) {
	ref := &stubRefresher{snap: testSnapshot()}
	s := newTestServer(t, board.NewStore(), ref)

	rec, env := do(t, s, http.MethodPost, "/api/refresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got RefreshResponse
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.SnapshotID != "snap-42" || got.Assets != 3 || got.Buy != 2 || got.Sell != 1 {
		t.Errorf("refresh = %+v", got)
	}

	ref.snap, ref.err = nil, errors.New("coingecko markets: status 429")
	rec, _ = do(t, s, http.MethodPost, "/api/refresh", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("provider failure status = %d, want 502", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	store := board.NewStore()
	s := newTestServer(t, store, &stubRefresher{})
	rec, env := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || env.Message != "OK" {
		t.Errorf("healthz = %d %q", rec.Code, env.Message)
	}
}

type allowN struct{ left map[string]int }

func (a *allowN) Allow(key string) bool {
	if a.left[key] <= 0 {
		return false
	}
	a.left[key]--
	return true
}

func TestRefresh_RateLimited(t *testing.T) {
	col := collector.NewCollector(collector.NewMockProvider(), collector.Options{Seed: 5}, nil, nil)
	limiter := &allowN{left: map[string]int{"192.0.2.1:refresh": 1}}
	h := NewSentinelHandler(nil, board.NewStore(), col, &stubRefresher{snap: testSnapshot()}).WithRateLimit(limiter)
	s := NewServer(h, nil, WithMetrics(nil, nil))

	if rec, _ := do(t, s, http.MethodPost, "/api/refresh", ""); rec.Code != http.StatusOK {
		t.Fatalf("first refresh status = %d", rec.Code)
	}
	rec, env := do(t, s, http.MethodPost, "/api/refresh", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second refresh status = %d, want 429", rec.Code)
	}
	var errs []AppError
	if err := json.Unmarshal(env.Data, &errs); err != nil || len(errs) != 1 || errs[0].Code != "ERR_RATE_LIMITED" {
		t.Errorf("errors = %+v (%v)", errs, err)
	}

	// unthrottled routes are unaffected
	if rec, _ := do(t, s, http.MethodPost, "/api/recommend", `{"current_price":100,"predicted_price":106}`); rec.Code != http.StatusOK {
		t.Errorf("recommend status = %d", rec.Code)
	}
}
