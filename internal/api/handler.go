package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"CryptoSentinel/internal/board"
	"CryptoSentinel/internal/display"
	"CryptoSentinel/internal/logger"
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/predictor"
	"CryptoSentinel/internal/strategy"

	"github.com/labstack/echo/v4"
)

// BoardReader serves the latest analysed board.
type BoardReader interface {
	Latest() (*model.BoardSnapshot, error)
	View(q board.Query) ([]model.AssetAnalysis, error)
}

// AssetAnalyzer analyses a single asset live.
type AssetAnalyzer interface {
	Detail(ctx context.Context, assetID string, historyDays, horizonDays int) (*model.AssetAnalysis, error)
}

// Refresher collects and publishes a new board.
type Refresher interface {
	Refresh(ctx context.Context) (*model.BoardSnapshot, error)
}

// Allower admits or rejects a single request for key.
type Allower interface {
	Allow(key string) bool
}

// SentinelHandler exposes the board and the prediction engine over HTTP.
type SentinelHandler struct {
	log       *logger.Logger
	board     BoardReader
	analyzer  AssetAnalyzer
	refresher Refresher
	limiter   Allower // nil disables throttling
	now       func() time.Time
}

func NewSentinelHandler(log *logger.Logger, b BoardReader, a AssetAnalyzer, r Refresher) *SentinelHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SentinelHandler{log: log, board: b, analyzer: a, refresher: r, now: time.Now}
}

// WithRateLimit throttles, per client IP, the routes that reach the market data provider.
func (h *SentinelHandler) WithRateLimit(l Allower) *SentinelHandler {
	h.limiter = l
	return h
}

func (h *SentinelHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/assets", h.Assets)
	g.GET("/assets/:id", h.Asset, h.throttle("detail"))
	g.POST("/predict", h.Predict)
	g.POST("/recommend", h.Recommend)
	g.POST("/refresh", h.Refresh, h.throttle("refresh"))
}

func (h *SentinelHandler) throttle(route string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if h.limiter != nil && !h.limiter.Allow(c.RealIP()+":"+route) {
				return AppErrorResponse(c, RateLimitedError())
			}
			return next(c)
		}
	}
}

func (h *SentinelHandler) Health(c echo.Context) error {
	body := map[string]interface{}{"status": "ok"}
	if snap, err := h.board.Latest(); err == nil {
		body["board_generated_at"] = snap.GeneratedAt
		body["board_assets"] = len(snap.Assets)
	}
	return SuccessResponse(c, body)
}

func (h *SentinelHandler) Assets(c echo.Context) error {
	req := &board.Query{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}
	snap, err := h.board.Latest()
	if err != nil {
		return AppErrorResponse(c, mapError(err))
	}
	rows, err := h.board.View(*req)
	if err != nil {
		return AppErrorResponse(c, mapError(err))
	}
	return SuccessResponse(c, BoardResponse{
		SnapshotID:  snap.ID,
		GeneratedAt: snap.GeneratedAt,
		Provider:    snap.Provider,
		Total:       len(rows),
		Rows:        rows,
	})
}

func (h *SentinelHandler) Asset(c echo.Context) error {
	req := &DetailRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}
	a, err := h.analyzer.Detail(c.Request().Context(), req.ID, req.Days, req.Horizon)
	if err != nil {
		h.log.Warn("asset detail failed", logger.String("asset", req.ID), logger.Error(err))
		return AppErrorResponse(c, mapError(err))
	}
	return SuccessResponse(c, a)
}

func (h *SentinelHandler) Predict(c echo.Context) error {
	req := &PredictRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}

	series := make([]model.PricePoint, len(req.Series))
	for i, p := range req.Series {
		series[i] = model.PricePoint{Timestamp: p.Timestamp, Price: p.Price}
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i].Timestamp.Before(series[j].Timestamp) })
	for i := 1; i < len(series); i++ {
		if series[i].Timestamp.Equal(series[i-1].Timestamp) {
			return BadRequestResponse(c, []ValidationError{{
				Code:    "ERR_DUPLICATE",
				Field:   "series",
				Message: "duplicate timestamp " + series[i].Timestamp.UTC().Format(time.RFC3339),
			}})
		}
	}

	seed := h.now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	points := predictor.NewSeeded(seed).Predict(series, req.Horizon)

	resp := PredictResponse{Prediction: points, Display: display.PredictedPrice(points)}
	if final, ok := predictor.FinalPrice(points); ok {
		resp.PredictedPrice = model.Float(final)
	}
	return SuccessResponse(c, resp)
}

func (h *SentinelHandler) Recommend(c echo.Context) error {
	req := &RecommendRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}
	q := model.Quote{CurrentPrice: req.CurrentPrice, PriceChange24h: req.Change24h}
	rec := strategy.Evaluate(strategy.SelectInput(q, req.PredictedPrice))
	return SuccessResponse(c, RecommendResponse{Recommendation: rec, Display: display.Recommendation(rec)})
}

func (h *SentinelHandler) Refresh(c echo.Context) error {
	snap, err := h.refresher.Refresh(c.Request().Context())
	if err != nil {
		h.log.Error("manual refresh failed", logger.Error(err))
		if errors.Is(err, context.Canceled) {
			return DataResponse(c, http.StatusRequestTimeout, "refresh cancelled")
		}
		return AppErrorResponse(c, mapError(err))
	}
	return SuccessResponse(c, RefreshResponse{
		SnapshotID:  snap.ID,
		GeneratedAt: snap.GeneratedAt,
		Assets:      len(snap.Assets),
		Buy:         snap.Count(model.LabelBuy),
		Sell:        snap.Count(model.LabelSell),
		Hold:        snap.Count(model.LabelHold),
	})
}
