package collector

import (
	"context"
	"fmt"
	"time"

	"CryptoSentinel/internal/calculator"
	"CryptoSentinel/internal/logger"
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/predictor"
	"CryptoSentinel/internal/strategy"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options tunes the analysis pipeline.
type Options struct {
	VsCurrency  string
	TopN        int
	HistoryDays int
	HorizonDays int
	Concurrency int
	Seed        int64 // 0 seeds each run from the clock
}

func (o *Options) setDefaults() {
	if o.VsCurrency == "" {
		o.VsCurrency = "usd"
	}
	if o.TopN <= 0 {
		o.TopN = 10
	}
	if o.HistoryDays <= 0 {
		o.HistoryDays = 90
	}
	if o.HorizonDays <= 0 {
		o.HorizonDays = predictor.DefaultHorizon
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
}

// Collector orchestrates data fetching, projection and recommendation.
type Collector struct {
	Provider Provider
	opts     Options
	log      *logger.Logger
	metrics  Metrics
	now      func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(provider Provider, opts Options, log *logger.Logger, m Metrics) *Collector {
	opts.setDefaults()
	if log == nil {
		log = logger.Nop()
	}
	if m == nil {
		m = nopMetrics{}
	}
	return &Collector{
		Provider: provider,
		opts:     opts,
		log:      log.With(logger.String("component", "collector")),
		metrics:  m,
		now:      time.Now,
	}
}

// Options returns the effective pipeline options.
func (c *Collector) Options() Options { return c.opts }

// Collect fetches the top-N market list and analyses every asset.
//
// When ctx is cancelled during analysis Collect returns both a snapshot
// flagged Partial and the context error; the caller decides whether a
// partial board is worth publishing.
func (c *Collector) Collect(ctx context.Context) (*model.BoardSnapshot, error) {
	start := c.now()
	quotes, err := c.Provider.Markets(ctx, c.opts.VsCurrency, c.opts.TopN)
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}

	assets, analyzeErr := c.Analyze(ctx, quotes)
	snap := &model.BoardSnapshot{
		ID:          uuid.NewString(),
		GeneratedAt: c.now(),
		Provider:    c.Provider.Name(),
		Assets:      assets,
		Partial:     analyzeErr != nil,
	}
	elapsed := c.now().Sub(start)
	if analyzeErr != nil {
		c.log.Warn("board collection interrupted",
			logger.String("snapshot", snap.ID),
			logger.Int("assets", len(assets)),
			logger.Error(analyzeErr),
		)
		return snap, fmt.Errorf("analyze assets: %w", analyzeErr)
	}
	c.metrics.RecordLatency("collect", elapsed.Seconds())
	c.log.Info("board collected",
		logger.String("snapshot", snap.ID),
		logger.Int("assets", len(assets)),
		logger.Int("buy", snap.Count(model.LabelBuy)),
		logger.Int("sell", snap.Count(model.LabelSell)),
		logger.Duration("elapsed", elapsed),
	)
	return snap, nil
}

// Analyze runs fetch-history, predict and recommend for each quote
// concurrently. The result has one entry per quote in input order; an
// asset whose history cannot be fetched still gets a momentum or neutral
// recommendation. A non-nil error means ctx was cancelled, and the
// returned entries are still usable.
func (c *Collector) Analyze(ctx context.Context, quotes []model.Quote) ([]model.AssetAnalysis, error) {
	out := make([]model.AssetAnalysis, len(quotes))
	seed := c.runSeed()

	g := new(errgroup.Group)
	g.SetLimit(c.opts.Concurrency)
	for i := range quotes {
		g.Go(func() error {
			p := predictor.NewSeeded(seed + int64(i))
			out[i] = c.analyze(ctx, quotes[i], p, c.opts.HistoryDays, c.opts.HorizonDays)
			return nil
		})
	}
	_ = g.Wait()
	return out, ctx.Err()
}

// Detail analyses one asset live with the given window and horizon.
func (c *Collector) Detail(ctx context.Context, assetID string, historyDays, horizonDays int) (*model.AssetAnalysis, error) {
	if historyDays <= 0 {
		historyDays = c.opts.HistoryDays
	}
	if horizonDays <= 0 {
		horizonDays = c.opts.HorizonDays
	}
	q, err := c.Provider.SpotPrice(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("fetch spot price: %w", err)
	}
	a := c.analyze(ctx, q, predictor.NewSeeded(c.runSeed()), historyDays, horizonDays)
	return &a, nil
}

func (c *Collector) analyze(ctx context.Context, q model.Quote, p *predictor.Predictor, historyDays, horizonDays int) model.AssetAnalysis {
	a := model.AssetAnalysis{
		Quote:      q,
		Prediction: []model.PredictedPoint{},
	}
	if q.PriceChange24h != nil {
		a.PotentialProfit = calculator.PotentialProfit(*q.PriceChange24h)
	}

	history, err := c.Provider.HistoricalDaily(ctx, q.ID, historyDays)
	switch {
	case err != nil:
		a.HistoryErr = err.Error()
		c.log.Warn("history unavailable, falling back",
			logger.String("asset", q.ID), logger.Error(err))
	case len(history) == 0:
		a.HistoryErr = ErrNoData.Error()
	default:
		a.History = history
		a.Stats = seriesStats(history)
		a.Prediction = p.Predict(history, horizonDays)
		if final, ok := predictor.FinalPrice(a.Prediction); ok {
			a.PredictedPrice = model.Float(final)
		}
	}

	a.Recommendation = strategy.Evaluate(strategy.SelectInput(q, a.PredictedPrice))
	return a
}

func seriesStats(history []model.PricePoint) *model.SeriesStats {
	high, low, err := calculator.PriceRange(history)
	if err != nil {
		return nil
	}
	return &model.SeriesStats{
		MA7:        calculator.MovingAverage7d(history),
		MA30:       calculator.MovingAverage30d(history),
		Volatility: calculator.Volatility(history),
		High:       high,
		Low:        low,
	}
}

func (c *Collector) runSeed() int64 {
	if c.opts.Seed != 0 {
		return c.opts.Seed
	}
	return c.now().UnixNano()
}
