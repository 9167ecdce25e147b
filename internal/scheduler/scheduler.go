package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"CryptoSentinel/internal/board"
	"CryptoSentinel/internal/logger"
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/notifier"
	"CryptoSentinel/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Trigger names the origin of a refresh run.
const (
	TriggerCron     = "cron"
	TriggerStartup  = "startup"
	TriggerAPI      = "api"
	TriggerTelegram = "telegram"
)

// Analyzer produces boards and single-asset analyses.
type Analyzer interface {
	Collect(ctx context.Context) (*model.BoardSnapshot, error)
	Detail(ctx context.Context, assetID string, historyDays, horizonDays int) (*model.AssetAnalysis, error)
}

// Notifier delivers formatted messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// BoardMetrics receives per-label counts of each new board.
type BoardMetrics interface {
	RecordBoard(counts map[string]int)
}

// Scheduler refreshes the board on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Analyzer Analyzer
	Board    *board.Store
	Notifier Notifier // nil disables digests
	Recorder recorder.Recorder
	Metrics  BoardMetrics
	Ctx      context.Context

	log       *logger.Logger
	refreshMu sync.Mutex
	now       func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, a Analyzer, store *board.Store, n Notifier, rec recorder.Recorder, m BoardMetrics, log *logger.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Analyzer: a,
		Board:    store,
		Notifier: n,
		Recorder: rec,
		Metrics:  m,
		Ctx:      ctx,
		log:      log.With(logger.String("component", "scheduler")),
		now:      time.Now,
	}
}

// Register adds the periodic board refresh.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, func() { s.RunNow(TriggerCron) }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow refreshes the board and sends the digest. Errors are logged.
func (s *Scheduler) RunNow(trigger string) {
	snap, err := s.refresh(s.Ctx, trigger)
	if err != nil {
		s.log.Error("board refresh failed", logger.String("trigger", trigger), logger.Error(err))
		s.trySend(fmt.Sprintf("❌ Board refresh failed: %v", err))
		return
	}
	s.trySend(notifier.FormatBoardDigest(snap))
}

// Refresh collects and publishes a new board on behalf of an API caller.
func (s *Scheduler) Refresh(ctx context.Context) (*model.BoardSnapshot, error) {
	return s.refresh(ctx, TriggerAPI)
}

// refresh collects a board and publishes it. A partial board is returned
// together with the collection error and is published only while no board
// exists yet.
func (s *Scheduler) refresh(ctx context.Context, trigger string) (*model.BoardSnapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := s.now()
	snap, err := s.Analyzer.Collect(ctx)
	evt := &recorder.RefreshEvent{Trigger: trigger, Duration: s.now().Sub(start), Err: err}
	if snap == nil {
		s.recordRefresh(evt)
		return nil, err
	}

	// a partial board never replaces a complete one
	counts := board.Counts(snap)
	_, emptyErr := s.Board.Latest()
	if err == nil || emptyErr != nil {
		s.Board.Publish(snap)
		if s.Metrics != nil {
			s.Metrics.RecordBoard(counts)
		}
		if err != nil {
			s.log.Warn("published partial board", logger.String("snapshot", snap.ID), logger.Error(err))
		}
	}

	evt.SnapshotID = snap.ID
	evt.Provider = snap.Provider
	evt.Assets = len(snap.Assets)
	evt.Buy = counts[string(model.LabelBuy)]
	evt.Sell = counts[string(model.LabelSell)]
	evt.Hold = counts[string(model.LabelHold)]
	s.recordRefresh(evt)

	if recErr := s.Recorder.RecordSnapshot(snap); recErr != nil {
		s.log.Error("record snapshot", logger.String("snapshot", snap.ID), logger.Error(recErr))
	}
	return snap, err
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// "/board@MyBot" in group chats
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch cmd {
	case "/board":
		snap, err := s.Board.Latest()
		if err != nil {
			return "Board is not ready yet, try /refresh."
		}
		return notifier.FormatBoardDigest(snap)
	case "/buy", "/sell":
		filter, title := board.FilterBuy, "🟢 Buy signals"
		if cmd == "/sell" {
			filter, title = board.FilterSell, "🔴 Sell signals"
		}
		assets, err := s.Board.View(board.Query{Filter: filter, Sort: board.OrderDesc})
		if err != nil {
			return "Board is not ready yet, try /refresh."
		}
		return notifier.FormatAssetList(title, assets)
	case "/coin":
		if len(fields) < 2 {
			return "Usage: /coin &lt;id&gt;, e.g. /coin bitcoin"
		}
		id := strings.ToLower(fields[1])
		// the board knows symbols, e.g. btc -> bitcoin
		if known, ok := s.Board.Find(id); ok {
			id = known.Quote.ID
		}
		a, err := s.Analyzer.Detail(ctx, id, 0, 0)
		if err != nil {
			s.log.Warn("coin command failed", logger.String("asset", fields[1]), logger.Error(err))
			return fmt.Sprintf("❌ Could not analyse %s: %s", html.EscapeString(fields[1]), html.EscapeString(err.Error()))
		}
		return notifier.FormatAssetDetail(a)
	case "/refresh":
		snap, err := s.refresh(ctx, TriggerTelegram)
		if err != nil {
			return fmt.Sprintf("❌ Board refresh failed: %v", err)
		}
		return notifier.FormatBoardDigest(snap)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) recordRefresh(evt *recorder.RefreshEvent) {
	if err := s.Recorder.RecordRefresh(evt); err != nil {
		s.log.Error("record refresh", logger.Error(err))
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error("send notification", logger.Error(err))
	}
}
