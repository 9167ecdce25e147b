package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"CryptoSentinel/internal/api"
	"CryptoSentinel/internal/board"
	"CryptoSentinel/internal/cache"
	"CryptoSentinel/internal/collector"
	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/logger"
	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/notifier"
	"CryptoSentinel/internal/ratelimit"
	"CryptoSentinel/internal/recorder"
	"CryptoSentinel/internal/scheduler"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		*cfgPath = v
	}

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		bootFatal("load config", err)
	}
	if err := cfg.Validate(); err != nil {
		bootFatal("config validation", err)
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		bootFatal("init logger", err)
	}
	log.Info("CryptoSentinel starting", logger.String("config", *cfgPath))

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := metrics.New(prometheus.DefaultRegisterer)

	// Init provider chain: instrumented, then cached, then rate limited
	var provider collector.Provider
	switch cfg.Provider.Name {
	case "yahoo":
		provider = collector.NewYahooProvider(cfg.Provider.BaseURL, cfg.Proxy, cfg.Provider.Timeout)
	case "mock":
		provider = collector.NewMockProvider()
	default:
		provider = collector.NewCoinGeckoProvider(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Proxy, cfg.Provider.Timeout)
	}
	log.Info("data source", logger.String("provider", provider.Name()))

	provider = collector.NewInstrumented(provider, rec)
	if cfg.Cache.Enabled {
		store := newCache(ctx, cfg, log)
		defer store.Close()
		provider = collector.NewCached(provider, store, cfg.Cache.TTL, log, rec)
	}
	limiter := ratelimit.New(cfg.Provider.RateLimit.Capacity, cfg.Provider.RateLimit.RefillPerSec)
	provider = collector.NewRateLimited(provider, limiter)

	// Init collector
	col := collector.NewCollector(provider, collector.Options{
		VsCurrency:  cfg.Provider.VsCurrency,
		TopN:        cfg.Market.TopN,
		HistoryDays: cfg.Market.HistoryDays,
		HorizonDays: cfg.Market.HorizonDays,
		Concurrency: cfg.Market.Concurrency,
		Seed:        cfg.Market.Seed,
	}, log, rec)

	// Init recorder
	var audit recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", logger.Error(err))
			audit = recorder.NewNoopRecorder()
		} else {
			audit = sr
			defer sr.Close()
		}
	} else {
		audit = recorder.NewNoopRecorder()
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var sink scheduler.Notifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sink = tn
	} else {
		log.Info("telegram not configured, digests disabled")
	}

	// Init scheduler
	boardStore := board.NewStore()
	sched := scheduler.NewScheduler(ctx, col, boardStore, sink, audit, rec, log)
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		log.Fatal("register cron tasks", logger.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	// Init HTTP server
	handler := api.NewSentinelHandler(log, boardStore, col, sched).
		WithRateLimit(ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec))
	srv := api.NewServer(handler, log,
		api.WithPort(cfg.Server.Port),
		api.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		api.WithMetrics(rec, promhttp.Handler()),
	)
	srv.Start()

	// First board without waiting for the schedule
	go sched.RunNow(scheduler.TriggerStartup)

	log.Info("CryptoSentinel is running, press Ctrl+C to stop")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping")
	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer done()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("http server shutdown", logger.Error(err))
	}
	log.Info("CryptoSentinel stopped")
}

func newCache(ctx context.Context, cfg *config.Config, log *logger.Logger) cache.Service {
	if cfg.Cache.Redis.Enabled {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err == nil {
			log.Info("history cache", logger.String("backend", "redis"), logger.String("addr", cfg.Cache.Redis.Addr))
			return rc
		}
		log.Warn("redis unavailable, using memory cache", logger.Error(err))
	}
	log.Info("history cache", logger.String("backend", "memory"))
	return cache.NewMemoryCache(
		cache.WithMemoryMaxSize(cfg.Cache.MaxEntries),
		cache.WithMemoryCleanup(cfg.Cache.CleanupInterval),
	)
}

// bootFatal reports errors that happen before the logger exists.
func bootFatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "[FATAL] %s: %v\n", what, err)
	os.Exit(1)
}
