// cmd/analysisd hosts the analysis service: it wires the Redis-backed cache
// and quota, the optional SQLite journal, the Yahoo market-data client and
// the optional OpenAI narrator, then serves /metrics and /healthz until
// SIGINT/SIGTERM.
//
// Usage:
//
//	go run ./cmd/analysisd --config=config.yaml
//	go run ./cmd/analysisd --analyze=RELIANCE --user=ops --type=both
//
// With --analyze the process runs one analysis, prints the result as JSON
// and exits.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockanalysis/config"
	"stockanalysis/internal/analysis"
	"stockanalysis/internal/cache"
	"stockanalysis/internal/logger"
	"stockanalysis/internal/marketdata/yahoo"
	"stockanalysis/internal/metrics"
	"stockanalysis/internal/model"
	"stockanalysis/internal/narrative"
	"stockanalysis/internal/quota"
	redisstore "stockanalysis/internal/store/redis"
	sqlitestore "stockanalysis/internal/store/sqlite"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to the YAML config file (optional)")
	oneShot := flag.String("analyze", "", "Run one analysis for this symbol, print it and exit")
	user := flag.String("user", "cli", "User ID for --analyze")
	analysisType := flag.String("type", "technical", "Analysis type for --analyze: technical, ai or both")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[analysisd] config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init("analysisd", logger.ParseLevel(cfg.Log.Level))
	log.Info("starting", "redis", cfg.Redis.Addr, "journal", cfg.JournalEnabled(), "narrative", cfg.NarrativeEnabled())

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()

	// ---- Redis (cache + quota) ----
	store, err := redisstore.New(redisstore.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxFailures:  cfg.Redis.MaxFailures,
		ResetTimeout: cfg.RedisResetTimeout(),
	})
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	store.Instrument(prom)
	health.SetRedisConnected(true)

	// ---- SQLite journal (optional) ----
	var journal model.Journal = sqlitestore.Nop{}
	var journalDB *sqlitestore.Journal
	if cfg.JournalEnabled() {
		j, err := sqlitestore.Open(sqlitestore.Config{Path: cfg.SQLite.Path, Metrics: prom})
		if err != nil {
			log.Warn("journal unavailable, continuing without history", "path", cfg.SQLite.Path, "error", err)
			health.SetSQLiteOK(false)
		} else {
			journal, journalDB = j, j
			health.SetSQLiteOK(true)
			log.Info("journal ready", "path", cfg.SQLite.Path)
		}
	}
	defer journal.Close()

	// ---- Collaborators ----
	market := yahoo.New(yahoo.Config{
		BaseURL:           cfg.MarketData.BaseURL,
		Timeout:           cfg.MarketDataTimeout(),
		RequestsPerSecond: cfg.MarketData.RequestsPerSecond,
		Burst:             cfg.MarketData.Burst,
	})

	var narrator model.Narrator
	if cfg.NarrativeEnabled() {
		n, err := narrative.NewOpenAI(narrative.Config{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			BaseURL:     cfg.OpenAI.BaseURL,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
		})
		if err != nil {
			log.Warn("AI narrative disabled", "error", err)
		} else {
			narrator = n
		}
	}

	tracker := quota.New(store, cfg.Quota.DailyLimit, quota.WithLogger(log), quota.WithMetrics(prom))
	svc := analysis.New(analysis.Deps{
		Cache:    cache.New(store, cache.WithLogger(log), cache.WithMetrics(prom)),
		Quota:    tracker,
		Market:   market,
		Narrator: narrator,
		Journal:  journal,
		Metrics:  prom,
		Logger:   log,
	}, analysis.Options{
		HistoryDays:      cfg.Analysis.HistoryDays,
		RequestTimeout:   cfg.RequestTimeout(),
		NarrativeTimeout: cfg.NarrativeTimeout(),
	})

	if *oneShot != "" {
		code := runOnce(svc, log, *user, *oneShot, *analysisType)
		journal.Close()
		store.Close()
		os.Exit(code)
	}

	// ---- Context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sqlDB *sql.DB
	if journalDB != nil {
		sqlDB = journalDB.DB()
	}
	health.StartLivenessChecker(ctx, store.Client(), sqlDB, 10*time.Second)

	metricsSrv := metrics.NewServer(cfg.Metrics.Addr, prom, health)
	metricsSrv.Start()
	log.Info("analysis service ready", "metrics", cfg.Metrics.Addr, "daily_limit", tracker.Limit())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Stop(shutdownCtx); err != nil {
		log.Warn("metrics server shutdown", "error", err)
	}
}

// runOnce analyzes one symbol and prints the result. It returns the exit code.
func runOnce(svc *analysis.Service, log *slog.Logger, user, symbol, analysisType string) int {
	res, err := svc.Analyze(context.Background(), user, symbol, analysisType)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(res); encErr != nil {
		log.Error("encode result", "error", encErr)
		return 1
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, model.ErrQuotaExceeded):
		return 3
	default:
		log.Error("analysis failed", "symbol", symbol, "error", err)
		return 2
	}
}
