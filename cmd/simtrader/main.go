package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/simtrader/config"
	"github.com/alejandrodnm/simtrader/internal/adapters/history"
	"github.com/alejandrodnm/simtrader/internal/adapters/notify"
	"github.com/alejandrodnm/simtrader/internal/adapters/storage"
	"github.com/alejandrodnm/simtrader/internal/domain"
	"github.com/alejandrodnm/simtrader/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	mode := flag.String("mode", "synthetic", "run mode: synthetic|replay")
	once := flag.Bool("once", false, "run a fixed number of ticks headless and exit")
	ticks := flag.Int("ticks", 600, "tick count for -once runs")
	table := flag.Bool("table", false, "print full dashboard tables (default: compact 1-line)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	seed := flag.Int64("seed", 0, "RNG seed, 0 picks a time-based seed")
	symbol := flag.String("symbol", "", "replay symbol (overrides config)")
	runs := flag.Int("runs", 0, "print the last N journaled run summaries and exit")
	search := flag.String("search", "", "search the data source for symbols and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if *symbol != "" {
		cfg.Replay.Symbol = *symbol
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	slog.Info("simtrader starting",
		"config", *configPath,
		"mode", *mode,
		"scenario", cfg.Simulator.Scenario,
		"seed", *seed,
		"once", *once,
	)

	journal, err := storage.NewSQLiteJournal(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open journal", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer journal.Close()

	notifier := notify.NewConsole(*table)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *search != "" {
		var searcher ports.SymbolSearcher = history.NewClient(cfg.API.HistoryBase)
		matches, err := searcher.SearchSymbols(ctx, *search)
		if err != nil {
			slog.Error("symbol search failed", "err", err, "query", *search)
			os.Exit(1)
		}
		for _, m := range matches {
			fmt.Printf("%-10s %-40s %s (%s)\n", m.Symbol, m.Name, m.Exchange, m.Type)
		}
		return
	}

	if *runs > 0 {
		summaries, err := journal.RecentRuns(ctx, *runs)
		if err != nil {
			slog.Error("failed to read run history", "err", err)
			os.Exit(1)
		}
		for _, s := range summaries {
			notifier.PrintRunSummary(s)
		}
		return
	}

	rng := rand.New(rand.NewSource(*seed))

	switch *mode {
	case "synthetic":
		runSynthetic(ctx, cfg, rng, journal, notifier, *once, *ticks)
	case "replay":
		runReplay(ctx, cfg, rng, journal, notifier, *once, *ticks)
	default:
		slog.Error("unknown mode", "mode", *mode)
		os.Exit(1)
	}

	slog.Info("simtrader stopped cleanly")
}

// pricesOf flattens a snapshot's quotes into the symbol→price map the
// ledger consumes.
func pricesOf(snap domain.Snapshot) map[string]float64 {
	prices := make(map[string]float64, len(snap.Quotes))
	for sym := range snap.Quotes {
		prices[sym] = snap.Price(sym)
	}
	return prices
}

// quotesOf returns the snapshot quotes in symbol order for stable display.
func quotesOf(snap domain.Snapshot) []domain.Quote {
	symbols := snap.Symbols()
	out := make([]domain.Quote, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, snap.Quotes[sym])
	}
	return out
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
