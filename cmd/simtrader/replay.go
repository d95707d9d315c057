package main

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/alejandrodnm/simtrader/config"
	"github.com/alejandrodnm/simtrader/internal/adapters/history"
	"github.com/alejandrodnm/simtrader/internal/adapters/notify"
	"github.com/alejandrodnm/simtrader/internal/domain"
	"github.com/alejandrodnm/simtrader/internal/engine"
	"github.com/alejandrodnm/simtrader/internal/market"
	"github.com/alejandrodnm/simtrader/internal/portfolio"
	"github.com/alejandrodnm/simtrader/internal/ports"
	"github.com/google/uuid"
)

// runReplay fetches a historical series and feeds it to the engine one bar
// per tick. The run ends when the series is exhausted.
func runReplay(ctx context.Context, cfg *config.Config, rng *rand.Rand, journal ports.Journal, notifier *notify.Console, once bool, ticks int) {
	runID := uuid.NewString()
	started := time.Now()

	var provider ports.HistoryProvider = history.NewClient(cfg.API.HistoryBase)
	slog.Info("fetching history",
		"symbol", cfg.Replay.Symbol, "range", cfg.Replay.Range, "interval", cfg.Replay.Interval)

	series, err := provider.FetchHistory(ctx, cfg.Replay.Symbol, cfg.Replay.Range, cfg.Replay.Interval)
	if err != nil {
		slog.Error("history fetch failed", "err", err, "symbol", cfg.Replay.Symbol)
		os.Exit(1)
	}

	repCfg := market.DefaultReplayConfig()
	repCfg.TickInterval = cfg.TickInterval()
	rep := market.NewReplay(repCfg)
	if err := rep.Load(series.Symbol, series.Bars); err != nil {
		slog.Error("replay load failed", "err", err, "symbol", series.Symbol)
		os.Exit(1)
	}
	slog.Info("series loaded", "symbol", series.Symbol, "bars", len(series.Bars), "exchange", series.Exchange)

	eng := engine.New(engineConfig(cfg.Engine, cfg.Replay.ConvictionThreshold), portfolio.New(cfg.Portfolio.StartingCash), rng)

	eng.TradeExecuted.Subscribe(func(t engine.ExecutedTrade) {
		slog.Info("trade executed",
			"symbol", t.Symbol, "side", t.Side, "qty", t.Qty,
			"price", t.Price, "strategy", t.Strategy, "confidence", t.Confidence)
		if err := journal.SaveTrade(ctx, runID, t.TradeRecord, t.Strategy, t.Reason, t.Confidence); err != nil {
			slog.Warn("journal trade failed", "err", err)
		}
	})
	eng.Analyzed.Subscribe(func(tr domain.AnalysisTrace) {
		if err := journal.SaveTrace(ctx, runID, tr); err != nil {
			slog.Warn("journal trace failed", "err", err)
		}
	})
	rep.DayClosed.Subscribe(func(day int) {
		eng.Ledger().UpdateMetrics(pricesOf(rep.Snapshot()))
	})
	rep.Progress.Subscribe(func(p market.ReplayProgress) {
		slog.Debug("replay progress", "revealed", p.Revealed, "total", p.Total)
	})
	var dashboard ports.Notifier = notifier
	rep.Ticked.Subscribe(func(info market.TickInfo) {
		snap := rep.Snapshot()
		trace := eng.HandleTick(snap)
		update := domain.DashboardUpdate{
			Tick:   info.Tick,
			Day:    info.Day,
			Stats:  eng.Ledger().Stats(pricesOf(snap)),
			Quotes: quotesOf(snap),
			Trace:  trace,
		}
		if err := dashboard.Notify(ctx, update); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	})

	done := make(chan struct{})
	rep.Completed.Subscribe(func(struct{}) {
		close(done)
	})

	if once {
		for i := 0; i < ticks && ctx.Err() == nil && rep.State() != market.ReplayComplete; i++ {
			rep.Step()
		}
	} else {
		rep.Play()
		select {
		case <-ctx.Done():
			rep.Pause()
		case <-done:
		}
	}

	finishRun(journal, notifier, eng, rep.Snapshot(), domain.RunSummary{
		ID:        runID,
		Mode:      "replay",
		Symbol:    series.Symbol,
		StartedAt: started,
	})
}
