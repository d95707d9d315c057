package main

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/alejandrodnm/simtrader/config"
	"github.com/alejandrodnm/simtrader/internal/adapters/notify"
	"github.com/alejandrodnm/simtrader/internal/domain"
	"github.com/alejandrodnm/simtrader/internal/engine"
	"github.com/alejandrodnm/simtrader/internal/market"
	"github.com/alejandrodnm/simtrader/internal/portfolio"
	"github.com/alejandrodnm/simtrader/internal/ports"
	"github.com/google/uuid"
)

// runSynthetic wires the synthetic simulator to the decision engine and runs
// it until the context is cancelled, or for a fixed tick count in once mode.
func runSynthetic(ctx context.Context, cfg *config.Config, rng *rand.Rand, journal ports.Journal, notifier *notify.Console, once bool, ticks int) {
	runID := uuid.NewString()
	started := time.Now()

	simCfg := market.DefaultConfig()
	simCfg.TickInterval = cfg.TickInterval()
	simCfg.TicksPerDay = cfg.Simulator.TicksPerDay
	simCfg.Scenario = domain.ScenarioByName(cfg.Simulator.Scenario)
	simCfg.EventBaseProb = cfg.Simulator.EventBaseProb

	sim := market.New(simCfg, domain.DefaultUniverse(), rng)

	// A separate stream keeps the lookahead from perturbing price generation.
	engRng := rand.New(rand.NewSource(rng.Int63()))
	eng := engine.New(engineConfig(cfg.Engine, cfg.Engine.ConvictionThreshold), portfolio.New(cfg.Portfolio.StartingCash), engRng)

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
	sim.EventFired.Subscribe(func(ev domain.MarketEvent) {
		slog.Info("market event", "type", ev.Type, "symbol", ev.Symbol, "duration", ev.Duration)
	})
	sim.DayClosed.Subscribe(func(day int) {
		eng.Ledger().UpdateMetrics(pricesOf(sim.Snapshot()))
		slog.Debug("day closed", "day", day)
	})
	var dashboard ports.Notifier = notifier
	sim.Ticked.Subscribe(func(info market.TickInfo) {
		snap := sim.Snapshot()
		trace := eng.HandleTick(snap)
		update := domain.DashboardUpdate{
			Tick:   info.Tick,
			Day:    info.Day,
			Stats:  eng.Ledger().Stats(pricesOf(snap)),
			Quotes: quotesOf(snap),
			Events: sim.ActiveEvents(),
			Trace:  trace,
		}
		if err := dashboard.Notify(ctx, update); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	})

	if once {
		for i := 0; i < ticks && ctx.Err() == nil; i++ {
			sim.Step()
		}
	} else {
		sim.Play()
		<-ctx.Done()
		sim.Pause()
	}

	finishRun(journal, notifier, eng, sim.Snapshot(), domain.RunSummary{
		ID:        runID,
		Mode:      "synthetic",
		Scenario:  cfg.Simulator.Scenario,
		StartedAt: started,
	})
}

// engineConfig maps the YAML engine section onto the engine's own config.
func engineConfig(ec config.EngineConfig, threshold float64) engine.Config {
	return engine.Config{
		Strategy:            engine.ParseStrategy(ec.Strategy),
		EvalEvery:           ec.EvalEveryTicks,
		ConvictionThreshold: threshold,
		LookaheadPaths:      ec.LookaheadPaths,
		LookaheadSteps:      ec.LookaheadSteps,
		MaxCashFraction:     ec.MaxCashFraction,
		TraceCap:            ec.TraceCap,
	}
}

// finishRun computes the final stats, journals the summary and prints it.
// Uses a fresh context so the final writes survive signal cancellation.
func finishRun(journal ports.Journal, notifier *notify.Console, eng *engine.Engine, snap domain.Snapshot, summary domain.RunSummary) {
	stats := eng.Ledger().Stats(pricesOf(snap))

	summary.EndedAt = time.Now()
	summary.Ticks = snap.Tick
	summary.Days = snap.Day
	summary.FinalValue = stats.TotalValue
	summary.ReturnPct = stats.ReturnPct
	summary.MaxDrawdown = stats.MaxDrawdown
	summary.Sharpe = stats.Sharpe
	summary.Trades = stats.Trades
	summary.WinRate = stats.WinRate

	slog.Info("run complete",
		"id", summary.ID, "mode", summary.Mode, "ticks", summary.Ticks,
		"starting_cash", eng.Ledger().StartingCash(), "final_value", stats.TotalValue,
		"trades", stats.Trades)

	if err := journal.SaveRunSummary(context.Background(), summary); err != nil {
		slog.Warn("journal run summary failed", "err", err)
	}
	notifier.PrintRunSummary(summary)
}
