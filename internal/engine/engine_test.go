package engine_test

import (
	"math/rand"
	"testing"

	"github.com/alejandrodnm/simtrader/internal/domain"
	"github.com/alejandrodnm/simtrader/internal/engine"
	"github.com/alejandrodnm/simtrader/internal/portfolio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapWith builds a one-instrument snapshot from closes, with highs/lows
// half a point around each close and the quote at price.
func snapWith(symbol string, closes []float64, price float64, tick, day int) domain.Snapshot {
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Day:    i,
			Open:   c - 0.2,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1e5,
		}
	}
	return domain.Snapshot{
		Tick: tick,
		Day:  day,
		Quotes: map[string]domain.Quote{
			symbol: {Symbol: symbol, Price: price, Bid: price - 0.01, Ask: price + 0.01},
		},
		Bars: map[string][]domain.Bar{symbol: bars},
	}
}

func risingCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func flatCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100
	}
	return out
}

func newEngine(cfg engine.Config, cash float64) *engine.Engine {
	return engine.New(cfg, portfolio.New(cash), rand.New(rand.NewSource(1)))
}

func TestBreakoutUptrendExecutesBuy(t *testing.T) {
	e := newEngine(engine.DefaultConfig(), 10000)

	var trades []engine.ExecutedTrade
	e.TradeExecuted.Subscribe(func(tr engine.ExecutedTrade) { trades = append(trades, tr) })

	snap := snapWith("NVTK", risingCloses(30), 131, 150, 30)
	trace := e.Evaluate(snap)

	require.NotNil(t, trace.Chosen)
	assert.Equal(t, domain.ActionBuy, trace.Chosen.Action)
	assert.Greater(t, trace.Chosen.Score, engine.DefaultConfig().ConvictionThreshold)
	assert.NotEmpty(t, trace.Reasoning)

	require.Len(t, trades, 1)
	assert.Equal(t, "NVTK", trades[0].Symbol)
	assert.Equal(t, domain.SideBuy, trades[0].Side)
	assert.Less(t, e.Ledger().Cash(), 10000.0)
	assert.GreaterOrEqual(t, trades[0].Confidence, 0)
	assert.LessOrEqual(t, trades[0].Confidence, 99)
}

func TestFlatMarketHolds(t *testing.T) {
	e := newEngine(engine.DefaultConfig(), 10000)

	snap := snapWith("NVTK", flatCloses(30), 100, 10, 30)
	trace := e.Evaluate(snap)

	assert.True(t, trace.Held())
	assert.Empty(t, trace.Candidates)
	assert.Equal(t, 5, trace.Confidence)
	assert.Contains(t, trace.Reasoning, "no strategy produced a candidate")
	assert.Equal(t, 10000.0, e.Ledger().Cash())
}

func TestNeverExecutesBelowConviction(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.ConvictionThreshold = 1000 // unreachable
	e := newEngine(cfg, 10000)

	snap := snapWith("NVTK", risingCloses(30), 131, 150, 30)
	trace := e.Evaluate(snap)

	require.NotEmpty(t, trace.Candidates, "signals exist but must be rejected")
	assert.True(t, trace.Held())
	assert.GreaterOrEqual(t, trace.Confidence, 5)
	assert.LessOrEqual(t, trace.Confidence, 20)
	assert.Contains(t, trace.Reasoning, "below the")
	assert.Equal(t, 10000.0, e.Ledger().Cash())
}

func TestCandidatesSortedByScoreDescending(t *testing.T) {
	e := newEngine(engine.DefaultConfig(), 10000)

	snap := snapWith("NVTK", risingCloses(30), 131, 150, 30)
	trace := e.Evaluate(snap)

	require.NotEmpty(t, trace.Candidates)
	for i := 1; i < len(trace.Candidates); i++ {
		assert.GreaterOrEqual(t, trace.Candidates[i-1].Score, trace.Candidates[i].Score)
	}
	for _, c := range trace.Candidates {
		assert.GreaterOrEqual(t, c.Score, 0.0, "scores are floored at zero")
		assert.Len(t, c.Lookahead, engine.DefaultConfig().LookaheadPaths)
	}
}

func TestEvaluationCadence(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.EvalEvery = 3
	e := newEngine(cfg, 10000)

	snap := snapWith("NVTK", flatCloses(30), 100, 1, 30)
	assert.Nil(t, e.HandleTick(snap))
	assert.Nil(t, e.HandleTick(snap))
	assert.NotNil(t, e.HandleTick(snap))
	assert.Nil(t, e.HandleTick(snap))
}

func TestTraceHistoryCapped(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.TraceCap = 2
	e := newEngine(cfg, 10000)

	for i := 0; i < 4; i++ {
		e.Evaluate(snapWith("NVTK", flatCloses(30), 100, i, 30))
	}

	traces := e.Traces()
	require.Len(t, traces, 2)
	assert.Equal(t, 3, traces[0].Tick, "newest first")
	assert.Equal(t, 2, traces[1].Tick)
}

func TestSellSignalLiquidatesOnBreakdown(t *testing.T) {
	e := newEngine(engine.DefaultConfig(), 10000)

	// Seed a position first.
	buySnap := snapWith("NVTK", risingCloses(30), 131, 10, 30)
	require.NotNil(t, e.Evaluate(buySnap).Chosen)
	require.NotEmpty(t, e.Ledger().Holdings())

	// Price collapses below the 10-bar low.
	closes := risingCloses(30)
	sellSnap := snapWith("NVTK", closes, 90, 20, 31)
	trace := e.Evaluate(sellSnap)

	require.NotNil(t, trace.Chosen)
	assert.Equal(t, domain.ActionSell, trace.Chosen.Action)
}

func TestCompositeScoreFormula(t *testing.T) {
	weights := map[string]float64{
		"momentum":      1.0,
		"meanreversion": 1.1,
		"breakout":      0.9,
		"value":         0.8,
		"scalping":      0.7,
	}

	led := portfolio.New(10000)
	require.NotNil(t, led.Buy("NVTK", 10, 100, 0, 0))
	e := engine.New(engine.DefaultConfig(), led, rand.New(rand.NewSource(7)))

	// Falling tape with a held position produces SELL candidates whose
	// notional is well under half of cash, so no risk adjustment applies
	// and the score must match edge*5*weight + avgLookahead*10 exactly,
	// with the lookahead term keeping its sign regardless of side.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 130 - float64(i)
	}
	snap := snapWith("NVTK", closes, 100.4, 40, 30)
	trace := e.Evaluate(snap)

	sells := 0
	for _, c := range trace.Candidates {
		if c.Action != domain.ActionSell {
			continue
		}
		sells++
		expected := c.Edge*5*weights[c.Strategy] + c.AvgLookaheadReturn()*10
		if expected < 0 {
			expected = 0
		}
		assert.InDelta(t, expected, c.Score, 1e-9, "strategy %s", c.Strategy)
	}
	require.GreaterOrEqual(t, sells, 2, "falling tape must produce sell candidates")
}

func TestHoldWhenNoCashForAnySignal(t *testing.T) {
	e := newEngine(engine.DefaultConfig(), 1) // cannot afford a single share

	snap := snapWith("NVTK", risingCloses(30), 131, 150, 30)
	trace := e.Evaluate(snap)

	assert.True(t, trace.Held())
	assert.Equal(t, 1.0, e.Ledger().Cash())
}

func TestSingleStrategyModeOnlyUsesThatStrategy(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Strategy = engine.StrategyScalping
	e := newEngine(cfg, 10000)

	snap := snapWith("NVTK", risingCloses(30), 131, 150, 30)
	trace := e.Evaluate(snap)

	require.NotEmpty(t, trace.Candidates)
	for _, c := range trace.Candidates {
		assert.Equal(t, string(engine.StrategyScalping), c.Strategy)
	}
}
