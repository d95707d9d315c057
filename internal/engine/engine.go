package engine

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/simtrader/internal/domain"
	"github.com/alejandrodnm/simtrader/internal/market"
	"github.com/alejandrodnm/simtrader/internal/portfolio"
)

// Config controls the decision engine.
type Config struct {
	Strategy            Strategy
	EvalEvery           int     // evaluate every N ticks
	ConvictionThreshold float64 // minimum score to execute; kept separate for synthetic (0.1) and replay (0.5) runs
	LookaheadPaths      int
	LookaheadSteps      int
	MaxCashFraction     float64 // per-trade cash risk cap
	TraceCap            int
}

// DefaultConfig returns the synthetic-engine defaults.
func DefaultConfig() Config {
	return Config{
		Strategy:            StrategyAuto,
		EvalEvery:           5,
		ConvictionThreshold: 0.1,
		LookaheadPaths:      8,
		LookaheadSteps:      5,
		MaxCashFraction:     0.25,
		TraceCap:            50,
	}
}

// ExecutedTrade is the trade signal payload: the ledger record plus the
// originating strategy context.
type ExecutedTrade struct {
	domain.TradeRecord
	Strategy   string
	Reason     string
	Confidence int
}

// Engine evaluates the market on a tick cadence, scores candidate moves and
// executes the best one against its ledger. All work happens synchronously
// inside the tick handler.
type Engine struct {
	TradeExecuted market.Signal[ExecutedTrade]
	Analyzed      market.Signal[domain.AnalysisTrace]

	cfg    Config
	ledger *portfolio.Ledger
	rng    *rand.Rand

	mu        sync.Mutex
	traces    []domain.AnalysisTrace // most recent first, capped
	ticksSeen int
}

// New creates an engine trading the given ledger. The rng drives the
// stochastic lookahead only.
func New(cfg Config, ledger *portfolio.Ledger, rng *rand.Rand) *Engine {
	if cfg.EvalEvery <= 0 {
		cfg.EvalEvery = DefaultConfig().EvalEvery
	}
	if cfg.LookaheadPaths <= 0 {
		cfg.LookaheadPaths = DefaultConfig().LookaheadPaths
	}
	if cfg.LookaheadSteps <= 0 {
		cfg.LookaheadSteps = DefaultConfig().LookaheadSteps
	}
	if cfg.MaxCashFraction <= 0 {
		cfg.MaxCashFraction = DefaultConfig().MaxCashFraction
	}
	if cfg.TraceCap <= 0 {
		cfg.TraceCap = DefaultConfig().TraceCap
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyAuto
	}
	return &Engine{cfg: cfg, ledger: ledger, rng: rng}
}

// HandleTick runs one evaluation every cfg.EvalEvery ticks and returns the
// trace when it evaluated, nil otherwise.
func (e *Engine) HandleTick(snap domain.Snapshot) *domain.AnalysisTrace {
	e.mu.Lock()
	e.ticksSeen++
	due := e.ticksSeen%e.cfg.EvalEvery == 0
	e.mu.Unlock()

	if !due {
		return nil
	}
	tr := e.Evaluate(snap)
	return &tr
}

// Evaluate runs one full evaluation cycle against the snapshot.
func (e *Engine) Evaluate(snap domain.Snapshot) domain.AnalysisTrace {
	prices := make(map[string]float64, len(snap.Quotes))
	for sym, q := range snap.Quotes {
		prices[sym] = q.Price
	}
	stats := e.ledger.Stats(prices)

	candidates := e.generate(snap)
	for i := range candidates {
		candidates[i].Lookahead = lookahead(e.rng, closesFor(snap, candidates[i].Symbol), e.cfg.LookaheadPaths, e.cfg.LookaheadSteps)
		candidates[i].Score = e.scoreCandidate(candidates[i], stats)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	trace := domain.AnalysisTrace{
		Day:           snap.Day,
		Tick:          snap.Tick,
		At:            time.Now(),
		PositionScore: positionScore(stats),
		Candidates:    candidates,
		Strategy:      string(e.cfg.Strategy),
		Depth:         e.cfg.LookaheadSteps,
		Nodes:         len(candidates) * e.cfg.LookaheadPaths,
	}

	var executed *ExecutedTrade
	if len(candidates) > 0 && candidates[0].Score > e.cfg.ConvictionThreshold {
		executed = e.execute(candidates[0], snap, &trace)
	}
	if executed == nil {
		e.explainHold(candidates, &trace)
	}

	e.mu.Lock()
	e.traces = append([]domain.AnalysisTrace{trace}, e.traces...)
	if len(e.traces) > e.cfg.TraceCap {
		e.traces = e.traces[:e.cfg.TraceCap]
	}
	e.mu.Unlock()

	if executed != nil {
		e.TradeExecuted.Emit(*executed)
	}
	e.Analyzed.Emit(trace)
	return trace
}

// generate fans out over the active strategies in fixed order, then over
// instruments in symbol order, so equal scores later keep this ordering.
func (e *Engine) generate(snap domain.Snapshot) []domain.CandidateMove {
	active := strategyOrder
	if e.cfg.Strategy != StrategyAuto {
		active = []Strategy{e.cfg.Strategy}
	}

	symbols := snap.Symbols()
	cash := e.ledger.Cash()

	var out []domain.CandidateMove
	for _, strat := range active {
		gen := generators[strat]
		for _, sym := range symbols {
			bars := snap.Bars[sym]
			holding, held := e.ledger.Holding(sym)
			in := strategyInput{
				Symbol:          sym,
				Closes:          closesOf(bars),
				Bars:            bars,
				Quote:           snap.Quotes[sym],
				Holding:         holding,
				Held:            held,
				Cash:            cash,
				MaxCashFraction: e.cfg.MaxCashFraction,
			}
			if mv := gen(in); mv != nil {
				out = append(out, *mv)
			}
		}
	}
	return out
}

// scoreCandidate applies the composite score and risk adjustments.
// The lookahead term is side-agnostic: the average projected return enters
// with the same sign for buys and sells.
func (e *Engine) scoreCandidate(c domain.CandidateMove, stats domain.PortfolioStats) float64 {
	score := c.Edge*5*strategyWeights[Strategy(c.Strategy)] + c.AvgLookaheadReturn()*10

	size := c.Qty * c.Price
	if stats.Cash > 0 && size > 0.5*stats.Cash {
		score /= 2
	}
	if c.Action == domain.ActionBuy && stats.TotalValue > 0 {
		held := stats.Holdings[c.Symbol]
		if (held.Qty*c.Price+size)/stats.TotalValue > 0.3 {
			score *= 0.3
		}
	}
	return math.Max(0, score)
}

// positionScore is the chess-style portfolio health number: return percent
// scaled like centipawns, a diversification bonus, a drawdown penalty.
func positionScore(stats domain.PortfolioStats) float64 {
	score := stats.ReturnPct * 10
	if n := len(stats.Holdings); n >= 2 && n <= 5 {
		score += 5
	}
	score -= 2 * stats.MaxDrawdown * 100
	return score
}

// execute runs the chosen move against the ledger. Returns nil when the
// ledger clamps it to nothing (insufficient cash or holdings), in which
// case the cycle degrades to a HOLD.
func (e *Engine) execute(c domain.CandidateMove, snap domain.Snapshot, trace *domain.AnalysisTrace) *ExecutedTrade {
	var rec *domain.TradeRecord
	switch c.Action {
	case domain.ActionBuy:
		rec = e.ledger.Buy(c.Symbol, c.Qty, c.Price, snap.Day, snap.Tick)
	case domain.ActionSell:
		rec = e.ledger.Sell(c.Symbol, c.Qty, c.Price, snap.Day, snap.Tick)
	}
	if rec == nil {
		slog.Debug("engine: chosen move clamped to nothing",
			"symbol", c.Symbol, "action", c.Action, "qty", c.Qty)
		return nil
	}

	conf := tradeConfidence(c.Score)
	chosen := c
	trace.Chosen = &chosen
	trace.Confidence = conf
	trace.Reasoning = fmt.Sprintf("[%s] %s", c.Strategy, c.Reason)
	trace.Strategy = c.Strategy

	return &ExecutedTrade{
		TradeRecord: *rec,
		Strategy:    c.Strategy,
		Reason:      c.Reason,
		Confidence:  conf,
	}
}

// explainHold fills the trace for a cycle that produced no trade.
func (e *Engine) explainHold(candidates []domain.CandidateMove, trace *domain.AnalysisTrace) {
	trace.Chosen = nil
	if len(candidates) == 0 {
		trace.Confidence = 5
		trace.Reasoning = "no strategy produced a candidate; waiting for more price history or a clearer signal"
		return
	}
	best := candidates[0]
	trace.Confidence = holdConfidence(best.Score, e.cfg.ConvictionThreshold)
	trace.Reasoning = fmt.Sprintf(
		"best candidate %s %s scored %.2f, below the %.2f conviction threshold; holding",
		best.Action, best.Symbol, best.Score, e.cfg.ConvictionThreshold)
}

// tradeConfidence maps a chosen score into 0–99.
func tradeConfidence(score float64) int {
	return int(math.Min(99, math.Round(40+score*12)))
}

// holdConfidence maps the best rejected score into the low 5–20 band.
func holdConfidence(best, threshold float64) int {
	if threshold <= 0 {
		return 5
	}
	return 5 + int(math.Min(15, math.Round(best/threshold*15)))
}

// Traces returns a copy of the retained analysis history, newest first.
func (e *Engine) Traces() []domain.AnalysisTrace {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.AnalysisTrace, len(e.traces))
	copy(out, e.traces)
	return out
}

// Ledger exposes the engine's portfolio for read-side reporting.
func (e *Engine) Ledger() *portfolio.Ledger {
	return e.ledger
}

func closesOf(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func closesFor(snap domain.Snapshot, symbol string) []float64 {
	return closesOf(snap.Bars[symbol])
}
