package domain

import "time"

// Action is what a candidate move proposes.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// PathLabel classifies one lookahead sample.
type PathLabel string

const (
	PathBullish PathLabel = "bullish"
	PathBearish PathLabel = "bearish"
	PathNeutral PathLabel = "neutral"
)

// LookaheadSample is one simulated price path outcome: the projected
// multi-step return and its direction label.
type LookaheadSample struct {
	Return float64
	Label  PathLabel
}

// CandidateMove is a scored trade proposal, produced and discarded within a
// single evaluation cycle.
type CandidateMove struct {
	Action    Action
	Symbol    string
	Qty       float64
	Price     float64
	Strategy  string
	Reason    string
	Edge      float64 // normalized signal strength, pre risk adjustment
	Score     float64
	Lookahead []LookaheadSample
}

// AvgLookaheadReturn returns the mean projected return across samples,
// or 0 with no samples.
func (c CandidateMove) AvgLookaheadReturn() float64 {
	if len(c.Lookahead) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range c.Lookahead {
		sum += s.Return
	}
	return sum / float64(len(c.Lookahead))
}

// AnalysisTrace records one full evaluation cycle of the decision engine.
type AnalysisTrace struct {
	Day           int
	Tick          int
	At            time.Time
	PositionScore float64 // centipawn-style portfolio health
	Candidates    []CandidateMove
	Chosen        *CandidateMove // nil on HOLD
	Confidence    int            // 0–99
	Reasoning     string
	Strategy      string
	Depth         int // lookahead steps
	Nodes         int // candidates × paths examined
}

// Held reports whether the cycle ended without a trade.
func (t AnalysisTrace) Held() bool {
	return t.Chosen == nil
}
