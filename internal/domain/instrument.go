package domain

import "sort"

// Instrument is one simulated tradeable asset.
//
// The simulator is the only writer; everything else reads snapshots.
// Invariants: Price > 0 always, High >= Price >= Low within the open bar,
// History ordered by day and immutable once appended.
type Instrument struct {
	Symbol string
	Name   string
	Sector string

	// Intrinsic parameters, fixed at creation.
	BasePrice  float64
	Volatility float64 // per-tick noise scale as a fraction of price
	Drift      float64 // per-tick directional bias as a fraction of price

	// Current open bar.
	Price  float64
	Open   float64
	High   float64
	Low    float64
	Volume float64
	Bid    float64
	Ask    float64

	// Closed bars, one per day.
	History []Bar

	// Raw per-tick trace of the current run, capped at MaxTickTrace.
	Trace []TickPoint

	// Transient effect of the active event (neutral when TicksLeft == 0).
	EventEffect    float64
	EventVolMult   float64
	EventTicksLeft int
}

// TickPoint is one entry of the raw per-tick trace.
type TickPoint struct {
	Price  float64
	Volume float64
}

// MaxTickTrace caps the per-instrument tick trace length.
const MaxTickTrace = 500

// Quote is a read-only price snapshot of one instrument.
type Quote struct {
	Symbol string
	Price  float64
	Bid    float64
	Ask    float64
}

// Snapshot is the immutable market view handed to the decision engine.
// Bars slices reference closed bars, which never mutate after appending.
type Snapshot struct {
	Tick       int
	Day        int
	IntraIndex int
	Quotes     map[string]Quote
	Bars       map[string][]Bar
}

// Price returns the snapshot price for symbol, or 0 if unknown.
func (s Snapshot) Price(symbol string) float64 {
	return s.Quotes[symbol].Price
}

// Symbols returns every symbol present in the snapshot.
func (s Snapshot) Symbols() []string {
	out := make([]string, 0, len(s.Quotes))
	for sym := range s.Quotes {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
