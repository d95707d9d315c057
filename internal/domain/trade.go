package domain

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeRecord is one executed trade. Immutable once created.
// ID is monotonic per ledger. RealizedPnL is only meaningful for sells:
// revenue minus quantity × average cost at the time of sale.
type TradeRecord struct {
	ID          int64
	Symbol      string
	Side        Side
	Qty         float64
	Price       float64
	Notional    float64
	Day         int
	Tick        int
	RealizedPnL float64
}

// Win reports whether a sell closed at a profit. Always false for buys.
func (t TradeRecord) Win() bool {
	return t.Side == SideSell && t.RealizedPnL > 0
}

// Holding is the position held in one instrument.
// Invariant: Qty > 0 while present in a ledger; removed at zero.
// AvgCost is the volume-weighted cost of the open quantity, blended on every
// buy and untouched by sells.
type Holding struct {
	Symbol  string
	Qty     float64
	AvgCost float64
}

// MarketValue returns the holding value at the given price.
func (h Holding) MarketValue(price float64) float64 {
	return h.Qty * price
}

// UnrealizedPnL returns the open profit at the given price.
func (h Holding) UnrealizedPnL(price float64) float64 {
	return h.Qty * (price - h.AvgCost)
}

// PortfolioStats is a read-only snapshot of a ledger's performance.
type PortfolioStats struct {
	Cash          float64
	TotalValue    float64
	RealizedPnL   float64
	UnrealizedPnL float64
	TotalPnL      float64
	ReturnPct     float64
	WinRate       float64
	Sharpe        float64
	MaxDrawdown   float64
	Trades        int
	Holdings      map[string]Holding
}
