package portfolio

import (
	"math"

	"github.com/alejandrodnm/simtrader/internal/domain"
)

// Ledger tracks cash, holdings and performance for a single actor.
// It is owned by exactly one actor and mutated synchronously from the tick
// handler, so it needs no locking.
type Ledger struct {
	cash         float64
	startingCash float64
	holdings     map[string]domain.Holding
	trades       []domain.TradeRecord
	peakValue    float64
	maxDrawdown  float64
	returns      []float64
	lastValue    float64
	nextID       int64
}

// New creates a ledger with the given starting cash.
func New(startingCash float64) *Ledger {
	return &Ledger{
		cash:         startingCash,
		startingCash: startingCash,
		holdings:     make(map[string]domain.Holding),
		peakValue:    startingCash,
		lastValue:    startingCash,
		nextID:       1,
	}
}

// Buy purchases up to qty whole shares at price, clamped to what cash
// affords. Returns nil without mutating anything when the clamped quantity
// is zero or the price is not positive.
func (l *Ledger) Buy(symbol string, qty, price float64, day, tick int) *domain.TradeRecord {
	if price <= 0 {
		return nil
	}
	qty = math.Floor(qty)
	affordable := math.Floor(l.cash / price)
	if qty > affordable {
		qty = affordable
	}
	if qty <= 0 {
		return nil
	}

	cost := qty * price
	l.cash -= cost

	h := l.holdings[symbol]
	newQty := h.Qty + qty
	h.AvgCost = (h.AvgCost*h.Qty + cost) / newQty
	h.Qty = newQty
	h.Symbol = symbol
	l.holdings[symbol] = h

	rec := domain.TradeRecord{
		ID:       l.nextID,
		Symbol:   symbol,
		Side:     domain.SideBuy,
		Qty:      qty,
		Price:    price,
		Notional: cost,
		Day:      day,
		Tick:     tick,
	}
	l.nextID++
	l.trades = append(l.trades, rec)
	return &rec
}

// Sell liquidates up to qty shares at price, clamped to the held quantity.
// Realized P&L is computed against the blended average cost, which sells
// never change. Returns nil when nothing is held.
func (l *Ledger) Sell(symbol string, qty, price float64, day, tick int) *domain.TradeRecord {
	if price <= 0 {
		return nil
	}
	h, ok := l.holdings[symbol]
	if !ok {
		return nil
	}
	qty = math.Floor(qty)
	if qty > h.Qty {
		qty = h.Qty
	}
	if qty <= 0 {
		return nil
	}

	revenue := qty * price
	pnl := revenue - qty*h.AvgCost
	l.cash += revenue

	h.Qty -= qty
	if h.Qty <= 0 {
		delete(l.holdings, symbol)
	} else {
		l.holdings[symbol] = h
	}

	rec := domain.TradeRecord{
		ID:          l.nextID,
		Symbol:      symbol,
		Side:        domain.SideSell,
		Qty:         qty,
		Price:       price,
		Notional:    revenue,
		Day:         day,
		Tick:        tick,
		RealizedPnL: pnl,
	}
	l.nextID++
	l.trades = append(l.trades, rec)
	return &rec
}

// TotalValue returns cash plus the market value of all holdings.
// Symbols missing from prices contribute zero.
func (l *Ledger) TotalValue(prices map[string]float64) float64 {
	total := l.cash
	for sym, h := range l.holdings {
		total += h.MarketValue(prices[sym])
	}
	return total
}

// UpdateMetrics advances peak value, max drawdown and the period return
// series. Call exactly once per period close.
func (l *Ledger) UpdateMetrics(prices map[string]float64) {
	v := l.TotalValue(prices)
	if v > l.peakValue {
		l.peakValue = v
	}
	if l.peakValue > 0 {
		dd := (l.peakValue - v) / l.peakValue
		if dd > l.maxDrawdown {
			l.maxDrawdown = dd
		}
	}
	if l.lastValue > 0 {
		l.returns = append(l.returns, (v-l.lastValue)/l.lastValue)
	}
	l.lastValue = v
}

// SharpeRatio returns the annualized Sharpe over recorded period returns.
// Zero with fewer than two samples or zero variance.
func (l *Ledger) SharpeRatio() float64 {
	n := len(l.returns)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range l.returns {
		mean += r
	}
	mean /= float64(n)

	variance := 0.0
	for _, r := range l.returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(n)
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance) * math.Sqrt(252)
}

// Stats bundles a read-only performance snapshot at the given prices.
func (l *Ledger) Stats(prices map[string]float64) domain.PortfolioStats {
	total := l.TotalValue(prices)

	realized := 0.0
	sells, wins := 0, 0
	for _, t := range l.trades {
		if t.Side != domain.SideSell {
			continue
		}
		realized += t.RealizedPnL
		sells++
		if t.Win() {
			wins++
		}
	}

	unrealized := 0.0
	holdings := make(map[string]domain.Holding, len(l.holdings))
	for sym, h := range l.holdings {
		if price, ok := prices[sym]; ok {
			unrealized += h.UnrealizedPnL(price)
		}
		holdings[sym] = h
	}

	winRate := 0.0
	if sells > 0 {
		winRate = float64(wins) / float64(sells)
	}
	returnPct := 0.0
	if l.startingCash > 0 {
		returnPct = (total - l.startingCash) / l.startingCash * 100
	}

	return domain.PortfolioStats{
		Cash:          l.cash,
		TotalValue:    total,
		RealizedPnL:   realized,
		UnrealizedPnL: unrealized,
		TotalPnL:      realized + unrealized,
		ReturnPct:     returnPct,
		WinRate:       winRate,
		Sharpe:        l.SharpeRatio(),
		MaxDrawdown:   l.maxDrawdown,
		Trades:        len(l.trades),
		Holdings:      holdings,
	}
}

// Cash returns the available cash balance.
func (l *Ledger) Cash() float64 { return l.cash }

// StartingCash returns the initial cash balance.
func (l *Ledger) StartingCash() float64 { return l.startingCash }

// MaxDrawdown returns the worst observed peak-to-value drawdown fraction.
func (l *Ledger) MaxDrawdown() float64 { return l.maxDrawdown }

// Holding returns the position in symbol, if any.
func (l *Ledger) Holding(symbol string) (domain.Holding, bool) {
	h, ok := l.holdings[symbol]
	return h, ok
}

// Holdings returns a copy of the holdings map.
func (l *Ledger) Holdings() map[string]domain.Holding {
	out := make(map[string]domain.Holding, len(l.holdings))
	for sym, h := range l.holdings {
		out[sym] = h
	}
	return out
}

// Trades returns the trade history, oldest first.
func (l *Ledger) Trades() []domain.TradeRecord {
	out := make([]domain.TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}
