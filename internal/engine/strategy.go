package engine

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/simtrader/internal/domain"
	"github.com/alejandrodnm/simtrader/internal/indicators"
)

// Strategy identifies one candidate generator. Auto fans out into all five.
type Strategy string

const (
	StrategyMomentum      Strategy = "momentum"
	StrategyMeanReversion Strategy = "meanreversion"
	StrategyBreakout      Strategy = "breakout"
	StrategyValue         Strategy = "value"
	StrategyScalping      Strategy = "scalping"
	StrategyAuto          Strategy = "auto"
)

// strategyOrder fixes generation order so equal scores break ties
// deterministically.
var strategyOrder = []Strategy{
	StrategyMomentum,
	StrategyMeanReversion,
	StrategyBreakout,
	StrategyValue,
	StrategyScalping,
}

var strategyWeights = map[Strategy]float64{
	StrategyMomentum:      1.0,
	StrategyMeanReversion: 1.1,
	StrategyBreakout:      0.9,
	StrategyValue:         0.8,
	StrategyScalping:      0.7,
}

// ParseStrategy validates a strategy name, falling back to auto.
func ParseStrategy(name string) Strategy {
	switch Strategy(name) {
	case StrategyMomentum, StrategyMeanReversion, StrategyBreakout,
		StrategyValue, StrategyScalping, StrategyAuto:
		return Strategy(name)
	default:
		return StrategyAuto
	}
}

// strategyInput is the read-only view a generator evaluates one instrument
// against.
type strategyInput struct {
	Symbol          string
	Closes          []float64 // closed-bar closes, oldest first
	Bars            []domain.Bar
	Quote           domain.Quote
	Holding         domain.Holding
	Held            bool
	Cash            float64
	MaxCashFraction float64
}

// generator proposes at most one candidate move for one instrument.
// Insufficient history simply yields no candidate.
type generator func(strategyInput) *domain.CandidateMove

var generators = map[Strategy]generator{
	StrategyMomentum:      momentumMove,
	StrategyMeanReversion: meanReversionMove,
	StrategyBreakout:      breakoutMove,
	StrategyValue:         valueMove,
	StrategyScalping:      scalpingMove,
}

// buyQty sizes a buy at frac of cash, capped at the per-trade maximum.
func buyQty(in strategyInput, frac float64) float64 {
	if frac > in.MaxCashFraction {
		frac = in.MaxCashFraction
	}
	if in.Quote.Price <= 0 {
		return 0
	}
	return math.Floor(in.Cash * frac / in.Quote.Price)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func lastValid(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	v := xs[len(xs)-1]
	return v, indicators.Valid(v)
}

// momentumMove rides a 5-bar trend, gated by RSI staying out of the
// overbought/oversold extremes.
func momentumMove(in strategyInput) *domain.CandidateMove {
	if len(in.Closes) < 20 {
		return nil
	}
	rsi, ok := lastValid(indicators.RSI(in.Closes, 14))
	if !ok {
		return nil
	}
	window := in.Closes[len(in.Closes)-5:]
	chg := (window[len(window)-1] - window[0]) / window[0]

	switch {
	case chg > 0.015 && rsi < 70:
		qty := buyQty(in, 0.25)
		if qty <= 0 {
			return nil
		}
		return &domain.CandidateMove{
			Action:   domain.ActionBuy,
			Symbol:   in.Symbol,
			Qty:      qty,
			Price:    in.Quote.Price,
			Strategy: string(StrategyMomentum),
			Reason:   fmt.Sprintf("%s up %.1f%% over 5 bars, RSI %.0f leaves room to run", in.Symbol, chg*100, rsi),
			Edge:     clamp01(chg / 0.05),
		}
	case chg < -0.015 && rsi > 30 && in.Held:
		return &domain.CandidateMove{
			Action:   domain.ActionSell,
			Symbol:   in.Symbol,
			Qty:      math.Ceil(in.Holding.Qty / 2),
			Price:    in.Quote.Price,
			Strategy: string(StrategyMomentum),
			Reason:   fmt.Sprintf("%s down %.1f%% over 5 bars, trimming half before the trend deepens", in.Symbol, -chg*100),
			Edge:     clamp01(-chg / 0.05),
		}
	}
	return nil
}

// meanReversionMove fades RSI extremes and Bollinger band breaches.
func meanReversionMove(in strategyInput) *domain.CandidateMove {
	if len(in.Closes) < 20 {
		return nil
	}
	rsi, okRSI := lastValid(indicators.RSI(in.Closes, 14))
	bb := indicators.Bollinger(in.Closes, 20, 2)
	lower, okLo := lastValid(bb.Lower)
	upper, okHi := lastValid(bb.Upper)
	if !okRSI || !okLo || !okHi {
		return nil
	}
	price := in.Quote.Price

	if rsi < 30 || price < lower {
		edge := clamp01(math.Max((30-rsi)/30, (lower-price)/price*25))
		qty := buyQty(in, 0.25)
		if qty <= 0 || edge <= 0 {
			return nil
		}
		return &domain.CandidateMove{
			Action:   domain.ActionBuy,
			Symbol:   in.Symbol,
			Qty:      qty,
			Price:    price,
			Strategy: string(StrategyMeanReversion),
			Reason:   fmt.Sprintf("%s oversold (RSI %.0f, lower band %.2f), betting on a snap back", in.Symbol, rsi, lower),
			Edge:     edge,
		}
	}
	if in.Held && (rsi > 70 || price > upper) {
		edge := clamp01(math.Max((rsi-70)/30, (price-upper)/price*25))
		if edge <= 0 {
			return nil
		}
		return &domain.CandidateMove{
			Action:   domain.ActionSell,
			Symbol:   in.Symbol,
			Qty:      math.Ceil(in.Holding.Qty / 2),
			Price:    price,
			Strategy: string(StrategyMeanReversion),
			Reason:   fmt.Sprintf("%s overbought (RSI %.0f, upper band %.2f), taking profit into strength", in.Symbol, rsi, upper),
			Edge:     edge,
		}
	}
	return nil
}

// breakoutMove trades the price clearing or breaking the recent 10-bar range.
func breakoutMove(in strategyInput) *domain.CandidateMove {
	const rangeBars = 10
	if len(in.Bars) < rangeBars {
		return nil
	}
	recent := in.Bars[len(in.Bars)-rangeBars:]
	hi, lo := recent[0].High, recent[0].Low
	for _, b := range recent[1:] {
		hi = math.Max(hi, b.High)
		lo = math.Min(lo, b.Low)
	}
	price := in.Quote.Price

	if price > hi {
		qty := buyQty(in, 0.25)
		if qty <= 0 {
			return nil
		}
		return &domain.CandidateMove{
			Action:   domain.ActionBuy,
			Symbol:   in.Symbol,
			Qty:      qty,
			Price:    price,
			Strategy: string(StrategyBreakout),
			Reason:   fmt.Sprintf("%s cleared its %d-bar high of %.2f, breakout entry", in.Symbol, rangeBars, hi),
			Edge:     clamp01((price - hi) / hi * 50),
		}
	}
	if in.Held && price < lo {
		return &domain.CandidateMove{
			Action:   domain.ActionSell,
			Symbol:   in.Symbol,
			Qty:      in.Holding.Qty,
			Price:    price,
			Strategy: string(StrategyBreakout),
			Reason:   fmt.Sprintf("%s broke its %d-bar low of %.2f, cutting the position", in.Symbol, rangeBars, lo),
			Edge:     clamp01((lo - price) / price * 50),
		}
	}
	return nil
}

// valueMove trades deviation from the 30-bar moving average beyond 3%.
func valueMove(in strategyInput) *domain.CandidateMove {
	if len(in.Closes) < 30 {
		return nil
	}
	sma, ok := lastValid(indicators.SMA(in.Closes, 30))
	if !ok || sma <= 0 {
		return nil
	}
	price := in.Quote.Price
	dev := (sma - price) / sma

	if dev > 0.03 {
		qty := buyQty(in, 0.20)
		if qty <= 0 {
			return nil
		}
		return &domain.CandidateMove{
			Action:   domain.ActionBuy,
			Symbol:   in.Symbol,
			Qty:      qty,
			Price:    price,
			Strategy: string(StrategyValue),
			Reason:   fmt.Sprintf("%s trades %.1f%% below its 30-bar average of %.2f", in.Symbol, dev*100, sma),
			Edge:     clamp01(dev / 0.10),
		}
	}
	if in.Held && dev < -0.03 {
		return &domain.CandidateMove{
			Action:   domain.ActionSell,
			Symbol:   in.Symbol,
			Qty:      math.Ceil(in.Holding.Qty / 2),
			Price:    price,
			Strategy: string(StrategyValue),
			Reason:   fmt.Sprintf("%s stretched %.1f%% above its 30-bar average, reducing", in.Symbol, -dev*100),
			Edge:     clamp01(-dev / 0.10),
		}
	}
	return nil
}

// scalpingMove trades a three-bar micro-trend with a small position.
func scalpingMove(in strategyInput) *domain.CandidateMove {
	if len(in.Closes) < 3 {
		return nil
	}
	c := in.Closes[len(in.Closes)-3:]
	chg := (c[2] - c[0]) / c[0]

	if c[0] < c[1] && c[1] < c[2] {
		qty := buyQty(in, 0.10)
		if qty <= 0 {
			return nil
		}
		return &domain.CandidateMove{
			Action:   domain.ActionBuy,
			Symbol:   in.Symbol,
			Qty:      qty,
			Price:    in.Quote.Price,
			Strategy: string(StrategyScalping),
			Reason:   fmt.Sprintf("%s printed three rising closes (+%.2f%%), quick scalp", in.Symbol, chg*100),
			Edge:     clamp01(chg / 0.02),
		}
	}
	if in.Held && c[0] > c[1] && c[1] > c[2] {
		return &domain.CandidateMove{
			Action:   domain.ActionSell,
			Symbol:   in.Symbol,
			Qty:      math.Ceil(in.Holding.Qty / 2),
			Price:    in.Quote.Price,
			Strategy: string(StrategyScalping),
			Reason:   fmt.Sprintf("%s printed three falling closes (%.2f%%), scalping out", in.Symbol, chg*100),
			Edge:     clamp01(-chg / 0.02),
		}
	}
	return nil
}
