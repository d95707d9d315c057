package portfolio_test

import (
	"testing"

	"github.com/alejandrodnm/simtrader/internal/domain"
	"github.com/alejandrodnm/simtrader/internal/portfolio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuyThenPartialSell(t *testing.T) {
	l := portfolio.New(10000)

	buy := l.Buy("NVTK", 10, 100, 0, 0)
	require.NotNil(t, buy)
	assert.Equal(t, domain.SideBuy, buy.Side)
	assert.InDelta(t, 1000.0, buy.Notional, 1e-9)
	assert.InDelta(t, 9000.0, l.Cash(), 1e-9)

	h, ok := l.Holding("NVTK")
	require.True(t, ok)
	assert.InDelta(t, 10.0, h.Qty, 1e-9)
	assert.InDelta(t, 100.0, h.AvgCost, 1e-9)

	sell := l.Sell("NVTK", 5, 120, 0, 5)
	require.NotNil(t, sell)
	assert.InDelta(t, 9600.0, l.Cash(), 1e-9)
	assert.InDelta(t, 100.0, sell.RealizedPnL, 1e-9) // 5 × (120 − 100)

	h, ok = l.Holding("NVTK")
	require.True(t, ok)
	assert.InDelta(t, 5.0, h.Qty, 1e-9)
	assert.InDelta(t, 100.0, h.AvgCost, 1e-9) // sells never touch avg cost
}

func TestBuySellRoundTripIsNetZero(t *testing.T) {
	l := portfolio.New(5000)

	require.NotNil(t, l.Buy("QBIT", 20, 50, 1, 0))
	require.NotNil(t, l.Sell("QBIT", 20, 50, 1, 1))

	assert.InDelta(t, 5000.0, l.Cash(), 1e-9)
	_, ok := l.Holding("QBIT")
	assert.False(t, ok, "fully liquidated holding must be removed")
}

func TestBuyClampsToAffordable(t *testing.T) {
	l := portfolio.New(250)

	rec := l.Buy("NVTK", 100, 100, 0, 0)
	require.NotNil(t, rec)
	assert.InDelta(t, 2.0, rec.Qty, 1e-9)
	assert.InDelta(t, 50.0, l.Cash(), 1e-9)
	assert.GreaterOrEqual(t, l.Cash(), 0.0)
}

func TestBuyWithNoCashIsNil(t *testing.T) {
	l := portfolio.New(50)
	assert.Nil(t, l.Buy("NVTK", 1, 100, 0, 0))
	assert.InDelta(t, 50.0, l.Cash(), 1e-9)
}

func TestSellWithoutHoldingIsNil(t *testing.T) {
	l := portfolio.New(1000)
	assert.Nil(t, l.Sell("HELX", 5, 90, 0, 0))
	assert.InDelta(t, 1000.0, l.Cash(), 1e-9)
}

func TestSellClampsToHeld(t *testing.T) {
	l := portfolio.New(1000)
	require.NotNil(t, l.Buy("SOLR", 4, 100, 0, 0))

	rec := l.Sell("SOLR", 10, 110, 0, 1)
	require.NotNil(t, rec)
	assert.InDelta(t, 4.0, rec.Qty, 1e-9)
	_, ok := l.Holding("SOLR")
	assert.False(t, ok)
}

func TestAvgCostBlendsOnBuys(t *testing.T) {
	l := portfolio.New(10000)
	require.NotNil(t, l.Buy("ATLB", 10, 100, 0, 0))
	require.NotNil(t, l.Buy("ATLB", 10, 120, 0, 1))

	h, ok := l.Holding("ATLB")
	require.True(t, ok)
	assert.InDelta(t, 20.0, h.Qty, 1e-9)
	assert.InDelta(t, 110.0, h.AvgCost, 1e-9)
}

func TestTotalValueAfterLiquidationEqualsCash(t *testing.T) {
	l := portfolio.New(10000)
	prices := map[string]float64{"NVTK": 105, "QBIT": 60}

	require.NotNil(t, l.Buy("NVTK", 10, 100, 0, 0))
	require.NotNil(t, l.Buy("QBIT", 5, 50, 0, 1))
	require.NotNil(t, l.Sell("NVTK", 10, 105, 0, 2))
	require.NotNil(t, l.Sell("QBIT", 5, 60, 0, 3))

	assert.InDelta(t, l.Cash(), l.TotalValue(prices), 1e-9)
	assert.Empty(t, l.Holdings())
}

func TestTotalValueMissingPriceCountsZero(t *testing.T) {
	l := portfolio.New(1000)
	require.NotNil(t, l.Buy("CRGO", 5, 50, 0, 0))

	assert.InDelta(t, 750.0, l.TotalValue(map[string]float64{}), 1e-9)
}

func TestMaxDrawdownMonotonic(t *testing.T) {
	l := portfolio.New(1000)
	require.NotNil(t, l.Buy("NVTK", 10, 100, 0, 0))

	prev := 0.0
	for _, price := range []float64{110, 90, 95, 70, 120, 60} {
		l.UpdateMetrics(map[string]float64{"NVTK": price})
		assert.GreaterOrEqual(t, l.MaxDrawdown(), prev)
		prev = l.MaxDrawdown()
	}
	assert.Greater(t, l.MaxDrawdown(), 0.0)
}

func TestSharpeDegenerateCases(t *testing.T) {
	l := portfolio.New(1000)
	assert.Zero(t, l.SharpeRatio(), "no samples")

	l.UpdateMetrics(map[string]float64{})
	assert.Zero(t, l.SharpeRatio(), "single sample")

	// Flat value means zero-variance returns.
	l.UpdateMetrics(map[string]float64{})
	l.UpdateMetrics(map[string]float64{})
	assert.Zero(t, l.SharpeRatio())
}

func TestStatsSnapshot(t *testing.T) {
	l := portfolio.New(10000)
	require.NotNil(t, l.Buy("NVTK", 10, 100, 0, 0))
	require.NotNil(t, l.Sell("NVTK", 5, 120, 0, 1))

	stats := l.Stats(map[string]float64{"NVTK": 110})
	assert.InDelta(t, 9600.0, stats.Cash, 1e-9)
	assert.InDelta(t, 10150.0, stats.TotalValue, 1e-9)
	assert.InDelta(t, 100.0, stats.RealizedPnL, 1e-9)
	assert.InDelta(t, 50.0, stats.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 150.0, stats.TotalPnL, 1e-9)
	assert.InDelta(t, 1.5, stats.ReturnPct, 1e-9)
	assert.InDelta(t, 1.0, stats.WinRate, 1e-9)
	assert.Equal(t, 2, stats.Trades)
	require.Contains(t, stats.Holdings, "NVTK")
}

func TestTradeIDsMonotonic(t *testing.T) {
	l := portfolio.New(10000)
	a := l.Buy("NVTK", 1, 100, 0, 0)
	b := l.Buy("QBIT", 1, 50, 0, 1)
	c := l.Sell("NVTK", 1, 101, 0, 2)

	require.NotNil(t, a)
	require.NotNil(t, b)
	require.NotNil(t, c)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, int64(3), c.ID)
}
