package market_test

import (
	"math/rand"
	"testing"

	"github.com/alejandrodnm/simtrader/internal/domain"
	"github.com/alejandrodnm/simtrader/internal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSim(seed int64) *market.Simulator {
	cfg := market.DefaultConfig()
	cfg.TicksPerDay = 10
	return market.New(cfg, domain.DefaultUniverse(), rand.New(rand.NewSource(seed)))
}

func TestStepKeepsPriceInvariants(t *testing.T) {
	sim := newSim(7)

	for i := 0; i < 200; i++ {
		sim.Step()
		snap := sim.Snapshot()
		for _, sym := range snap.Symbols() {
			q := snap.Quotes[sym]
			assert.Greaterf(t, q.Price, 0.0, "%s price must stay positive", sym)
			in, ok := sim.Instrument(sym)
			require.True(t, ok)
			assert.GreaterOrEqual(t, in.High, in.Price)
			assert.LessOrEqual(t, in.Low, in.Price)
			assert.GreaterOrEqual(t, q.Ask, q.Bid)
		}
	}
}

func TestDayCloseAppendsImmutableBars(t *testing.T) {
	sim := newSim(11)

	var closes []int
	sim.DayClosed.Subscribe(func(day int) { closes = append(closes, day) })

	for i := 0; i < 35; i++ {
		sim.Step()
	}

	// 10 ticks per day → days 0, 1 and 2 closed within 35 ticks.
	assert.Equal(t, []int{0, 1, 2}, closes)

	snap := sim.Snapshot()
	for _, sym := range snap.Symbols() {
		bars := snap.Bars[sym]
		require.Len(t, bars, 3)
		for i, b := range bars {
			assert.Equal(t, i, b.Day)
			assert.GreaterOrEqual(t, b.High, b.Low)
			assert.GreaterOrEqual(t, b.High, b.Close)
			assert.LessOrEqual(t, b.Low, b.Close)
			assert.Greater(t, b.Volume, 0.0)
		}
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	sim := newSim(3)

	for i := 0; i < 50; i++ {
		sim.Step()
	}
	sim.Reset()

	snap := sim.Snapshot()
	assert.Zero(t, snap.Tick)
	assert.Zero(t, snap.Day)
	for _, in := range domain.DefaultUniverse() {
		got, ok := sim.Instrument(in.Symbol)
		require.True(t, ok)
		assert.Equal(t, in.BasePrice, got.Price)
		assert.Empty(t, got.History)
		assert.Zero(t, got.EventEffect)
		assert.Zero(t, got.EventTicksLeft)
	}
	assert.Empty(t, sim.ActiveEvents())
}

func TestEventsSpawnAndDecay(t *testing.T) {
	cfg := market.DefaultConfig()
	cfg.TicksPerDay = 10
	cfg.EventBaseProb = 1 // force a spawn every tick
	sim := market.New(cfg, domain.DefaultUniverse(), rand.New(rand.NewSource(5)))

	var fired []domain.MarketEvent
	sim.EventFired.Subscribe(func(ev domain.MarketEvent) { fired = append(fired, ev) })

	sim.Step()
	require.NotEmpty(t, fired)
	ev := fired[0]
	assert.NotEmpty(t, ev.ID)
	assert.NotEmpty(t, ev.Symbol)
	assert.NotZero(t, ev.Magnitude)
	assert.Greater(t, ev.Duration, 0)

	in, ok := sim.Instrument(ev.Symbol)
	require.True(t, ok)
	assert.Greater(t, in.EventVolMult, 1.0)

	// Stop spawning and let the effect run out.
	sim.SetScenario(domain.Scenario{Name: "dead", Trend: 1, Volatility: 1, EventFrequency: 0})
	for i := 0; i < ev.Duration+1; i++ {
		sim.Step()
	}
	assert.Zero(t, in.EventEffect)
	assert.Equal(t, 1.0, in.EventVolMult)
}

func TestScenarioSwapOnlyAffectsForward(t *testing.T) {
	sim := newSim(13)
	sim.Step()
	before := sim.Snapshot()

	sim.SetScenario(domain.ScenarioBull)
	after := sim.Snapshot()

	// Swapping the scenario must not retroactively move prices.
	for _, sym := range before.Symbols() {
		assert.Equal(t, before.Quotes[sym].Price, after.Quotes[sym].Price)
	}
}

func TestDeterministicWithSameSeed(t *testing.T) {
	a := newSim(42)
	b := newSim(42)
	for i := 0; i < 100; i++ {
		a.Step()
		b.Step()
	}
	sa, sb := a.Snapshot(), b.Snapshot()
	for _, sym := range sa.Symbols() {
		assert.Equal(t, sa.Quotes[sym].Price, sb.Quotes[sym].Price)
	}
}

func TestSignalSubscribeUnsubscribe(t *testing.T) {
	var sig market.Signal[int]
	got := 0
	unsub := sig.Subscribe(func(v int) { got += v })

	sig.Emit(2)
	assert.Equal(t, 2, got)

	unsub()
	sig.Emit(5)
	assert.Equal(t, 2, got)
}
