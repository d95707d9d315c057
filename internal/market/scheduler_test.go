package market_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/alejandrodnm/simtrader/internal/domain"
	"github.com/alejandrodnm/simtrader/internal/market"
	"github.com/stretchr/testify/assert"
)

func TestCancelJoinsRunningCallback(t *testing.T) {
	var s market.Scheduler
	started := make(chan struct{})
	finished := false

	s.Schedule(time.Millisecond, func() {
		close(started)
		time.Sleep(30 * time.Millisecond)
		finished = true
	})

	<-started
	s.Cancel()

	assert.True(t, finished, "Cancel must not return while the callback is running")
}

func TestCancelBeforeFireStopsCallback(t *testing.T) {
	var s market.Scheduler
	ran := make(chan struct{}, 1)

	s.Schedule(time.Hour, func() { ran <- struct{}{} })
	s.Cancel()

	select {
	case <-ran:
		t.Fatal("callback ran after Cancel")
	case <-time.After(20 * time.Millisecond):
	}
}

// Pausing must leave no tick handler in flight, so reading state the
// handlers mutate right after Pause returns is safe.
func TestPauseJoinsInFlightTick(t *testing.T) {
	cfg := market.DefaultConfig()
	cfg.TickInterval = time.Millisecond
	sim := market.New(cfg, domain.DefaultUniverse(), rand.New(rand.NewSource(1)))

	inTick := make(chan struct{}, 1)
	ticksHandled := 0
	sim.Ticked.Subscribe(func(market.TickInfo) {
		select {
		case inTick <- struct{}{}:
		default:
		}
		time.Sleep(5 * time.Millisecond)
		ticksHandled++
	})

	sim.Play()
	<-inTick
	sim.Pause()

	assert.GreaterOrEqual(t, ticksHandled, 1)
}
