package market

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/alejandrodnm/simtrader/internal/domain"
	"github.com/google/uuid"
)

// Config controls the synthetic simulator.
type Config struct {
	TickInterval  time.Duration // base inter-tick delay at speed 1
	TicksPerDay   int
	Scenario      domain.Scenario
	EventBaseProb float64 // per-tick spawn probability before scenario scaling
	MeanReversion float64 // pull strength toward base price per tick
	PriceFloor    float64
	BaseVolume    float64 // scale of the per-tick volume increment
	GapScale      float64 // overnight gap size relative to volatility
	SpreadHalf    float64 // half bid/ask spread as a fraction of price
}

// DefaultConfig returns production-sensible simulator settings.
func DefaultConfig() Config {
	return Config{
		TickInterval:  500 * time.Millisecond,
		TicksPerDay:   60,
		Scenario:      domain.ScenarioNormal,
		EventBaseProb: 0.015,
		MeanReversion: 0.002,
		PriceFloor:    0.01,
		BaseVolume:    8000,
		GapScale:      3.0,
		SpreadHalf:    0.0008,
	}
}

// TickInfo is the payload of every tick signal.
type TickInfo struct {
	Tick       int
	Day        int
	IntraIndex int
}

// Simulator owns all instrument state and advances it on a discrete tick
// clock. All mutation happens inside Step under one mutex; the decision
// engine and presentation layer only ever see snapshots.
type Simulator struct {
	Ticked     Signal[TickInfo]
	DayClosed  Signal[int]
	EventFired Signal[domain.MarketEvent]
	Played     Signal[struct{}]
	Paused     Signal[struct{}]
	ResetDone  Signal[struct{}]

	cfg   Config
	rng   *rand.Rand
	sched *Scheduler

	mu          sync.Mutex
	instruments []*domain.Instrument
	bySymbol    map[string]*domain.Instrument
	events      []domain.MarketEvent
	tick        int
	day         int
	intra       int
	speed       float64
	playing     bool
}

// New creates a simulator over the given instruments. The rng is injected so
// tests and replays can be deterministic.
func New(cfg Config, instruments []*domain.Instrument, rng *rand.Rand) *Simulator {
	if cfg.TicksPerDay <= 0 {
		cfg.TicksPerDay = DefaultConfig().TicksPerDay
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	bySymbol := make(map[string]*domain.Instrument, len(instruments))
	for _, in := range instruments {
		bySymbol[in.Symbol] = in
	}
	return &Simulator{
		cfg:         cfg,
		rng:         rng,
		sched:       &Scheduler{},
		instruments: instruments,
		bySymbol:    bySymbol,
		speed:       1,
	}
}

// Play starts (or resumes) timer-driven ticking.
func (s *Simulator) Play() {
	s.mu.Lock()
	if s.playing {
		s.mu.Unlock()
		return
	}
	s.playing = true
	s.mu.Unlock()

	s.Played.Emit(struct{}{})
	s.scheduleNext()
}

// Pause cancels the pending tick without touching accumulated state.
func (s *Simulator) Pause() {
	s.mu.Lock()
	if !s.playing {
		s.mu.Unlock()
		return
	}
	s.playing = false
	s.mu.Unlock()

	s.sched.Cancel()
	s.Paused.Emit(struct{}{})
}

// SetSpeed changes the speed multiplier. While playing this is a
// cancel-and-reschedule, so no state is lost and no tick runs twice.
func (s *Simulator) SetSpeed(mult float64) {
	if mult <= 0 {
		return
	}
	s.mu.Lock()
	s.speed = mult
	playing := s.playing
	s.mu.Unlock()

	if playing {
		s.sched.Cancel()
		s.scheduleNext()
	}
}

// SetScenario swaps the active scenario. Only future ticks are affected.
func (s *Simulator) SetScenario(sc domain.Scenario) {
	s.mu.Lock()
	s.cfg.Scenario = sc
	s.mu.Unlock()
}

// Reset pauses and restores every instrument to its base price with empty
// history, clearing all active events and the clock.
func (s *Simulator) Reset() {
	s.Pause()

	s.mu.Lock()
	s.tick, s.day, s.intra = 0, 0, 0
	s.events = nil
	for _, in := range s.instruments {
		in.Price = in.BasePrice
		in.Open = in.BasePrice
		in.High = in.BasePrice
		in.Low = in.BasePrice
		in.Bid = in.BasePrice
		in.Ask = in.BasePrice
		in.Volume = 0
		in.History = nil
		in.Trace = nil
		in.EventEffect = 0
		in.EventVolMult = 1
		in.EventTicksLeft = 0
	}
	s.mu.Unlock()

	s.ResetDone.Emit(struct{}{})
}

func (s *Simulator) scheduleNext() {
	s.mu.Lock()
	delay := time.Duration(float64(s.cfg.TickInterval) / s.speed)
	s.mu.Unlock()

	s.sched.Schedule(delay, func() {
		s.Step()
		s.mu.Lock()
		playing := s.playing
		s.mu.Unlock()
		if playing {
			s.scheduleNext()
		}
	})
}

// Step advances the clock by exactly one tick. Exposed so fixed-length runs
// and tests can drive the simulator without the timer.
func (s *Simulator) Step() {
	s.mu.Lock()

	s.tick++
	s.intra = s.tick % s.cfg.TicksPerDay

	var closedDay = -1
	if s.intra == 0 {
		closedDay = s.day
		s.closeDay()
	}

	fired := s.maybeSpawnEvent()
	for _, in := range s.instruments {
		s.updatePrice(in)
	}
	s.decayEvents()

	info := TickInfo{Tick: s.tick, Day: s.day, IntraIndex: s.intra}
	s.mu.Unlock()

	if closedDay >= 0 {
		s.DayClosed.Emit(closedDay)
	}
	if fired != nil {
		s.EventFired.Emit(*fired)
	}
	s.Ticked.Emit(info)
}

// closeDay freezes the current bar of every instrument into history and
// opens the next one with a random overnight gap. Caller holds the lock.
func (s *Simulator) closeDay() {
	for _, in := range s.instruments {
		in.History = append(in.History, domain.Bar{
			Day:    s.day,
			Open:   in.Open,
			High:   in.High,
			Low:    in.Low,
			Close:  in.Price,
			Volume: in.Volume,
		})

		gap := (s.rng.Float64()*2 - 1) * in.Volatility * s.cfg.GapScale * in.Price
		in.Price = s.clampPrice(in.Price + gap)
		in.Open = in.Price
		in.High = in.Price
		in.Low = in.Price
		in.Volume = 0
	}
	s.day++
}

// maybeSpawnEvent rolls for a new market event. A fresh event on an
// instrument overwrites any in-progress effect. Caller holds the lock.
func (s *Simulator) maybeSpawnEvent() *domain.MarketEvent {
	prob := s.cfg.EventBaseProb * s.cfg.Scenario.EventFrequency
	if s.rng.Float64() >= prob || len(s.instruments) == 0 {
		return nil
	}

	in := s.instruments[s.rng.Intn(len(s.instruments))]
	tpl := domain.EventTemplates[s.rng.Intn(len(domain.EventTemplates))]
	magnitude := tpl.MinEffect + s.rng.Float64()*(tpl.MaxEffect-tpl.MinEffect)
	duration := tpl.MinTicks + s.rng.Intn(tpl.MaxTicks-tpl.MinTicks+1)

	in.EventEffect = magnitude
	in.EventVolMult = tpl.VolMult
	in.EventTicksLeft = duration

	ev := domain.MarketEvent{
		ID:        uuid.NewString(),
		Type:      tpl.Type,
		Symbol:    in.Symbol,
		Text:      fmt.Sprintf(tpl.Headline, in.Name),
		Magnitude: magnitude,
		Day:       s.day,
		Tick:      s.tick,
		Duration:  duration,
		TicksLeft: duration,
	}
	s.events = append(s.events, ev)
	return &ev
}

// updatePrice applies the per-tick price model to one instrument.
// Caller holds the lock.
func (s *Simulator) updatePrice(in *domain.Instrument) {
	noise := (s.rng.Float64()*2 - 1) * in.Volatility * s.cfg.Scenario.Volatility * in.EventVolMult * in.Price
	trend := in.Drift * s.cfg.Scenario.Trend * in.Price
	meanRev := s.cfg.MeanReversion * (in.BasePrice - in.Price)
	eventDrift := in.EventEffect * in.Price

	in.Price = s.clampPrice(in.Price + noise + trend + meanRev + eventDrift)
	in.High = math.Max(in.High, in.Price)
	in.Low = math.Min(in.Low, in.Price)

	half := in.Price * s.cfg.SpreadHalf * (0.5 + s.rng.Float64())
	in.Bid = s.clampPrice(in.Price - half)
	in.Ask = in.Price + half

	vol := s.cfg.BaseVolume * (0.2 + s.rng.Float64())
	in.Volume += vol

	in.Trace = append(in.Trace, domain.TickPoint{Price: in.Price, Volume: vol})
	if len(in.Trace) > domain.MaxTickTrace {
		in.Trace = in.Trace[len(in.Trace)-domain.MaxTickTrace:]
	}
}

// decayEvents walks active effects down linearly and clears them at zero.
// Decrementing by effect/ticksLeft each tick gives an exact linear ramp.
// Caller holds the lock.
func (s *Simulator) decayEvents() {
	for _, in := range s.instruments {
		if in.EventTicksLeft <= 0 {
			continue
		}
		in.EventEffect -= in.EventEffect / float64(in.EventTicksLeft)
		in.EventTicksLeft--
		if in.EventTicksLeft == 0 {
			in.EventEffect = 0
			in.EventVolMult = 1
		}
	}

	live := s.events[:0]
	for _, ev := range s.events {
		ev.TicksLeft--
		if ev.TicksLeft > 0 {
			live = append(live, ev)
		}
	}
	s.events = live
}

func (s *Simulator) clampPrice(p float64) float64 {
	if p < s.cfg.PriceFloor {
		return s.cfg.PriceFloor
	}
	return p
}

// Snapshot returns an immutable market view for the decision engine.
// History slices are shared: closed bars never mutate.
func (s *Simulator) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	quotes := make(map[string]domain.Quote, len(s.instruments))
	bars := make(map[string][]domain.Bar, len(s.instruments))
	for _, in := range s.instruments {
		quotes[in.Symbol] = domain.Quote{Symbol: in.Symbol, Price: in.Price, Bid: in.Bid, Ask: in.Ask}
		bars[in.Symbol] = in.History[:len(in.History):len(in.History)]
	}
	return domain.Snapshot{
		Tick:       s.tick,
		Day:        s.day,
		IntraIndex: s.intra,
		Quotes:     quotes,
		Bars:       bars,
	}
}

// ActiveEvents returns a copy of the currently live events.
func (s *Simulator) ActiveEvents() []domain.MarketEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MarketEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Instrument returns the live instrument for symbol. Callers outside the
// simulator must treat it as read-only.
func (s *Simulator) Instrument(symbol string) (*domain.Instrument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.bySymbol[symbol]
	return in, ok
}

// Playing reports whether the timer loop is active.
func (s *Simulator) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Clock returns the current tick, day and intra-day index.
func (s *Simulator) Clock() (tick, day, intra int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick, s.day, s.intra
}
