package market

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/alejandrodnm/simtrader/internal/domain"
)

// ErrEmptySeries is reported when a replay is loaded with no bars.
var ErrEmptySeries = errors.New("market: empty historical series")

// ReplayState is the lifecycle of a replay run.
type ReplayState string

const (
	ReplayLoading  ReplayState = "loading"
	ReplayReady    ReplayState = "ready"
	ReplayPlaying  ReplayState = "playing"
	ReplayPaused   ReplayState = "paused"
	ReplayComplete ReplayState = "complete"
	ReplayError    ReplayState = "error"
)

// ReplayProgress reports how much of the series has been revealed.
type ReplayProgress struct {
	Revealed int
	Total    int
}

// Replay drives the same tick/day-close contract as the Simulator, but each
// tick reveals exactly one prefetched historical bar instead of generating
// one. Reaching the end of the series is terminal.
type Replay struct {
	Ticked    Signal[TickInfo]
	DayClosed Signal[int]
	Progress  Signal[ReplayProgress]
	Played    Signal[struct{}]
	Paused    Signal[struct{}]
	ResetDone Signal[struct{}]
	Completed Signal[struct{}]
	Failed    Signal[error]

	cfg   ReplayConfig
	sched *Scheduler

	mu       sync.Mutex
	symbol   string
	bars     []domain.Bar
	revealed int
	state    ReplayState
	speed    float64
	quote    domain.Quote
}

// ReplayConfig controls replay pacing and quote synthesis.
type ReplayConfig struct {
	TickInterval time.Duration
	SpreadHalf   float64 // half bid/ask spread as a fraction of close
}

// DefaultReplayConfig returns sensible replay settings.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		TickInterval: 500 * time.Millisecond,
		SpreadHalf:   0.0005,
	}
}

// NewReplay creates a replay driver in the loading state. Call Load once the
// historical fetch resolves.
func NewReplay(cfg ReplayConfig) *Replay {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultReplayConfig().TickInterval
	}
	return &Replay{
		cfg:   cfg,
		sched: &Scheduler{},
		state: ReplayLoading,
		speed: 1,
	}
}

// Load installs the fetched series and leaves the driver ready to play.
// An empty series transitions to the error state without emitting a tick;
// the caller may retry with a fresh Load.
func (r *Replay) Load(symbol string, bars []domain.Bar) error {
	r.mu.Lock()
	if len(bars) == 0 {
		r.state = ReplayError
		r.mu.Unlock()
		r.Failed.Emit(ErrEmptySeries)
		return ErrEmptySeries
	}

	// Renumber days so engine day stamps are 0-based regardless of source.
	owned := make([]domain.Bar, len(bars))
	copy(owned, bars)
	for i := range owned {
		owned[i].Day = i
	}

	r.symbol = symbol
	r.bars = owned
	r.revealed = 0
	r.state = ReplayReady
	r.quote = domain.Quote{Symbol: symbol}
	r.mu.Unlock()
	return nil
}

// Play starts revealing bars on the timer.
func (r *Replay) Play() {
	r.mu.Lock()
	if r.state != ReplayReady && r.state != ReplayPaused {
		r.mu.Unlock()
		return
	}
	r.state = ReplayPlaying
	r.mu.Unlock()

	r.Played.Emit(struct{}{})
	r.scheduleNext()
}

// Pause cancels the pending reveal.
func (r *Replay) Pause() {
	r.mu.Lock()
	if r.state != ReplayPlaying {
		r.mu.Unlock()
		return
	}
	r.state = ReplayPaused
	r.mu.Unlock()

	r.sched.Cancel()
	r.Paused.Emit(struct{}{})
}

// SetSpeed adjusts pacing via cancel-and-reschedule.
func (r *Replay) SetSpeed(mult float64) {
	if mult <= 0 {
		return
	}
	r.mu.Lock()
	r.speed = mult
	playing := r.state == ReplayPlaying
	r.mu.Unlock()

	if playing {
		r.sched.Cancel()
		r.scheduleNext()
	}
}

// Reset rewinds to the start of the loaded series.
func (r *Replay) Reset() {
	r.Pause()

	r.mu.Lock()
	if len(r.bars) > 0 {
		r.revealed = 0
		r.state = ReplayReady
		r.quote = domain.Quote{Symbol: r.symbol}
	}
	r.mu.Unlock()

	r.ResetDone.Emit(struct{}{})
}

func (r *Replay) scheduleNext() {
	r.mu.Lock()
	delay := time.Duration(float64(r.cfg.TickInterval) / r.speed)
	r.mu.Unlock()

	r.sched.Schedule(delay, func() {
		r.Step()
		r.mu.Lock()
		playing := r.state == ReplayPlaying
		r.mu.Unlock()
		if playing {
			r.scheduleNext()
		}
	})
}

// Step reveals the next bar. Terminal once the series is exhausted.
func (r *Replay) Step() {
	r.mu.Lock()
	if r.state == ReplayError || r.state == ReplayComplete || len(r.bars) == 0 {
		r.mu.Unlock()
		return
	}
	if r.revealed >= len(r.bars) {
		r.state = ReplayComplete
		r.mu.Unlock()
		r.Completed.Emit(struct{}{})
		return
	}

	bar := r.bars[r.revealed]
	r.revealed++

	half := bar.Close * r.cfg.SpreadHalf
	r.quote = domain.Quote{
		Symbol: r.symbol,
		Price:  bar.Close,
		Bid:    math.Max(bar.Close-half, 0.01),
		Ask:    bar.Close + half,
	}

	info := TickInfo{Tick: r.revealed, Day: bar.Day, IntraIndex: 0}
	progress := ReplayProgress{Revealed: r.revealed, Total: len(r.bars)}
	done := r.revealed == len(r.bars)
	if done {
		r.state = ReplayComplete
	}
	r.mu.Unlock()

	r.Ticked.Emit(info)
	r.DayClosed.Emit(bar.Day)
	r.Progress.Emit(progress)
	if done {
		// No Cancel here: Step may be running inside the scheduler
		// callback, and the reschedule loop already stops once the
		// state leaves playing.
		r.Completed.Emit(struct{}{})
	}
}

// Snapshot returns the market view over the revealed prefix of the series.
func (r *Replay) Snapshot() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	quotes := map[string]domain.Quote{}
	bars := map[string][]domain.Bar{}
	if r.symbol != "" {
		quotes[r.symbol] = r.quote
		bars[r.symbol] = r.bars[:r.revealed:r.revealed]
	}
	day := 0
	if r.revealed > 0 {
		day = r.bars[r.revealed-1].Day
	}
	return domain.Snapshot{
		Tick:   r.revealed,
		Day:    day,
		Quotes: quotes,
		Bars:   bars,
	}
}

// State returns the current lifecycle state.
func (r *Replay) State() ReplayState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
