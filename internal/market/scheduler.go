package market

import (
	"sync"
	"time"
)

// Scheduler owns at most one pending timer. Scheduling cancels whatever was
// pending first, so pause/resume and speed changes are a cancel followed by
// a reschedule and no two callbacks can ever be in flight together.
//
// Cancel joins a callback that has already fired: once it returns, no
// callback is running and callers may safely touch the state the callback
// mutates. For that reason Cancel must not be called from inside the
// callback itself.
type Scheduler struct {
	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

// Schedule cancels any pending callback and arms fn to run after d.
func (s *Scheduler) Schedule(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	done := make(chan struct{})
	s.done = done
	s.timer = time.AfterFunc(d, func() {
		defer close(done)
		fn()
	})
}

// Cancel stops the pending callback if it has not fired yet, or waits for
// it to finish if it has.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	timer, done := s.timer, s.done
	s.timer, s.done = nil, nil
	s.mu.Unlock()

	if timer == nil {
		return
	}
	if !timer.Stop() {
		<-done
	}
}
