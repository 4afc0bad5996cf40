package detect

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultRescanInterval = 500 * time.Millisecond

// Scheduler debounces structural-mutation notifications into full re-scans.
// The host delivers batched change notifications via NotifyMutation; the
// scheduler runs the scan callback at most once per configured minimum
// interval. Every run is a fresh pass: prior results are discarded, never
// patched.
type Scheduler struct {
	interval time.Duration
	run      func()
	logger   *zap.Logger

	mu     sync.Mutex
	timer  *time.Timer
	armed  bool
	closed bool
}

// NewScheduler returns a Scheduler invoking run after each debounce window.
func NewScheduler(interval time.Duration, run func(), logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultRescanInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{interval: interval, run: run, logger: logger}
}

// NotifyMutation records a batch of structural changes. The first
// notification arms the window timer; notifications arriving while the
// window is open are absorbed into the pending re-scan.
func (s *Scheduler) NotifyMutation() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.armed {
		return
	}

	s.armed = true
	s.timer = time.AfterFunc(s.interval, s.fire)
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.armed = false
	s.mu.Unlock()

	s.logger.Debug("debounce window expired, re-scanning")
	s.run()
}

// Stop cancels any pending re-scan and rejects further notifications.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
}
