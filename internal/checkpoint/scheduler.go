package checkpoint

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const (
	DefaultInterval   = 4 * time.Minute
	DefaultThreshold  = 700
	DefaultAlertAfter = 3
)

// CreateFunc snapshots the current content into a new checkpoint.
type CreateFunc func(ctx context.Context) error

// Config tunes a Scheduler. Zero values fall back to the defaults.
type Config struct {
	Interval   time.Duration
	Threshold  int
	AlertAfter int
	Clock      clockwork.Clock

	// OnCreated runs after every successful checkpoint.
	OnCreated func()
	// OnFailed runs after every failed scheduled checkpoint with the number
	// of consecutive failures; alert is set once that count reaches
	// AlertAfter.
	OnFailed func(err error, consecutive int, alert bool)
}

// Scheduler decides when to snapshot the open document. It is evaluated
// inline with every mutation; there is no timer of its own.
type Scheduler struct {
	cfg    Config
	create CreateFunc

	mu       sync.Mutex
	enabled  bool
	changed  int
	lastAt   time.Time
	inFlight bool
	failures int
	epoch    uint64

	wg sync.WaitGroup
}

// NewScheduler creates an enabled scheduler with counters reset to now.
func NewScheduler(cfg Config, create CreateFunc) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.AlertAfter <= 0 {
		cfg.AlertAfter = DefaultAlertAfter
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &Scheduler{
		cfg:     cfg,
		create:  create,
		enabled: true,
		lastAt:  cfg.Clock.Now(),
	}
}

// Observe adds the units of one mutation and starts a checkpoint in the
// background when the interval elapsed or the threshold is reached. It
// reports whether a checkpoint was started.
func (s *Scheduler) Observe(units int) bool {
	if units < 0 {
		units = 0
	}

	s.mu.Lock()
	s.changed += units
	due := s.enabled && !s.inFlight && s.dueLocked()
	if due {
		s.inFlight = true
	}
	epoch := s.epoch
	s.mu.Unlock()

	if !due {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(epoch)
	}()

	return true
}

// Force snapshots right away regardless of counters or enablement.
func (s *Scheduler) Force(ctx context.Context) error {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	if err := s.create(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if epoch == s.epoch {
		s.resetLocked()
	}
	s.mu.Unlock()

	if s.cfg.OnCreated != nil {
		s.cfg.OnCreated()
	}
	return nil
}

// Reset sets the counters to zero and now. Results of checkpoints started
// before the reset no longer touch the counters.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.inFlight = false
	s.failures = 0
	s.resetLocked()
}

// SetEnabled turns scheduled checkpoints on or off. Force is unaffected.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Enabled reports whether scheduled checkpoints are on.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Changed returns the units changed since the last checkpoint.
func (s *Scheduler) Changed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// LastCheckpointAt returns the time of the last checkpoint or reset.
func (s *Scheduler) LastCheckpointAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAt
}

// Failures returns the number of consecutive failed scheduled checkpoints.
func (s *Scheduler) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// Wait blocks until background checkpoints have finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) dueLocked() bool {
	return s.cfg.Clock.Since(s.lastAt) >= s.cfg.Interval || s.changed >= s.cfg.Threshold
}

func (s *Scheduler) resetLocked() {
	s.changed = 0
	s.lastAt = s.cfg.Clock.Now()
}

func (s *Scheduler) run(epoch uint64) {
	err := s.create(context.Background())

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return
	}
	s.inFlight = false
	if err == nil {
		s.failures = 0
		s.resetLocked()
		s.mu.Unlock()

		if s.cfg.OnCreated != nil {
			s.cfg.OnCreated()
		}
		return
	}
	s.failures++
	failures := s.failures
	s.mu.Unlock()

	alert := failures >= s.cfg.AlertAfter
	logrus.WithFields(logrus.Fields{
		"consecutive": failures,
		"alert":       alert,
	}).Warnf("checkpoint failed: %v", err)

	if s.cfg.OnFailed != nil {
		s.cfg.OnFailed(err, failures, alert)
	}
}
