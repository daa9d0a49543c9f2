package debounce

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is a trailing-edge debounce timer. Every Schedule call pushes the
// deadline back to delay after the call; fn runs once the deadline passes
// without another Schedule. fn runs on its own goroutine.
type Timer struct {
	clock clockwork.Clock
	delay time.Duration
	fn    func()

	mu    sync.Mutex
	seq   uint64
	timer clockwork.Timer
	stop  chan struct{}
}

// New creates a timer that calls fn delay after the last Schedule.
func New(clock clockwork.Clock, delay time.Duration, fn func()) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timer{
		clock: clock,
		delay: delay,
		fn:    fn,
	}
}

// Delay returns the debounce delay.
func (t *Timer) Delay() time.Duration {
	return t.delay
}

// Schedule (re)starts the timer.
func (t *Timer) Schedule() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()
	t.seq++
	seq := t.seq
	timer := t.clock.NewTimer(t.delay)
	stop := make(chan struct{})
	t.timer = timer
	t.stop = stop

	go func() {
		select {
		case <-timer.Chan():
			t.expire(seq)
		case <-stop:
		}
	}()
}

// Cancel stops a pending timer. It reports whether one was pending.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelLocked()
}

// FireNow cancels a pending timer and runs fn on the calling goroutine.
func (t *Timer) FireNow() {
	t.Cancel()
	t.fn()
}

// Pending reports whether a fire is scheduled.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

func (t *Timer) expire(seq uint64) {
	t.mu.Lock()
	if seq != t.seq || t.timer == nil {
		// superseded by a later Schedule or Cancel
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.stop = nil
	t.mu.Unlock()

	t.fn()
}

func (t *Timer) cancelLocked() bool {
	if t.timer == nil {
		return false
	}
	t.timer.Stop()
	close(t.stop)
	t.timer = nil
	t.stop = nil
	t.seq++
	return true
}
