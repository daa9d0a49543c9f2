package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/debounce"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// DefaultDebounce is the quiet period after the last edit before a save.
const DefaultDebounce = 2 * time.Second

// State is the position of the controller in the save state machine.
type State int

const (
	Idle State = iota
	Dirty
	Saving
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dirty:
		return "dirty"
	case Saving:
		return "saving"
	}
	return "unknown"
}

// Status is the save indicator shown to the user.
type Status int

const (
	StatusIdle Status = iota
	StatusSaving
	StatusSaved
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusSaving:
		return "Saving"
	case StatusSaved:
		return "Saved"
	case StatusFailed:
		return "Save failed"
	}
	return "unknown"
}

// SaveFunc persists the current document. It is called with no controller
// lock held and at most once at a time.
type SaveFunc func(ctx context.Context) error

// StatusFunc receives every status transition. err is set with StatusFailed.
type StatusFunc func(status Status, err error)

// Controller debounces edits into saves. It never retries on a timer: after a
// failure the document stays dirty until the next edit or flush.
type Controller struct {
	save     SaveFunc
	onStatus StatusFunc
	timer    *debounce.Timer
	slot     *semaphore.Weighted

	mu       sync.Mutex
	dirty    bool
	saving   bool
	revision uint64
	status   Status
	lastErr  error
}

// NewController creates a controller saving through save, delay after the
// last edit.
func NewController(clock clockwork.Clock, delay time.Duration, save SaveFunc, onStatus StatusFunc) *Controller {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	c := &Controller{
		save:     save,
		onStatus: onStatus,
		slot:     semaphore.NewWeighted(1),
	}
	c.timer = debounce.New(clock, delay, c.fire)
	return c
}

// MarkDirty records a content or title mutation and restarts the debounce.
func (c *Controller) MarkDirty() {
	c.mu.Lock()
	c.dirty = true
	c.revision++
	c.mu.Unlock()

	c.timer.Schedule()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.saving:
		return Saving
	case c.dirty:
		return Dirty
	}
	return Idle
}

// Status returns the last reported status and error.
func (c *Controller) Status() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.lastErr
}

// IsDirty reports whether there are unsaved changes.
func (c *Controller) IsDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Pending reports whether a debounced save is scheduled.
func (c *Controller) Pending() bool {
	return c.timer.Pending()
}

// Flush cancels the debounce and saves right away if there are unsaved
// changes. A flush during an in-flight save waits for it first.
func (c *Controller) Flush(ctx context.Context) error {
	c.timer.Cancel()
	return c.saveNow(ctx)
}

// Cancel stops a scheduled save without saving.
func (c *Controller) Cancel() {
	c.timer.Cancel()
}

// Resume schedules a save if changes are still unsaved, e.g. after a Cancel
// whose follow-up action failed.
func (c *Controller) Resume() {
	if c.IsDirty() {
		c.timer.Schedule()
	}
}

// Reset forgets unsaved changes, as done when other content replaces them.
func (c *Controller) Reset() {
	c.timer.Cancel()
	c.mu.Lock()
	c.dirty = false
	c.revision++
	c.mu.Unlock()
	c.report(StatusIdle, nil)
}

// Suspend waits for any in-flight save and keeps further saves from starting
// until release is called.
func (c *Controller) Suspend(ctx context.Context) (release func(), err error) {
	c.timer.Cancel()
	if err := c.slot.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(func() { c.slot.Release(1) }) }, nil
}

func (c *Controller) fire() {
	if err := c.saveNow(context.Background()); err != nil {
		logrus.Warnf("autosave failed: %v", err)
	}
}

func (c *Controller) saveNow(ctx context.Context) error {
	if err := c.slot.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.slot.Release(1)

	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	revision := c.revision
	c.saving = true
	c.mu.Unlock()
	c.report(StatusSaving, nil)

	err := c.save(ctx)

	c.mu.Lock()
	c.saving = false
	clean := err == nil && c.revision == revision
	if clean {
		c.dirty = false
	}
	c.mu.Unlock()

	if err != nil {
		c.report(StatusFailed, err)
		return err
	}

	// edits made during the save are still unsaved; the indicator stays at
	// Saving until the save that covers them
	if clean {
		c.report(StatusSaved, nil)
	}
	return nil
}

func (c *Controller) report(status Status, err error) {
	c.mu.Lock()
	c.status = status
	c.lastErr = err
	c.mu.Unlock()

	if c.onStatus != nil {
		c.onStatus(status, err)
	}
}
