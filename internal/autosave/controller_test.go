package autosave

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wait = time.Second

type recorder struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *recorder) record(status Status, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recorder) last() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return StatusIdle
	}
	return r.statuses[len(r.statuses)-1]
}

func TestController_BurstProducesOneSave(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	var savedAt atomic.Int64
	start := clock.Now()

	c := NewController(clock, DefaultDebounce, func(ctx context.Context) error {
		calls.Add(1)
		savedAt.Store(int64(clock.Since(start)))
		return nil
	}, nil)

	for i := 0; i < 6; i++ {
		c.MarkDirty()
		assert.Equal(t, Dirty, c.State())
		if i < 5 {
			clock.Advance(500 * time.Millisecond)
		}
	}
	// last edit at 2500ms
	clock.Advance(1999 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, wait, time.Millisecond)
	assert.Equal(t, int64(4500*time.Millisecond), savedAt.Load())
	assert.Eventually(t, func() bool { return c.State() == Idle }, wait, time.Millisecond)

	clock.Advance(time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestController_FailureDoesNotRetryOnTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	failing := atomic.Bool{}
	failing.Store(true)
	rec := &recorder{}

	c := NewController(clock, time.Second, func(ctx context.Context) error {
		calls.Add(1)
		if failing.Load() {
			return errors.New("boom")
		}
		return nil
	}, rec.record)

	c.MarkDirty()
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return rec.last() == StatusFailed }, wait, time.Millisecond)
	assert.True(t, c.IsDirty())

	clock.Advance(time.Hour)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	// the next edit retries
	failing.Store(false)
	c.MarkDirty()
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return rec.last() == StatusSaved }, wait, time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
	assert.False(t, c.IsDirty())
}

func TestController_FlushOnlyWhenDirty(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	c := NewController(clock, time.Second, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, nil)

	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, int32(0), calls.Load())

	c.MarkDirty()
	assert.True(t, c.Pending())
	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, c.Pending())
	assert.False(t, c.IsDirty())

	// the cancelled debounce does not save again
	clock.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestController_SavesNeverOverlap(t *testing.T) {
	clock := clockwork.NewFakeClock()
	release := make(chan struct{})
	var inFlight, maxInFlight, calls atomic.Int32

	c := NewController(clock, time.Second, func(ctx context.Context) error {
		n := inFlight.Add(1)
		if n > maxInFlight.Load() {
			maxInFlight.Store(n)
		}
		if calls.Add(1) == 1 {
			<-release
		}
		inFlight.Add(-1)
		return nil
	}, nil)

	c.MarkDirty()
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return c.State() == Saving }, wait, time.Millisecond)

	// an edit during the save keeps the document dirty
	c.MarkDirty()
	c.Cancel()

	flushed := make(chan error, 1)
	go func() { flushed <- c.Flush(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	require.NoError(t, <-flushed)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.False(t, c.IsDirty())
}

func TestController_EditDuringSaveIsNotReportedSaved(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &recorder{}
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	var calls atomic.Int32

	c := NewController(clock, time.Second, func(ctx context.Context) error {
		started <- struct{}{}
		if calls.Add(1) == 1 {
			<-release
		}
		return nil
	}, rec.record)

	c.MarkDirty()
	clock.Advance(time.Second)
	<-started

	c.MarkDirty()
	close(release)
	require.Eventually(t, func() bool { return c.State() == Dirty }, wait, time.Millisecond)
	assert.Equal(t, StatusSaving, rec.last())
	status, _ := c.Status()
	assert.Equal(t, StatusSaving, status)

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return rec.last() == StatusSaved }, wait, time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
	assert.False(t, c.IsDirty())
}

func TestController_ResetAndSuspend(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	c := NewController(clock, time.Second, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, nil)

	c.MarkDirty()
	release, err := c.Suspend(context.Background())
	require.NoError(t, err)
	assert.False(t, c.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Flush(ctx), context.DeadlineExceeded)

	c.Reset()
	release()
	release()

	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, Idle, c.State())

	c.MarkDirty()
	c.Cancel()
	c.Resume()
	assert.True(t, c.Pending())
}
