package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

const wait = time.Second

func TestTimer_TrailingEdge(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var fired atomic.Int32
	timer := New(clock, 2*time.Second, func() { fired.Add(1) })

	for i := 0; i < 5; i++ {
		timer.Schedule()
		clock.Advance(500 * time.Millisecond)
	}
	assert.True(t, timer.Pending())

	// 500ms already elapsed since the last schedule
	clock.Advance(1499 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	clock.Advance(time.Millisecond)
	assert.Eventually(t, func() bool { return fired.Load() == 1 }, wait, time.Millisecond)
	assert.False(t, timer.Pending())

	clock.Advance(10 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestTimer_Cancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var fired atomic.Int32
	timer := New(clock, time.Second, func() { fired.Add(1) })

	assert.False(t, timer.Cancel())

	timer.Schedule()
	assert.True(t, timer.Cancel())
	assert.False(t, timer.Pending())

	clock.Advance(2 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestTimer_FireNow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var fired atomic.Int32
	timer := New(clock, time.Second, func() { fired.Add(1) })

	timer.Schedule()
	timer.FireNow()
	assert.Equal(t, int32(1), fired.Load())

	// the cancelled schedule does not fire again
	clock.Advance(2 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}
