package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManual_EveryAndAfter(t *testing.T) {
	m := NewManual(epoch)
	var ticks []time.Time
	var fired []time.Time

	m.Every(time.Second, func() { ticks = append(ticks, m.Now()) })
	m.After(2500*time.Millisecond, func() { fired = append(fired, m.Now()) })

	m.Advance(3 * time.Second)

	assert.Equal(t, []time.Time{epoch.Add(time.Second), epoch.Add(2 * time.Second), epoch.Add(3 * time.Second)}, ticks)
	assert.Equal(t, []time.Time{epoch.Add(2500 * time.Millisecond)}, fired)
	assert.Equal(t, epoch.Add(3*time.Second), m.Now())
	assert.Equal(t, 1, m.Pending())
}

func TestManual_StopFromCallback(t *testing.T) {
	m := NewManual(epoch)
	count := 0
	var task Task
	task = m.Every(time.Second, func() {
		count++
		if count == 2 {
			task.Stop()
		}
	})

	m.Advance(10 * time.Second)

	assert.Equal(t, 2, count)
	assert.Zero(t, m.Pending())
	task.Stop()
}

func TestManual_ScheduleFromCallback(t *testing.T) {
	m := NewManual(epoch)
	var order []string
	m.After(time.Second, func() {
		order = append(order, "first")
		m.After(time.Second, func() { order = append(order, "second") })
	})

	m.Advance(5 * time.Second)

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestReal_EveryStops(t *testing.T) {
	var n atomic.Int32
	task := NewReal(context.Background()).Every(5*time.Millisecond, func() { n.Add(1) })

	assert.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, time.Millisecond)
	task.Stop()
	task.Stop()
	stopped := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, n.Load(), stopped+1)
}

func TestReal_AfterCanceledByContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var fired atomic.Bool
	NewReal(ctx).After(20*time.Millisecond, func() { fired.Store(true) })
	cancel()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
}
