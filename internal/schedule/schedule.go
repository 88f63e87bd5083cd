// Package schedule runs periodic and one-shot callbacks. Real drives them from
// the wall clock; Manual lets tests move time explicitly.
package schedule

import (
	"context"
	"sync"
	"time"
)

// Task is a handle to a scheduled callback.
type Task interface {
	// Stop cancels future runs. It is safe to call more than once.
	Stop()
}

// Scheduler creates tasks and reports the current time.
type Scheduler interface {
	Now() time.Time
	Every(interval time.Duration, fn func()) Task
	After(delay time.Duration, fn func()) Task
}

// Real schedules callbacks on goroutines driven by time tickers.
type Real struct {
	ctx context.Context
}

// NewReal returns a scheduler whose tasks also stop when ctx is done.
func NewReal(ctx context.Context) *Real {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Real{ctx: ctx}
}

func (r *Real) Now() time.Time { return time.Now() }

// Every runs fn each interval until the task is stopped.
func (r *Real) Every(interval time.Duration, fn func()) Task {
	ctx, cancel := context.WithCancel(r.ctx)
	t := &realTask{cancel: cancel}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return t
}

// After runs fn once after delay unless the task is stopped first.
func (r *Real) After(delay time.Duration, fn func()) Task {
	ctx, cancel := context.WithCancel(r.ctx)
	t := &realTask{cancel: cancel}
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			fn()
		}
	}()
	return t
}

type realTask struct {
	once   sync.Once
	cancel context.CancelFunc
}

func (t *realTask) Stop() {
	t.once.Do(t.cancel)
}
