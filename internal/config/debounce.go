package config

import (
	"sync"
	"time"
)

// DefaultDebounce is the window used to coalesce bursts of file events.
const DefaultDebounce = 250 * time.Millisecond

// debouncer runs only the last callback triggered within its window.
type debouncer struct {
	duration time.Duration
	timer    *time.Timer
	mu       sync.Mutex
}

func newDebouncer(duration time.Duration) *debouncer {
	if duration <= 0 {
		duration = DefaultDebounce
	}
	return &debouncer{duration: duration}
}

// trigger schedules fn, replacing any pending callback.
func (d *debouncer) trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// cancel drops any pending callback.
func (d *debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
