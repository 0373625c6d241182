package controller

import (
	"sync"
	"time"
)

// debouncer is an explicit cancellable-timer handle: arming it invalidates
// whatever was pending, so only the most recent timer ever fires.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer() *debouncer {
	return &debouncer{}
}

func (d *debouncer) Arm(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(delay, fn)
}

func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
