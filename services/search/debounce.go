package search

import (
	"sync"
	"time"
)

// Debouncer runs only the most recently scheduled function, once no newer
// call has arrived for the configured delay.
type Debouncer struct {
	delay time.Duration

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	pending    func()
	closed     bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule replaces any pending function with fn.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.cancel()
	generation := d.generation
	d.pending = fn

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.generation == generation && !d.closed
		if current {
			d.pending = nil
			d.timer = nil
		}
		d.mu.Unlock()

		if current {
			fn()
		}
	})
}

// Flush runs the pending function now instead of waiting for the delay.
// It reports whether there was one.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.pending
	d.cancel()
	d.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// Cancel drops the pending function, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancel()
}

// Close cancels the pending function and ignores every later Schedule.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.cancel()
}

func (d *Debouncer) cancel() {
	d.generation++
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
