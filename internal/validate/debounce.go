package validate

import (
	"sync"
	"time"
)

// Debouncer groups rapid successive calls into a single call after a
// quiet period. All methods are safe for concurrent use.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending func()
	gen     uint64
	stopped bool
}

// NewDebouncer creates a debouncer that waits delay after the last
// Schedule before running the work.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule replaces any pending work with fn and restarts the quiet
// period. It returns the generation of the scheduled work.
func (d *Debouncer) Schedule(fn func()) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return d.gen
	}
	d.gen++
	gen := d.gen
	d.pending = fn

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.gen != gen || d.pending == nil {
			d.mu.Unlock()
			return
		}
		work := d.pending
		d.pending = nil
		d.timer = nil
		d.mu.Unlock()
		work()
	})
	return gen
}

// Flush runs the pending work now, on the calling goroutine. It reports
// whether there was any.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	// A timer already firing sees a newer generation and returns.
	d.gen++
	work := d.pending
	d.pending = nil
	d.mu.Unlock()

	if work == nil {
		return false
	}
	work()
	return true
}

// Cancel drops the pending work.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = nil
}

// Stop cancels the pending work and ignores later calls to Schedule.
func (d *Debouncer) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}

// Pending reports whether work is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Generation returns the generation of the most recent Schedule, Flush
// or Cancel.
func (d *Debouncer) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}
