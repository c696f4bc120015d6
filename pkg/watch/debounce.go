package watch

import (
	"sync"
	"time"
)

// Debouncer calls fn once delay has elapsed since the last Trigger
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer; nothing runs until Trigger is called
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger starts the delay, restarting it if it is already running
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Stop cancels a pending call; later triggers are ignored
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Runner runs a function one invocation at a time. Requests arriving while
// a run is in progress collapse into a single follow-up run.
type Runner struct {
	run     func()
	pending chan struct{}
}

// NewRunner creates a runner for fn
func NewRunner(fn func()) *Runner {
	return &Runner{run: fn, pending: make(chan struct{}, 1)}
}

// Request asks for a run without blocking
func (r *Runner) Request() {
	select {
	case r.pending <- struct{}{}:
	default:
	}
}

// Loop serves requests until done is closed
func (r *Runner) Loop(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-r.pending:
			r.run()
		}
	}
}
