package tracking

import (
	"sync"
	"time"
)

// Timer is a restartable one-shot trigger. Start arms it to run the callback once after the
// interval. The timer stays armed until Reset is called, which is how the callback's owner
// acknowledges a fire; the next Start then arms a fresh cycle. Cancel disarms it for good.
//
// The timer never repeats by itself: the owner decides when the next cycle begins.
type Timer struct {
	mu       sync.Mutex
	interval time.Duration
	callback func()

	t        *time.Timer
	armed    bool
	canceled bool
	// gen invalidates fires scheduled before the latest Reset or Cancel.
	gen uint64
}

// NewTimer creates a disarmed timer.
func NewTimer(interval time.Duration, callback func()) *Timer {
	return &Timer{interval: interval, callback: callback}
}

// Start arms the timer. It returns false if the timer was already armed or is canceled.
func (t *Timer) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.armed || t.canceled {
		return false
	}
	t.armed = true
	t.gen++
	gen := t.gen
	t.t = time.AfterFunc(t.interval, func() { t.fire(gen) })
	return true
}

// Reset disarms the timer without running the callback.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarm()
}

// Cancel disarms the timer permanently.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.canceled = true
	t.disarm()
}

// Armed reports whether a fire is pending or in progress.
func (t *Timer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

func (t *Timer) disarm() {
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
	t.armed = false
	t.gen++
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	live := gen == t.gen && t.armed && !t.canceled
	t.mu.Unlock()

	if live {
		t.callback()
	}
}
