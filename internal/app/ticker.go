package app

import (
	"sync"
	"time"
)

// FrameTicker calls a function at a fixed interval from a background
// goroutine. The shell uses it to drive State.Tick and to flush
// preferences.
type FrameTicker struct {
	interval time.Duration
	mu       sync.Mutex
	stopCh   chan struct{}
	onTick   []func()
	ticks    int
}

// NewFrameTicker creates a stopped ticker. Non-positive intervals fall back
// to 60 ticks per second.
func NewFrameTicker(interval time.Duration) *FrameTicker {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &FrameTicker{interval: interval}
}

// OnTick adds a callback. Callbacks run on the ticker goroutine; use
// appropriate synchronization if updating UI.
func (t *FrameTicker) OnTick(callback func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTick = append(t.onTick, callback)
}

// Start begins ticking in a background goroutine. Starting a running ticker
// is a no-op.
func (t *FrameTicker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopCh != nil {
		return
	}
	// Fresh stop channel in case we're restarting
	t.stopCh = make(chan struct{})
	go t.loop(t.stopCh)
}

// Stop stops the ticker goroutine.
func (t *FrameTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopCh == nil {
		return
	}
	close(t.stopCh)
	t.stopCh = nil
}

// Ticks returns how many ticks have fired.
func (t *FrameTicker) Ticks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks
}

// Interval returns the tick interval.
func (t *FrameTicker) Interval() time.Duration {
	return t.interval
}

func (t *FrameTicker) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			t.ticks++
			callbacks := t.onTick
			t.mu.Unlock()
			for _, fn := range callbacks {
				fn()
			}
		}
	}
}
