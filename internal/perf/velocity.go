package perf

import (
	"sync"
	"time"
)

const (
	// VelocityDecay is the quiet period after which velocity drops to zero.
	VelocityDecay = 150 * time.Millisecond

	// frameMillis normalizes velocity to pixels per 60fps frame.
	frameMillis = 16.67
)

// ScrollVelocityTracker turns scroll position samples into a velocity in
// pixels per frame. Velocity is signed: negative values mean scrolling up.
type ScrollVelocityTracker struct {
	mu           sync.Mutex
	now          func() time.Time
	lastPosition float64
	lastTime     time.Time
	velocity     float64
	decay        *time.Timer
	generation   uint64 // bumped on every reschedule so a stale timer is ignored
}

// NewScrollVelocityTracker returns an idle tracker.
func NewScrollVelocityTracker() *ScrollVelocityTracker {
	return newScrollVelocityTracker(time.Now)
}

func newScrollVelocityTracker(now func() time.Time) *ScrollVelocityTracker {
	return &ScrollVelocityTracker{
		now:      now,
		lastTime: now(),
	}
}

// Update records a scroll position and returns the new velocity.
func (t *ScrollVelocityTracker) Update(position float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.now()
	elapsed := float64(current.Sub(t.lastTime)) / float64(time.Millisecond)
	if elapsed > 0 {
		t.velocity = (position - t.lastPosition) / elapsed * frameMillis
	}
	t.lastPosition = position
	t.lastTime = current

	t.scheduleDecayLocked()
	return t.velocity
}

// Velocity returns the last computed velocity.
func (t *ScrollVelocityTracker) Velocity() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.velocity
}

// Reset cancels any pending decay and returns the tracker to idle.
func (t *ScrollVelocityTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelDecayLocked()
	t.velocity = 0
	t.lastPosition = 0
	t.lastTime = t.now()
}

// Stop cancels the pending decay without touching the velocity. Call it
// when the owning view goes away.
func (t *ScrollVelocityTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelDecayLocked()
}

func (t *ScrollVelocityTracker) scheduleDecayLocked() {
	t.cancelDecayLocked()
	gen := t.generation
	t.decay = time.AfterFunc(VelocityDecay, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.generation != gen {
			return
		}
		t.velocity = 0
		t.decay = nil
	})
}

func (t *ScrollVelocityTracker) cancelDecayLocked() {
	t.generation++
	if t.decay != nil {
		t.decay.Stop()
		t.decay = nil
	}
}
