package perf

import (
	"math"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*ScrollVelocityTracker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	return newScrollVelocityTracker(clock.now), clock
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScrollVelocityTrackerUpdate(t *testing.T) {
	tr, clock := newTestTracker()
	defer tr.Stop()

	clock.advance(10 * time.Millisecond)
	got := tr.Update(100)
	want := 100.0 / 10 * frameMillis
	if !approxEqual(got, want) {
		t.Errorf("Update(100) = %v, want %v", got, want)
	}
	if !approxEqual(tr.Velocity(), want) {
		t.Errorf("Velocity() = %v, want %v", tr.Velocity(), want)
	}

	clock.advance(20 * time.Millisecond)
	got = tr.Update(60)
	want = -40.0 / 20 * frameMillis
	if !approxEqual(got, want) {
		t.Errorf("scrolling up: Update(60) = %v, want %v", got, want)
	}
}

func TestScrollVelocityTrackerZeroElapsedKeepsVelocity(t *testing.T) {
	tr, clock := newTestTracker()
	defer tr.Stop()

	clock.advance(5 * time.Millisecond)
	first := tr.Update(50)

	// Same instant: velocity stays, position still moves.
	if got := tr.Update(500); !approxEqual(got, first) {
		t.Errorf("zero elapsed changed velocity: %v -> %v", first, got)
	}

	clock.advance(10 * time.Millisecond)
	got := tr.Update(510)
	want := 10.0 / 10 * frameMillis
	if !approxEqual(got, want) {
		t.Errorf("position from zero-elapsed sample not recorded: got %v, want %v", got, want)
	}
}

func TestScrollVelocityTrackerDecaysToZero(t *testing.T) {
	tr, clock := newTestTracker()
	defer tr.Stop()

	clock.advance(10 * time.Millisecond)
	if tr.Update(100) == 0 {
		t.Fatal("expected non-zero velocity after update")
	}

	time.Sleep(VelocityDecay + 100*time.Millisecond)

	if v := tr.Velocity(); v != 0 {
		t.Errorf("Velocity() = %v after quiet period, want 0", v)
	}
}

func TestScrollVelocityTrackerUpdateReschedulesDecay(t *testing.T) {
	tr, clock := newTestTracker()
	defer tr.Stop()

	clock.advance(10 * time.Millisecond)
	tr.Update(100)

	time.Sleep(VelocityDecay / 2)
	clock.advance(10 * time.Millisecond)
	tr.Update(200)

	time.Sleep(VelocityDecay / 2)
	if tr.Velocity() == 0 {
		t.Error("decay fired early; Update should have rescheduled it")
	}
}

func TestScrollVelocityTrackerReset(t *testing.T) {
	tr, clock := newTestTracker()
	defer tr.Stop()

	clock.advance(10 * time.Millisecond)
	tr.Update(300)
	tr.Reset()

	if v := tr.Velocity(); v != 0 {
		t.Errorf("Velocity() = %v after Reset, want 0", v)
	}

	// Position was zeroed: the next sample is measured from 0.
	clock.advance(10 * time.Millisecond)
	got := tr.Update(10)
	want := 10.0 / 10 * frameMillis
	if !approxEqual(got, want) {
		t.Errorf("Update after Reset = %v, want %v", got, want)
	}

	tr.Reset()
	time.Sleep(VelocityDecay + 50*time.Millisecond)
	if v := tr.Velocity(); v != 0 {
		t.Errorf("Velocity() = %v after Reset and wait, want 0", v)
	}
}
