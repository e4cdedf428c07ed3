package perf

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPerformanceMonitorMeasure(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	m := NewPerformanceMonitor(nil)
	m.now = clock.now

	m.Mark("render-start")
	clock.advance(12 * time.Millisecond)

	if got := m.Measure("render", "render-start"); got != 12*time.Millisecond {
		t.Errorf("Measure() = %v, want 12ms", got)
	}
	ms := m.Measurements()
	if len(ms) != 1 || ms[0].Name != "render" {
		t.Errorf("Measurements() = %v", ms)
	}

	m.ClearMarks()
	if len(m.Measurements()) != 0 {
		t.Error("ClearMarks should drop measurements")
	}
}

func TestPerformanceMonitorMissingMarkWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := NewPerformanceMonitor(zap.New(core))

	if got := m.Measure("render", "never-marked"); got != 0 {
		t.Errorf("Measure() = %v, want 0", got)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected 1 warning, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.ContextMap()["mark"] != "never-marked" {
		t.Errorf("warning fields = %v", entry.ContextMap())
	}
	if len(m.Measurements()) != 0 {
		t.Error("a failed measure should not be recorded")
	}
}

func TestPerformanceMonitorKeepsNewestMeasurements(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	m := NewPerformanceMonitor(nil)
	m.now = clock.now

	m.Mark("start")
	total := MaxMeasurements + 50
	for i := 1; i <= total; i++ {
		clock.advance(time.Millisecond)
		m.Measure("render", "start")
	}

	ms := m.Measurements()
	if len(ms) != MaxMeasurements {
		t.Fatalf("retained %d measurements, want %d", len(ms), MaxMeasurements)
	}
	if first := ms[0].Duration; first != 51*time.Millisecond {
		t.Errorf("oldest retained = %v, want 51ms", first)
	}
	if last := ms[len(ms)-1].Duration; last != time.Duration(total)*time.Millisecond {
		t.Errorf("newest retained = %v, want %v", last, time.Duration(total)*time.Millisecond)
	}
}
