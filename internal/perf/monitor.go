package perf

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// MaxMeasurements caps how many measurements a monitor retains. Older ones
// are dropped first.
const MaxMeasurements = 256

// Measurement is one completed Measure call.
type Measurement struct {
	Name     string
	Duration time.Duration
}

// PerformanceMonitor records named marks and measures time elapsed since
// them. Measuring against a mark that was never recorded logs a warning
// and yields zero; instrumentation must never take the host down.
type PerformanceMonitor struct {
	mu           sync.Mutex
	now          func() time.Time
	log          *zap.Logger
	marks        map[string]time.Time
	measurements []Measurement
}

// NewPerformanceMonitor returns a monitor that logs through logger (nil
// disables logging).
func NewPerformanceMonitor(logger *zap.Logger) *PerformanceMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PerformanceMonitor{
		now:   time.Now,
		log:   logger,
		marks: make(map[string]time.Time),
	}
}

// Mark records the current time under name, replacing any earlier mark.
func (m *PerformanceMonitor) Mark(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marks[name] = m.now()
}

// Measure returns the time since startMark and records it under name.
func (m *PerformanceMonitor) Measure(name, startMark string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	start, ok := m.marks[startMark]
	if !ok {
		m.log.Warn("performance mark not found",
			zap.String("mark", startMark),
			zap.String("measure", name))
		return 0
	}

	d := m.now().Sub(start)
	if len(m.measurements) == MaxMeasurements {
		copy(m.measurements, m.measurements[1:])
		m.measurements = m.measurements[:MaxMeasurements-1]
	}
	m.measurements = append(m.measurements, Measurement{Name: name, Duration: d})
	m.log.Debug("performance measure",
		zap.String("measure", name),
		zap.Duration("duration", d))
	return d
}

// Measurements returns a copy of the retained measurements, oldest first.
func (m *PerformanceMonitor) Measurements() []Measurement {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Measurement, len(m.measurements))
	copy(out, m.measurements)
	return out
}

// ClearMarks drops all marks and measurements.
func (m *PerformanceMonitor) ClearMarks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.marks)
	m.measurements = nil
}
