package perf

import "math"

const (
	// BaseOverscan is the number of extra rows rendered when the list is still.
	BaseOverscan = 5
	// MaxOverscan caps the extra rows rendered during fast scrolling.
	MaxOverscan = 20
	// VelocityThreshold is the speed in pixels per frame at which overscan
	// reaches MaxOverscan.
	VelocityThreshold = 50.0
)

// CalculateDynamicOverscan maps a scroll velocity to the number of rows to
// render beyond each edge of the viewport. The sign of the velocity is
// ignored and the result is always within [BaseOverscan, MaxOverscan].
func CalculateDynamicOverscan(scrollVelocity float64) int {
	if math.IsNaN(scrollVelocity) {
		return BaseOverscan
	}
	factor := math.Min(math.Abs(scrollVelocity)/VelocityThreshold, 1)
	return BaseOverscan + int(math.Floor(factor*float64(MaxOverscan-BaseOverscan)))
}
