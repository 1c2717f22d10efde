// Package units converts raw FIT sensor units (meters, meters/second) into the
// display unit system chosen for a session.
package units

import (
	"fmt"
	"strings"
)

const (
	metersToMiles  = 0.000621371
	metersToFeet   = 3.28084
	mpsToMph       = 2.23694
	mpsToKmh       = 3.6
	metersPerKm    = 1000.0
	secondsPerHour = 3600.0
)

// System names a display unit system.
type System string

const (
	SystemImperial System = "imperial"
	SystemMetric   System = "metric"
)

// Policy is the display-unit policy applied by extraction, reduction and rendering.
// The zero value behaves as imperial.
type Policy struct {
	System System `json:"system"`
}

// Imperial returns the miles / mph / feet policy.
func Imperial() Policy { return Policy{System: SystemImperial} }

// Metric returns the km / km/h / meters policy.
func Metric() Policy { return Policy{System: SystemMetric} }

// ParsePolicy accepts "imperial" or "metric" (case-insensitive). Empty selects imperial.
func ParsePolicy(name string) (Policy, error) {
	switch System(strings.ToLower(strings.TrimSpace(name))) {
	case "", SystemImperial:
		return Imperial(), nil
	case SystemMetric:
		return Metric(), nil
	default:
		return Policy{}, fmt.Errorf("unknown unit system %q (expected imperial|metric)", name)
	}
}

// IsMetric reports whether the policy renders metric units.
func (p Policy) IsMetric() bool { return p.System == SystemMetric }

// String returns the system name.
func (p Policy) String() string {
	if p.IsMetric() {
		return string(SystemMetric)
	}
	return string(SystemImperial)
}

// Distance converts meters into miles or kilometers.
func (p Policy) Distance(meters float64) float64 {
	if p.IsMetric() {
		return meters / metersPerKm
	}
	return meters * metersToMiles
}

// Speed converts meters/second into mph or km/h.
func (p Policy) Speed(mps float64) float64 {
	if p.IsMetric() {
		return mps * mpsToKmh
	}
	return mps * mpsToMph
}

// Elevation converts meters into feet, or leaves meters untouched for metric.
func (p Policy) Elevation(meters float64) float64 {
	if p.IsMetric() {
		return meters
	}
	return meters * metersToFeet
}

// DistanceLabel is the unit word used after distances.
func (p Policy) DistanceLabel() string {
	if p.IsMetric() {
		return "km"
	}
	return "miles"
}

// SpeedLabel is the unit used after speeds.
func (p Policy) SpeedLabel() string {
	if p.IsMetric() {
		return "km/h"
	}
	return "mph"
}

// ElevationLabel is the unit used after elevations.
func (p Policy) ElevationLabel() string {
	if p.IsMetric() {
		return "m"
	}
	return "ft"
}

// Hours converts seconds to hours. Duration is not unit-system dependent.
func Hours(seconds float64) float64 {
	return seconds / secondsPerHour
}
