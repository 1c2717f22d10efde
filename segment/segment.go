// Package segment derives the gradient signal of a ride, partitions the sample
// table into named segments and reduces each segment to summary statistics.
package segment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/lucasjlepore/ridechat/outcome"
	"github.com/lucasjlepore/ridechat/table"
	"github.com/lucasjlepore/ridechat/units"
)

const (
	// DefaultClimbThreshold is the percent grade a sample must exceed to count as climbing.
	DefaultClimbThreshold = 2.5

	// ClimbMetersPerRow is the fixed distance credited to every climbing sample.
	// Climb distance is rows × ClimbMetersPerRow: an approximation that ignores
	// sample rate and the distance column.
	ClimbMetersPerRow = 10.0
)

// Kind names a time-ordered partition of a ride.
type Kind string

const (
	FirstHalf  Kind = "first_half"
	SecondHalf Kind = "second_half"
	FirstThird Kind = "first_third"
	LastThird  Kind = "last_third"
)

// Segment is a selection of rows from a ride, in original order.
type Segment struct {
	Name  string
	Rows  *table.Table
	Climb bool
}

// Stats is the reduction of one segment. Absent columns reduce to 0.
type Stats struct {
	Name             string
	Rows             int
	AvgSpeed         float64
	MaxSpeed         float64
	AvgHeartRate     float64
	MaxHeartRate     float64
	AvgPower         float64
	MaxPower         float64
	SteepestGradient float64
	ClimbDistance    float64
}

// ComputeGradient returns the percent-grade column, computing and caching it on
// the table the first time. Later calls return the cached column untouched.
func ComputeGradient(t *table.Table) outcome.Result[[]float64] {
	if cached, ok := t.Column(table.Gradient); ok {
		return outcome.Of(cached)
	}

	_, altitude, ok := t.First(table.EnhancedAltitude, table.Altitude)
	if !ok {
		return outcome.Empty[[]float64]("No altitude data available")
	}
	distance, ok := t.Column(table.Distance)
	if !ok {
		return outcome.Empty[[]float64]("No distance data available")
	}

	gradient := make([]float64, t.Len())
	for i := 1; i < len(gradient); i++ {
		dd := distance[i] - distance[i-1]
		if dd == 0 {
			continue
		}
		g := (altitude[i] - altitude[i-1]) / dd * 100
		if isFinite(g) {
			gradient[i] = g
		}
	}

	if err := t.SetColumn(table.Gradient, gradient); err != nil {
		return outcome.Fail[[]float64](err.Error())
	}
	return outcome.Of(gradient)
}

// SelectClimbs returns every row whose gradient is strictly greater than
// threshold percent. Rows need not be contiguous.
func SelectClimbs(t *table.Table, threshold float64) outcome.Result[Segment] {
	grad := ComputeGradient(t)
	if !grad.OK() {
		return outcome.Forward[Segment](grad)
	}

	indices := make([]int, 0)
	for i, g := range grad.Value {
		if g > threshold {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return outcome.Empty[Segment](fmt.Sprintf("No climbs steeper than %.1f%% found in this ride", threshold))
	}

	return outcome.Of(Segment{Name: "climbs", Rows: t.Select(indices), Climb: true})
}

// SelectByPosition slices the ride by integer division of its row count.
func SelectByPosition(t *table.Table, kind Kind) outcome.Result[Segment] {
	if t == nil {
		return outcome.Empty[Segment]("No ride data available")
	}

	n := t.Len()
	var lo, hi int
	switch kind {
	case FirstHalf:
		lo, hi = 0, n/2
	case SecondHalf:
		lo, hi = n/2, n
	case FirstThird:
		lo, hi = 0, n/3
	case LastThird:
		lo, hi = 2*n/3, n
	default:
		return outcome.Fail[Segment](fmt.Sprintf("Unknown segment type: %s", kind))
	}

	return outcome.Of(Segment{Name: string(kind), Rows: t.Slice(lo, hi)})
}

// Reduce summarizes a segment in display units. Enhanced speed wins over speed.
func Reduce(seg Segment, policy units.Policy) Stats {
	rows := seg.Rows
	stats := Stats{Name: seg.Name, Rows: rows.Len()}

	if _, speed, ok := rows.First(table.EnhancedSpeed, table.Speed); ok {
		stats.AvgSpeed = policy.Speed(average(speed))
		stats.MaxSpeed = policy.Speed(maxValue(speed))
	}
	if hr, ok := rows.Column(table.HeartRate); ok {
		stats.AvgHeartRate = average(hr)
		stats.MaxHeartRate = maxValue(hr)
	}
	if power, ok := rows.Column(table.Power); ok {
		stats.AvgPower = average(power)
		stats.MaxPower = maxValue(power)
	}

	if seg.Climb {
		if grad, ok := rows.Column(table.Gradient); ok {
			stats.SteepestGradient = maxValue(grad)
		}
		stats.ClimbDistance = policy.Distance(float64(stats.Rows) * ClimbMetersPerRow)
	}
	return stats
}

func average(values []float64) float64 {
	present := table.Present(values)
	if len(present) == 0 {
		return 0
	}
	return stat.Mean(present, nil)
}

func maxValue(values []float64) float64 {
	present := table.Present(values)
	if len(present) == 0 {
		return 0
	}
	return floats.Max(present)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
