package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/ridechat/outcome"
	"github.com/lucasjlepore/ridechat/table"
	"github.com/lucasjlepore/ridechat/units"
)

func newTable(t *testing.T, cols map[string][]float64) *table.Table {
	t.Helper()
	tbl, err := table.FromColumns(nil, cols)
	require.NoError(t, err)
	return tbl
}

func sequence(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestComputeGradient(t *testing.T) {
	tbl := newTable(t, map[string][]float64{
		table.Distance: {0, 10, 20, 20, 30},
		table.Altitude: {100, 101, 101.1, 105, 104},
	})

	res := ComputeGradient(tbl)
	require.True(t, res.OK())
	g := res.Value
	require.Len(t, g, 5)
	assert.Equal(t, 0.0, g[0])
	assert.InDelta(t, 10.0, g[1], 1e-9)
	assert.InDelta(t, 1.0, g[2], 1e-9)
	assert.Equal(t, 0.0, g[3], "zero distance step yields zero grade")
	assert.InDelta(t, -10.0, g[4], 1e-9)
	assert.True(t, tbl.Has(table.Gradient))
}

func TestComputeGradientPrefersEnhancedAltitude(t *testing.T) {
	tbl := newTable(t, map[string][]float64{
		table.Distance:         {0, 100},
		table.Altitude:         {0, 0},
		table.EnhancedAltitude: {0, 5},
	})
	res := ComputeGradient(tbl)
	require.True(t, res.OK())
	assert.InDelta(t, 5.0, res.Value[1], 1e-9)
}

func TestComputeGradientMissingColumns(t *testing.T) {
	res := ComputeGradient(newTable(t, map[string][]float64{table.Distance: {0, 1}}))
	assert.Equal(t, outcome.StatusEmpty, res.Status)
	assert.Equal(t, "No altitude data available", res.Message)

	res = ComputeGradient(newTable(t, map[string][]float64{table.Altitude: {0, 1}}))
	assert.Equal(t, outcome.StatusEmpty, res.Status)
	assert.Equal(t, "No distance data available", res.Message)
}

func TestGradientIsMemoized(t *testing.T) {
	tbl := newTable(t, map[string][]float64{
		table.Distance: {0, 10, 20, 30},
		table.Altitude: {0, 1, 2, 3},
	})

	first := ComputeGradient(tbl)
	require.True(t, first.OK())
	climbs := SelectClimbs(tbl, DefaultClimbThreshold)
	require.True(t, climbs.OK())
	assert.Equal(t, 3, climbs.Value.Rows.Len())

	// Flatten the profile: a recompute would find no climbs.
	alt, _ := tbl.Column(table.Altitude)
	for i := range alt {
		alt[i] = 0
	}

	second := ComputeGradient(tbl)
	require.True(t, second.OK())
	assert.Equal(t, first.Value, second.Value)
	again := SelectClimbs(tbl, DefaultClimbThreshold)
	require.True(t, again.OK())
	assert.Equal(t, 3, again.Value.Rows.Len())
}

func TestSelectClimbsStrictThreshold(t *testing.T) {
	tbl := newTable(t, map[string][]float64{
		table.Distance: {0, 100, 200, 300, 400},
		table.Altitude: {0, 2.5, 6, 6, 10},
		table.Power:    {100, 200, 300, 400, 500},
	})

	res := SelectClimbs(tbl, 2.5)
	require.True(t, res.OK())
	power, _ := res.Value.Rows.Column(table.Power)
	// Row 1 is exactly 2.5% and does not count.
	assert.Equal(t, []float64{300, 500}, power)
	assert.True(t, res.Value.Climb)
}

func TestSelectClimbsNoneFound(t *testing.T) {
	tbl := newTable(t, map[string][]float64{
		table.Distance: {0, 100, 200},
		table.Altitude: {10, 10, 9},
	})
	res := SelectClimbs(tbl, 2.5)
	assert.Equal(t, outcome.StatusEmpty, res.Status)
	assert.Equal(t, "No climbs steeper than 2.5% found in this ride", res.Message)
}

func TestSelectClimbsForwardsMissingAltitude(t *testing.T) {
	res := SelectClimbs(newTable(t, map[string][]float64{table.Distance: {0, 1}}), 2.5)
	assert.Equal(t, outcome.StatusEmpty, res.Status)
	assert.Equal(t, "No altitude data available", res.Message)
}

func TestSelectByPositionBoundaries(t *testing.T) {
	ten := newTable(t, map[string][]float64{table.Power: sequence(10)})

	first := SelectByPosition(ten, FirstHalf)
	second := SelectByPosition(ten, SecondHalf)
	require.True(t, first.OK())
	require.True(t, second.OK())
	p1, _ := first.Value.Rows.Column(table.Power)
	p2, _ := second.Value.Rows.Column(table.Power)
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, p1)
	assert.Equal(t, []float64{5, 6, 7, 8, 9}, p2)
	assert.Equal(t, 10, first.Value.Rows.Len()+second.Value.Rows.Len())

	nine := newTable(t, map[string][]float64{table.Power: sequence(9)})
	ft := SelectByPosition(nine, FirstThird)
	lt := SelectByPosition(nine, LastThird)
	q1, _ := ft.Value.Rows.Column(table.Power)
	q3, _ := lt.Value.Rows.Column(table.Power)
	assert.Equal(t, []float64{0, 1, 2}, q1)
	assert.Equal(t, []float64{6, 7, 8}, q3)
}

func TestSelectByPositionOddCounts(t *testing.T) {
	for n := 0; n < 12; n++ {
		tbl := newTable(t, map[string][]float64{table.Power: sequence(n)})
		first := SelectByPosition(tbl, FirstHalf).Value.Rows.Len()
		second := SelectByPosition(tbl, SecondHalf).Value.Rows.Len()
		assert.Equalf(t, n, first+second, "n=%d", n)
		assert.Equalf(t, n/3, SelectByPosition(tbl, FirstThird).Value.Rows.Len(), "n=%d", n)
		assert.Equalf(t, n-2*n/3, SelectByPosition(tbl, LastThird).Value.Rows.Len(), "n=%d", n)
	}
}

func TestSelectByPositionUnknownKind(t *testing.T) {
	res := SelectByPosition(newTable(t, map[string][]float64{table.Power: {1}}), Kind("middle"))
	assert.Equal(t, outcome.StatusFailed, res.Status)
	assert.Equal(t, "Unknown segment type: middle", res.Message)
}

func TestReduce(t *testing.T) {
	tbl := newTable(t, map[string][]float64{
		table.Speed:         {1, 1, 1, 1},
		table.EnhancedSpeed: {5, 10, 15, 10},
		table.HeartRate:     {120, 130, 140, 150},
	})

	stats := Reduce(Segment{Name: "all", Rows: tbl}, units.Metric())
	assert.Equal(t, 4, stats.Rows)
	assert.InDelta(t, 36.0, stats.AvgSpeed, 1e-9)
	assert.InDelta(t, 54.0, stats.MaxSpeed, 1e-9)
	assert.InDelta(t, 135.0, stats.AvgHeartRate, 1e-9)
	assert.Equal(t, 150.0, stats.MaxHeartRate)
	assert.Equal(t, 0.0, stats.AvgPower, "absent power reduces to zero")
	assert.Equal(t, 0.0, stats.MaxPower)
	assert.Equal(t, 0.0, stats.ClimbDistance)
}

func TestReduceClimbSegment(t *testing.T) {
	tbl := newTable(t, map[string][]float64{
		table.Distance: {0, 100, 200, 300},
		table.Altitude: {0, 5, 8, 9},
	})
	res := SelectClimbs(tbl, 2.5)
	require.True(t, res.OK())

	stats := Reduce(res.Value, units.Imperial())
	assert.Equal(t, 2, stats.Rows)
	assert.InDelta(t, 5.0, stats.SteepestGradient, 1e-9)
	assert.InDelta(t, 20*0.000621371, stats.ClimbDistance, 1e-12)
}

func TestReduceSkipsMissingSamples(t *testing.T) {
	tbl := table.FromRows([]table.Row{
		{Values: map[string]float64{table.Power: 100}},
		{Values: map[string]float64{table.HeartRate: 150}},
		{Values: map[string]float64{table.Power: 300}},
	})
	stats := Reduce(Segment{Rows: tbl}, units.Imperial())
	assert.InDelta(t, 200.0, stats.AvgPower, 1e-9)
	assert.Equal(t, 300.0, stats.MaxPower)
	assert.Equal(t, 150.0, stats.AvgHeartRate)
}
