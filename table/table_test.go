package table

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRowsSparseColumns(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tbl := FromRows([]Row{
		{Timestamp: start, Values: map[string]float64{Distance: 0, Power: 200}},
		{Timestamp: start.Add(time.Second), Values: map[string]float64{Distance: 5}},
		{Timestamp: start.Add(2 * time.Second), Values: map[string]float64{Distance: 11, HeartRate: 140}},
	})

	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{Distance, HeartRate, Power}, tbl.ColumnNames())

	power, ok := tbl.Column(Power)
	require.True(t, ok)
	assert.Equal(t, 200.0, power[0])
	assert.True(t, math.IsNaN(power[1]))
	assert.True(t, math.IsNaN(power[2]))
	assert.Equal(t, []float64{200}, Present(power))

	assert.False(t, tbl.Has(Altitude))
	assert.Len(t, tbl.Timestamps(), 3)
}

func TestFirstPrefersEarlierNames(t *testing.T) {
	tbl, err := FromColumns(nil, map[string][]float64{
		Speed:         {1, 2},
		EnhancedSpeed: {3, 4},
	})
	require.NoError(t, err)

	name, values, ok := tbl.First(EnhancedSpeed, Speed)
	require.True(t, ok)
	assert.Equal(t, EnhancedSpeed, name)
	assert.Equal(t, []float64{3, 4}, values)

	_, _, ok = tbl.First(Altitude, EnhancedAltitude)
	assert.False(t, ok)
}

func TestFromColumnsRejectsRaggedColumns(t *testing.T) {
	_, err := FromColumns(nil, map[string][]float64{
		Speed: {1, 2},
		Power: {1},
	})
	assert.Error(t, err)
}

func TestSetColumnChecksLength(t *testing.T) {
	tbl := FromRows([]Row{{Values: map[string]float64{Speed: 1}}, {Values: map[string]float64{Speed: 2}}})
	assert.Error(t, tbl.SetColumn(Gradient, []float64{1}))
	require.NoError(t, tbl.SetColumn(Gradient, []float64{1, 2}))
	assert.True(t, tbl.Has(Gradient))
}

func TestSliceAndSelectKeepOrder(t *testing.T) {
	tbl, err := FromColumns(nil, map[string][]float64{Power: {10, 20, 30, 40, 50}})
	require.NoError(t, err)

	s := tbl.Slice(1, 4)
	p, _ := s.Column(Power)
	assert.Equal(t, []float64{20, 30, 40}, p)

	// Slices are copies: writing into them does not touch the source.
	p[0] = 999
	orig, _ := tbl.Column(Power)
	assert.Equal(t, 20.0, orig[1])

	sel := tbl.Select([]int{0, 2, 4})
	q, _ := sel.Column(Power)
	assert.Equal(t, []float64{10, 30, 50}, q)

	assert.Equal(t, 0, tbl.Slice(7, 9).Len())
	assert.Equal(t, 5, tbl.Slice(-3, 100).Len())
}

func TestNilTableIsEmpty(t *testing.T) {
	var tbl *Table
	assert.Equal(t, 0, tbl.Len())
	assert.False(t, tbl.Has(Power))
	assert.Equal(t, 0, tbl.Slice(0, 10).Len())
	assert.Empty(t, tbl.Row(0).Values)
}

func TestRowOmitsMissingValues(t *testing.T) {
	tbl := FromRows([]Row{
		{Values: map[string]float64{Power: 100}},
		{Values: map[string]float64{HeartRate: 120}},
	})
	r := tbl.Row(1)
	assert.Equal(t, map[string]float64{HeartRate: 120}, r.Values)
}

func TestSummaryLookup(t *testing.T) {
	s := Summary{AvgSpeed: 7.5, EnhancedMaxSpeed: 14, MaxSpeed: 12, AvgPower: math.NaN()}
	assert.Equal(t, 7.5, s.Lookup(EnhancedAvgSpeed, AvgSpeed))
	assert.Equal(t, 14.0, s.Lookup(EnhancedMaxSpeed, MaxSpeed))
	assert.Equal(t, 0.0, s.Lookup(AvgPower))
	assert.Equal(t, 0.0, s.Lookup(TotalAscent))
	assert.False(t, s.Has(AvgPower))

	var empty Summary
	assert.Equal(t, 0.0, empty.Lookup(TotalDistance))
}
