package zones

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/ridechat/outcome"
	"github.com/lucasjlepore/ridechat/table"
)

func powerTable(t *testing.T, power []float64) *table.Table {
	t.Helper()
	tbl, err := table.FromColumns(nil, map[string][]float64{table.Power: power})
	require.NoError(t, err)
	return tbl
}

func TestPercentileInterpolates(t *testing.T) {
	values := []float64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5}
	assert.InDelta(t, 9.1, Percentile(values, 0.9), 1e-9)
	assert.InDelta(t, 5.5, Percentile(values, 0.5), 1e-9)
	assert.Equal(t, 10.0, Percentile(values, 1))
	assert.Equal(t, 1.0, Percentile(values, 0))
	assert.Equal(t, 42.0, Percentile([]float64{42}, 0.9))
	assert.Equal(t, 0.0, Percentile(nil, 0.9))
	// Input order is left alone.
	assert.Equal(t, 10.0, values[0])
}

func TestAnalyzeZoneCounts(t *testing.T) {
	power := make([]float64, 100)
	for i := range power {
		power[i] = float64(i + 1)
	}

	res := Analyze(powerTable(t, power))
	require.True(t, res.OK())
	report := res.Value

	assert.InDelta(t, 90.1, report.Threshold, 1e-9)
	assert.Equal(t, 100, report.Samples)
	require.Len(t, report.Zones, 6)

	want := []int{49, 18, 14, 13, 6, 0}
	for i, z := range report.Zones {
		assert.Equalf(t, want[i], z.Samples, "zone %d", z.Number)
		assert.InDeltaf(t, float64(want[i]), z.Percent, 1e-9, "zone %d", z.Number)
	}
	assert.InDelta(t, 25.0, report.Zones[0].AvgPower, 1e-9)
	assert.Equal(t, 0.0, report.Zones[5].AvgPower)
	assert.Equal(t, "Zone 1 (Recovery)", report.Zones[0].Label())
	assert.Equal(t, "Zone 5 (VO2 Max)", report.Zones[4].Label())
	assert.True(t, math.IsInf(report.Zones[5].High, 1))
}

func TestAnalyzePercentagesSumToHundred(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	power := make([]float64, 3600)
	for i := range power {
		power[i] = 100 + rng.Float64()*200
	}
	// A few negative and missing readings.
	power[10] = -5
	power[20] = math.NaN()

	res := Analyze(powerTable(t, power))
	require.True(t, res.OK())
	assert.Equal(t, 3599, res.Value.Samples)

	total := 0.0
	for _, z := range res.Value.Zones {
		total += z.Percent
	}
	assert.InDelta(t, 100.0, total, 1e-9)

	display := 0.0
	for _, p := range res.Value.DisplayPercents(1) {
		display += p
	}
	assert.InDelta(t, 100.0, display, 1e-9)
}

func TestAnalyzeAllZeroPower(t *testing.T) {
	res := Analyze(powerTable(t, []float64{0, 0, 0}))
	require.True(t, res.OK())
	assert.Equal(t, 100.0, res.Value.Zones[5].Percent)
}

func TestAnalyzeMissingPower(t *testing.T) {
	tbl, err := table.FromColumns(nil, map[string][]float64{table.Speed: {1, 2}})
	require.NoError(t, err)
	res := Analyze(tbl)
	assert.Equal(t, outcome.StatusEmpty, res.Status)
	assert.Equal(t, "No power data available", res.Message)

	res = Analyze(powerTable(t, []float64{math.NaN(), math.NaN()}))
	assert.Equal(t, outcome.StatusEmpty, res.Status)
	assert.Equal(t, "No valid power data", res.Message)
}

func TestDisplayPercentsLargestRemainder(t *testing.T) {
	third := 100.0 / 3
	r := Report{Zones: []ZoneStat{
		{Percent: third}, {Percent: third}, {Percent: third}, {}, {}, {},
	}}
	assert.Equal(t, []float64{33.4, 33.3, 33.3, 0, 0, 0}, r.DisplayPercents(1))

	r = Report{Zones: []ZoneStat{
		{Percent: 12.46}, {Percent: 12.46}, {Percent: 75.08}, {}, {}, {},
	}}
	assert.Equal(t, []float64{13, 12, 75, 0, 0, 0}, r.DisplayPercents(0))

	assert.Nil(t, Report{}.DisplayPercents(1))
}

func TestReportMarshalsOpenTopZone(t *testing.T) {
	power := make([]float64, 100)
	for i := range power {
		power[i] = float64(i + 1)
	}
	res := Analyze(powerTable(t, power))
	require.True(t, res.OK())

	data, err := json.Marshal(res.Value)
	require.NoError(t, err)

	var decoded struct {
		Threshold float64          `json:"threshold_watts"`
		Zones     []map[string]any `json:"zones"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Zones, 6)
	assert.InDelta(t, res.Value.Threshold, decoded.Threshold, 1e-9)
	assert.Equal(t, "Tempo", decoded.Zones[2]["name"])
	assert.InDelta(t, 0.90*res.Value.Threshold, decoded.Zones[2]["high_watts"].(float64), 1e-9)
	assert.NotContains(t, decoded.Zones[5], "high_watts")
	assert.Equal(t, 6.0, decoded.Zones[5]["zone"])
}
