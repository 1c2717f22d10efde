// Package zones classifies a ride's power samples into six training zones
// anchored to a threshold estimated from the ride itself.
package zones

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/lucasjlepore/ridechat/outcome"
	"github.com/lucasjlepore/ridechat/table"
)

// ThresholdQuantile is the power percentile used as the threshold estimate.
const ThresholdQuantile = 0.9

// ZoneStat is the share of samples and mean power of one zone.
type ZoneStat struct {
	Number   int     `json:"zone"`
	Name     string  `json:"name"`
	Low      float64 `json:"low_watts"`
	High     float64 `json:"high_watts"`
	Samples  int     `json:"samples"`
	Percent  float64 `json:"time_percentage"`
	AvgPower float64 `json:"avg_power"`
}

// MarshalJSON leaves out high_watts for the open-ended top zone.
func (z ZoneStat) MarshalJSON() ([]byte, error) {
	type plain ZoneStat
	var high *float64
	if !math.IsInf(z.High, 0) && !math.IsNaN(z.High) {
		high = &z.High
	}
	return json.Marshal(struct {
		plain
		High *float64 `json:"high_watts,omitempty"`
	}{plain: plain(z), High: high})
}

// Label is the display name, e.g. "Zone 4 (Threshold)".
func (z ZoneStat) Label() string {
	return fmt.Sprintf("Zone %d (%s)", z.Number, z.Name)
}

// Report is the zone distribution of one ride.
type Report struct {
	Threshold float64    `json:"threshold_watts"`
	Samples   int        `json:"samples"`
	Zones     []ZoneStat `json:"zones"`
}

type boundary struct {
	zone string
	min  float64
	max  float64
}

var boundaries = []boundary{
	{zone: "Recovery", min: 0, max: 0.55},
	{zone: "Endurance", min: 0.55, max: 0.75},
	{zone: "Tempo", min: 0.75, max: 0.90},
	{zone: "Threshold", min: 0.90, max: 1.05},
	{zone: "VO2 Max", min: 1.05, max: 1.20},
	{zone: "Neuromuscular", min: 1.20, max: math.Inf(1)},
}

// Analyze computes the zone report from the table's power column. Zones are
// recomputed on every call.
func Analyze(t *table.Table) outcome.Result[Report] {
	column, ok := t.Column(table.Power)
	if !ok {
		return outcome.Empty[Report]("No power data available")
	}
	power := table.Present(column)
	if len(power) == 0 {
		return outcome.Empty[Report]("No valid power data")
	}

	threshold := Percentile(power, ThresholdQuantile)

	sums := make([]float64, len(boundaries))
	counts := make([]int, len(boundaries))
	for _, p := range power {
		i := classify(p, threshold)
		sums[i] += p
		counts[i]++
	}

	report := Report{
		Threshold: threshold,
		Samples:   len(power),
		Zones:     make([]ZoneStat, 0, len(boundaries)),
	}
	for i, b := range boundaries {
		z := ZoneStat{
			Number:  i + 1,
			Name:    b.zone,
			Low:     b.min * threshold,
			High:    b.max * threshold,
			Samples: counts[i],
			Percent: float64(counts[i]) / float64(len(power)) * 100,
		}
		if counts[i] > 0 {
			z.AvgPower = sums[i] / float64(counts[i])
		}
		report.Zones = append(report.Zones, z)
	}
	return outcome.Of(report)
}

// classify returns the index of the half-open zone holding p. Values below
// zero land in the first zone.
func classify(p, threshold float64) int {
	for i, b := range boundaries {
		if p >= b.min*threshold && p < b.max*threshold {
			return i
		}
	}
	if p < 0 {
		return 0
	}
	return len(boundaries) - 1
}

// Percentile returns the q-quantile of values by linear interpolation between
// closest ranks, the (n-1)·q definition used by most dataframe libraries.
func Percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// DisplayPercents rounds zone shares to the given number of decimals with the
// largest-remainder method, so the rounded figures total exactly 100.
func (r Report) DisplayPercents(decimals int) []float64 {
	if len(r.Zones) == 0 {
		return nil
	}
	scale := math.Pow(10, float64(decimals))

	units := make([]float64, len(r.Zones))
	remainders := make([]float64, len(r.Zones))
	for i, z := range r.Zones {
		scaled := z.Percent * scale
		units[i] = math.Floor(scaled)
		remainders[i] = scaled - units[i]
	}

	missing := int(math.Round(100*scale - floats.Sum(units)))
	order := make([]int, len(units))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for k := 0; k < missing && k < len(order); k++ {
		units[order[k]]++
	}

	out := make([]float64, len(units))
	for i, u := range units {
		out[i] = u / scale
	}
	return out
}
