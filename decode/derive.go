package decode

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/lucasjlepore/ridechat/table"
)

// npWindow is the rolling window, in samples, used for normalized power.
const npWindow = 30

// DeriveSummary rebuilds summary values from the samples of a recording
// that carries no session message. Keys with no source data are left out.
func DeriveSummary(t *table.Table) table.Summary {
	s := table.Summary{}
	if t.Len() == 0 {
		return s
	}

	if distance, ok := t.Column(table.Distance); ok {
		if d := maxValue(distance); d > 0 {
			s[table.TotalDistance] = d
		}
	}
	if d := duration(t); d > 0 {
		s[table.TotalTimerTime] = d
	}

	if name, speed, ok := t.First(table.EnhancedSpeed, table.Speed); ok {
		avgKey, maxKey := table.AvgSpeed, table.MaxSpeed
		if name == table.EnhancedSpeed {
			avgKey, maxKey = table.EnhancedAvgSpeed, table.EnhancedMaxSpeed
		}
		putAvgMax(s, avgKey, maxKey, speed)
	}
	if hr, ok := t.Column(table.HeartRate); ok {
		putAvgMax(s, table.AvgHeartRate, table.MaxHeartRate, hr)
	}
	if power, ok := t.Column(table.Power); ok {
		putAvgMax(s, table.AvgPower, table.MaxPower, power)
		if np := normalizedPower(table.Present(power)); np > 0 {
			s[table.NormalizedPower] = np
		}
	}
	if _, altitude, ok := t.First(table.EnhancedAltitude, table.Altitude); ok {
		ascent, descent := climbTotals(table.Present(altitude))
		s[table.TotalAscent] = ascent
		s[table.TotalDescent] = descent
	}
	return s
}

func putAvgMax(s table.Summary, avgKey, maxKey string, values []float64) {
	present := table.Present(values)
	if len(present) == 0 {
		return
	}
	s[avgKey] = stat.Mean(present, nil)
	s[maxKey] = floats.Max(present)
}

// duration is the span between the first and last valid timestamps, or one
// second per sample when the recording has no timestamps.
func duration(t *table.Table) float64 {
	var start, end float64
	found := false
	for _, ts := range t.Timestamps() {
		if ts.IsZero() {
			continue
		}
		sec := float64(ts.UnixNano()) / 1e9
		if !found {
			start = sec
			found = true
		}
		end = sec
	}
	if found && end > start {
		return end - start
	}
	if !found {
		return float64(t.Len())
	}
	return 0
}

// normalizedPower is the fourth root of the mean fourth power of the 30 s
// rolling average. Rides shorter than the window fall back to average power.
func normalizedPower(power []float64) float64 {
	if len(power) == 0 {
		return 0
	}
	if len(power) < npWindow {
		return stat.Mean(power, nil)
	}

	sum := floats.Sum(power[:npWindow])
	fourthPowerTotal := 0.0
	count := 0
	for i := npWindow - 1; i < len(power); i++ {
		if i >= npWindow {
			sum += power[i] - power[i-npWindow]
		}
		rolling := sum / npWindow
		fourthPowerTotal += math.Pow(rolling, 4)
		count++
	}
	return math.Pow(fourthPowerTotal/float64(count), 0.25)
}

func climbTotals(altitude []float64) (ascent, descent float64) {
	for i := 1; i < len(altitude); i++ {
		delta := altitude[i] - altitude[i-1]
		if delta > 0 {
			ascent += delta
		} else {
			descent -= delta
		}
	}
	return ascent, descent
}

func maxValue(values []float64) float64 {
	present := table.Present(values)
	if len(present) == 0 {
		return 0
	}
	return floats.Max(present)
}
