// Package demo generates a synthetic one-hour ride so the chat can be tried
// without a device file.
package demo

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lucasjlepore/ridechat/table"
)

const (
	DefaultSamples = 3600
	DefaultSeed    = 42

	baseSpeedKmh = 25.0
	baseAltitude = 100.0
	hillAmp      = 50.0
	climbMeters  = 200.0
	baseHR       = 150.0
	basePower    = 200.0
	baseTemp     = 22.0
)

// Options controls the generated ride. Zero values take the defaults.
type Options struct {
	Samples int
	Seed    uint64
	Start   time.Time
}

// Generate returns 1 Hz samples and a session summary computed from them.
//
// Altitude is a two-period sinusoid over a ramp that climbs 200 m through the
// first third, holds, then descends. Heart rate follows altitude, and power
// follows speed and gradient, each with Gaussian noise.
func Generate(opts Options) (*table.Table, table.Summary) {
	n := opts.Samples
	if n <= 0 {
		n = DefaultSamples
	}
	seed := opts.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	start := opts.Start
	if start.IsZero() {
		start = time.Now().Add(-time.Duration(n) * time.Second).Truncate(time.Second)
	}

	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	noise := func(sigma float64) distuv.Normal {
		return distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
	}
	speedNoise, hrNoise, powerNoise, tempNoise := noise(2), noise(5), noise(20), noise(2)

	timestamps := make([]time.Time, n)
	speed := make([]float64, n)
	distance := make([]float64, n)
	for i := 0; i < n; i++ {
		timestamps[i] = start.Add(time.Duration(i) * time.Second)
		speed[i] = math.Max((baseSpeedKmh+speedNoise.Rand())/3.6, 0)
		distance[i] = speed[i]
		if i > 0 {
			distance[i] += distance[i-1]
		}
	}

	altitude := profile(n)
	gradient := numericGradient(altitude, distance)

	hr := make([]float64, n)
	power := make([]float64, n)
	temperature := make([]float64, n)
	for i := 0; i < n; i++ {
		h := baseHR + (altitude[i]-baseAltitude)*0.3 + hrNoise.Rand()
		hr[i] = math.Trunc(math.Min(math.Max(h, 100), 200))

		p := basePower + speed[i]*50 + gradient[i]*1000 + powerNoise.Rand()
		power[i] = math.Trunc(math.Max(p, 0))

		temperature[i] = baseTemp + tempNoise.Rand()
	}

	samples, err := table.FromColumns(timestamps, map[string][]float64{
		table.Distance:    distance,
		table.Speed:       speed,
		table.Altitude:    altitude,
		table.HeartRate:   hr,
		table.Power:       power,
		table.Temperature: temperature,
	})
	if err != nil {
		// Every column above has n values.
		panic(err)
	}
	return samples, summarize(n, distance, speed, altitude, hr, power)
}

func profile(n int) []float64 {
	third := n / 3
	alt := make([]float64, n)
	for i := range alt {
		var ramp float64
		switch {
		case i < third:
			ramp = linspace(0, climbMeters, third, i)
		case i < 2*third:
			ramp = climbMeters
		default:
			ramp = climbMeters - linspace(0, climbMeters, n-2*third, i-2*third)
		}
		alt[i] = baseAltitude + math.Sin(linspace(0, 4*math.Pi, n, i))*hillAmp + ramp
	}
	return alt
}

// linspace returns element i of count evenly spaced values over [lo, hi].
func linspace(lo, hi float64, count, i int) float64 {
	if count <= 1 {
		return lo
	}
	return lo + (hi-lo)*float64(i)/float64(count-1)
}

// numericGradient is dy/dx with second-order central differences on the
// interior and one-sided differences at the ends. Degenerate spacing yields 0.
func numericGradient(y, x []float64) []float64 {
	n := len(y)
	out := make([]float64, n)
	if n < 2 {
		return out
	}

	out[0] = finiteOrZero((y[1] - y[0]) / (x[1] - x[0]))
	out[n-1] = finiteOrZero((y[n-1] - y[n-2]) / (x[n-1] - x[n-2]))
	for i := 1; i < n-1; i++ {
		hs := x[i] - x[i-1]
		hd := x[i+1] - x[i]
		v := (hs*hs*y[i+1] + (hd*hd-hs*hs)*y[i] - hd*hd*y[i-1]) / (hs * hd * (hd + hs))
		out[i] = finiteOrZero(v)
	}
	return out
}

func summarize(n int, distance, speed, altitude, hr, power []float64) table.Summary {
	var ascent, descent, fourth float64
	for i := 1; i < n; i++ {
		d := altitude[i] - altitude[i-1]
		if d > 0 {
			ascent += d
		} else {
			descent -= d
		}
	}
	for _, p := range power {
		fourth += math.Pow(p, 4)
	}

	return table.Summary{
		table.TotalDistance:   distance[n-1],
		table.TotalTimerTime:  float64(n),
		table.AvgSpeed:        stat.Mean(speed, nil),
		table.MaxSpeed:        floats.Max(speed),
		table.AvgHeartRate:    math.Trunc(stat.Mean(hr, nil)),
		table.MaxHeartRate:    floats.Max(hr),
		table.AvgPower:        math.Trunc(stat.Mean(power, nil)),
		table.NormalizedPower: math.Trunc(math.Pow(fourth/float64(n), 0.25)),
		table.TotalAscent:     math.Trunc(ascent),
		table.TotalDescent:    math.Trunc(descent),
	}
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
