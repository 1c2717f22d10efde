package narrative

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/lucasjlepore/ridechat/metrics"
	"github.com/lucasjlepore/ridechat/table"
	"github.com/lucasjlepore/ridechat/units"
)

// MaxSampleRows bounds the number of sample rows quoted in a prompt.
const MaxSampleRows = 10

// SamplePoint is one quoted sample, in display units.
type SamplePoint struct {
	Index     int      `json:"index"`
	Distance  *float64 `json:"distance,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	HeartRate *float64 `json:"heart_rate,omitempty"`
	Power     *float64 `json:"power,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// BuildPrompt assembles a coaching prompt from the headline metrics, a few
// sample rows and the user's question.
func BuildPrompt(question string, headline metrics.Record, samples *table.Table, policy units.Policy) string {
	var b strings.Builder

	b.WriteString("You are an expert cycling coach analyzing ride data. Provide detailed, actionable insights.\n\n")
	b.WriteString("RIDE SUMMARY:\n")
	fmt.Fprintf(&b, "- Distance: %.1f %s\n", headline.TotalDistance, policy.DistanceLabel())
	fmt.Fprintf(&b, "- Duration: %.1f hours\n", headline.TotalTimeHours)
	fmt.Fprintf(&b, "- Avg Speed: %.1f %s\n", headline.AvgSpeed, policy.SpeedLabel())
	fmt.Fprintf(&b, "- Avg Power: %.0f watts\n", headline.AvgPower)
	fmt.Fprintf(&b, "- Avg Heart Rate: %.0f bpm\n", headline.AvgHeartRate)
	fmt.Fprintf(&b, "- Elevation Gain: %.0f %s\n", headline.TotalAscent, policy.ElevationLabel())

	b.WriteString("\nSAMPLE DATA POINTS:\n")
	points := SampleRows(samples, policy)
	encoded, err := json.MarshalIndent(points, "", "  ")
	if err != nil {
		encoded = []byte("[]")
	}
	b.Write(encoded)

	fmt.Fprintf(&b, "\n\nUSER QUESTION: %s\n\n", strings.TrimSpace(question))
	b.WriteString("Provide a cycling coach's analysis with specific insights about performance, pacing, and training recommendations. ")
	b.WriteString("Keep response under 200 words and focus on actionable advice.\n\n")
	b.WriteString("CYCLING COACH RESPONSE:")
	return b.String()
}

// SampleRows picks up to MaxSampleRows rows spread over the start, middle and
// end of the ride.
func SampleRows(samples *table.Table, policy units.Policy) []SamplePoint {
	indices := sampleIndices(samples.Len())

	_, speed, hasSpeed := samples.First(table.EnhancedSpeed, table.Speed)
	_, altitude, hasAltitude := samples.First(table.EnhancedAltitude, table.Altitude)
	distance, hasDistance := samples.Column(table.Distance)
	hr, hasHR := samples.Column(table.HeartRate)
	power, hasPower := samples.Column(table.Power)

	points := make([]SamplePoint, 0, len(indices))
	for _, i := range indices {
		p := SamplePoint{Index: i}
		if hasDistance {
			p.Distance = present(policy.Distance(distance[i]))
		}
		if hasSpeed {
			p.Speed = present(policy.Speed(speed[i]))
		}
		if hasHR {
			p.HeartRate = present(hr[i])
		}
		if hasPower {
			p.Power = present(power[i])
		}
		if hasAltitude {
			p.Altitude = present(policy.Elevation(altitude[i]))
		}
		points = append(points, p)
	}
	return points
}

func sampleIndices(n int) []int {
	if n <= MaxSampleRows {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}

	mid := n / 2
	out := []int{0, 1, 2, 3, mid - 1, mid, mid + 1, n - 3, n - 2, n - 1}
	return out
}

func present(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	v = math.Round(v*100) / 100
	return &v
}
