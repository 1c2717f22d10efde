package ridechat

import (
	"fmt"
	"strings"

	"github.com/lucasjlepore/ridechat/outcome"
	"github.com/lucasjlepore/ridechat/segment"
	"github.com/lucasjlepore/ridechat/table"
	"github.com/lucasjlepore/ridechat/zones"
)

// Intent is one routable question type. Match receives the lowercased query.
type Intent struct {
	Name   string
	Match  func(query string) bool
	Answer func(r *Ride) string
}

// Built-in intent names, in routing order.
const (
	IntentSecondHalf   = "second_half"
	IntentFirstHalf    = "first_half"
	IntentClimbs       = "climbs"
	IntentPowerZones   = "power_zones"
	IntentAverageSpeed = "average_speed"
	IntentHeartRate    = "heart_rate"
	IntentLastThird    = "last_third"
	IntentFirstThird   = "first_third"
)

// DefaultIntents returns the built-in intents. The first match wins, so a
// question naming both a half and a climb is a half question.
func DefaultIntents() []Intent {
	return []Intent{
		{Name: IntentSecondHalf, Match: containsAny("second half", "last half"), Answer: answerSecondHalf},
		{Name: IntentFirstHalf, Match: containsAny("first half"), Answer: answerFirstHalf},
		{Name: IntentClimbs, Match: containsAny("climb"), Answer: answerClimbs},
		{Name: IntentPowerZones, Match: containsAll("power", "zone"), Answer: answerPowerZones},
		{Name: IntentAverageSpeed, Match: containsAll("average", "speed"), Answer: answerAverageSpeed},
		{Name: IntentHeartRate, Match: containsAny("heart rate"), Answer: answerHeartRate},
		{Name: IntentLastThird, Match: containsAny("last third", "final third"), Answer: answerLastThird},
		{Name: IntentFirstThird, Match: containsAny("first third"), Answer: answerFirstThird},
	}
}

func containsAny(words ...string) func(string) bool {
	return func(q string) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}
}

func containsAll(words ...string) func(string) bool {
	return func(q string) bool {
		for _, w := range words {
			if !strings.Contains(q, w) {
				return false
			}
		}
		return true
	}
}

func positionStats(r *Ride, kind segment.Kind) outcome.Result[segment.Stats] {
	seg := segment.SelectByPosition(r.Samples, kind)
	if !seg.OK() {
		return outcome.Forward[segment.Stats](seg)
	}
	return outcome.Of(segment.Reduce(seg.Value, r.Units))
}

func answerSecondHalf(r *Ride) string {
	res := positionStats(r, segment.SecondHalf)
	if !res.OK() {
		return res.Message
	}
	s := res.Value
	speed := r.Units.SpeedLabel()
	overall := r.Headline.AvgSpeed

	trend := "slowed down"
	if s.AvgSpeed > overall {
		trend = "sped up"
	}

	var b strings.Builder
	b.WriteString("**Second Half of Your Ride:**\n")
	fmt.Fprintf(&b, "- Average speed: %.1f %s\n", s.AvgSpeed, speed)
	fmt.Fprintf(&b, "- Maximum speed: %.1f %s\n", s.MaxSpeed, speed)
	fmt.Fprintf(&b, "- Average heart rate: %.0f bpm\n", s.AvgHeartRate)
	fmt.Fprintf(&b, "- Average power: %.0f W\n\n", s.AvgPower)
	fmt.Fprintf(&b, "Compared to your overall ride average of %.1f %s, you %s in the second half.", overall, speed, trend)
	return b.String()
}

func answerFirstHalf(r *Ride) string {
	res := positionStats(r, segment.FirstHalf)
	if !res.OK() {
		return res.Message
	}
	s := res.Value
	speed := r.Units.SpeedLabel()

	var b strings.Builder
	b.WriteString("**First Half of Your Ride:**\n")
	fmt.Fprintf(&b, "- Average speed: %.1f %s\n", s.AvgSpeed, speed)
	fmt.Fprintf(&b, "- Maximum speed: %.1f %s\n", s.MaxSpeed, speed)
	fmt.Fprintf(&b, "- Average heart rate: %.0f bpm\n", s.AvgHeartRate)
	fmt.Fprintf(&b, "- Average power: %.0f W", s.AvgPower)
	return b.String()
}

func answerClimbs(r *Ride) string {
	res := segment.SelectClimbs(r.Samples, r.ClimbThreshold)
	if !res.OK() {
		return res.Message
	}
	s := segment.Reduce(res.Value, r.Units)

	var b strings.Builder
	b.WriteString("Based on your ride analysis:\n\n")
	fmt.Fprintf(&b, "**Steep Climbs (>%.1f%% gradient):**\n", r.ClimbThreshold)
	fmt.Fprintf(&b, "- Average speed on climbs: %.1f %s\n", s.AvgSpeed, r.Units.SpeedLabel())
	fmt.Fprintf(&b, "- Average heart rate on climbs: %.0f bpm\n", s.AvgHeartRate)
	fmt.Fprintf(&b, "- Average power on climbs: %.0f W\n", s.AvgPower)
	fmt.Fprintf(&b, "- Steepest gradient: %.1f%%\n", s.SteepestGradient)
	fmt.Fprintf(&b, "- Approximate climbing distance: %.2f %s\n", s.ClimbDistance, r.Units.DistanceLabel())
	fmt.Fprintf(&b, "- Total climb segments: %d\n", s.Rows)
	return b.String()
}

func answerPowerZones(r *Ride) string {
	res := zones.Analyze(r.Samples)
	if !res.OK() {
		return res.Message
	}
	report := res.Value
	shares := report.DisplayPercents(1)

	var b strings.Builder
	b.WriteString("**Power Zone Distribution:**\n\n")
	for i, z := range report.Zones {
		fmt.Fprintf(&b, "**%s:** %.1f%% of ride\n", z.Label(), shares[i])
	}
	return b.String()
}

func answerAverageSpeed(r *Ride) string {
	speed := r.Units.SpeedLabel()
	return fmt.Sprintf("Your average speed was %.1f %s with a maximum speed of %.1f %s.",
		r.Headline.AvgSpeed, speed, r.Headline.MaxSpeed, speed)
}

func answerHeartRate(r *Ride) string {
	return fmt.Sprintf("Your average heart rate was %.0f bpm with a maximum of %.0f bpm.",
		r.Headline.AvgHeartRate, r.Headline.MaxHeartRate)
}

func answerLastThird(r *Ride) string {
	res := positionStats(r, segment.LastThird)
	if !res.OK() {
		return res.Message
	}
	return thirdText("Final Third", res.Value, r,
		"This shows how you finished strong - or if you faded at the end!")
}

func answerFirstThird(r *Ride) string {
	res := positionStats(r, segment.FirstThird)
	if !res.OK() {
		return res.Message
	}
	return thirdText("First Third", res.Value, r, "This shows how you started your ride!")
}

func thirdText(title string, s segment.Stats, r *Ride, closing string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s of Your Ride:**\n", title)
	fmt.Fprintf(&b, "- Average speed: %.1f %s\n", s.AvgSpeed, r.Units.SpeedLabel())
	fmt.Fprintf(&b, "- Average heart rate: %.0f bpm\n", s.AvgHeartRate)
	fmt.Fprintf(&b, "- Average power: %.0f W\n\n", s.AvgPower)
	b.WriteString(closing)
	return b.String()
}

const capabilityText = `I can help you analyze your ride data! Try asking questions like:

- "What was my average speed and heart rate on climbs steeper than 2.5%?"
- "How was my power distributed across different zones?"
- "What was my average speed in the second half of the ride?"
- "How did my heart rate change during the ride?"

Upload your ride data first, then I can provide detailed analysis!`

func helpText(r *Ride) string {
	var b strings.Builder
	b.WriteString(`I can analyze your ride data in many ways! Try asking:

**Segment Analysis:**
- "What was my average speed in the second half of the ride?"
- "How did I perform in the first third?"
- "What was my power in the final third?"

**Climb Analysis:**
- "What was my average power on climbs?"
- "How fast was I on steep sections?"

**Power & Training:**
- "How was my power distributed across different zones?"
- "What was my maximum power output?"

**Overall Stats:**
- "What was my average speed?"
- "What was my heart rate during the ride?"

`)
	fmt.Fprintf(&b, "Your current ride: %.1f %s with %d data points to analyze!",
		r.Units.Distance(rideDistance(r)), r.Units.DistanceLabel(), r.Samples.Len())
	return b.String()
}

// rideDistance is the summary distance in meters, or the furthest cumulative
// distance sample when the summary has none.
func rideDistance(r *Ride) float64 {
	if d := r.Summary.Lookup(table.TotalDistance); d > 0 {
		return d
	}
	column, ok := r.Samples.Column(table.Distance)
	if !ok {
		return 0
	}
	furthest := 0.0
	for _, d := range table.Present(column) {
		if d > furthest {
			furthest = d
		}
	}
	return furthest
}
