package table

// Session summary keys.
const (
	TotalDistance       = "total_distance"
	TotalTimerTime      = "total_timer_time"
	AvgSpeed            = "avg_speed"
	EnhancedAvgSpeed    = "enhanced_avg_speed"
	MaxSpeed            = "max_speed"
	EnhancedMaxSpeed    = "enhanced_max_speed"
	AvgHeartRate        = "avg_heart_rate"
	MaxHeartRate        = "max_heart_rate"
	AvgPower            = "avg_power"
	MaxPower            = "max_power"
	NormalizedPower     = "normalized_power"
	TotalAscent         = "total_ascent"
	TotalDescent        = "total_descent"
	TrainingStressScore = "training_stress_score"
)

// Summary is the session-level aggregate record of an activity. Every field is
// optional; absent fields read as zero.
type Summary map[string]float64

// Lookup returns the first present, finite value among keys, or 0.
func (s Summary) Lookup(keys ...string) float64 {
	for _, k := range keys {
		if v, ok := s[k]; ok && isFinite(v) {
			return v
		}
	}
	return 0
}

// Has reports whether key holds a finite value.
func (s Summary) Has(key string) bool {
	v, ok := s[key]
	return ok && isFinite(v)
}

// Clone returns a copy that does not alias s.
func (s Summary) Clone() Summary {
	out := make(Summary, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
