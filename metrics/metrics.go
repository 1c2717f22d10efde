// Package metrics maps a session summary record onto the fixed set of headline
// statistics shown after a ride is loaded.
package metrics

import (
	"math"

	"github.com/lucasjlepore/ridechat/table"
	"github.com/lucasjlepore/ridechat/units"
)

// Record is the twelve-field headline view of a ride, in display units.
//
// Distance, speeds and ascent/descent follow the unit policy; duration is in
// hours; heart rate, power and training stress pass through unconverted.
type Record struct {
	TotalDistance       float64 `json:"total_distance"`
	TotalTimeHours      float64 `json:"total_time"`
	AvgSpeed            float64 `json:"avg_speed"`
	MaxSpeed            float64 `json:"max_speed"`
	AvgHeartRate        float64 `json:"avg_heart_rate"`
	MaxHeartRate        float64 `json:"max_heart_rate"`
	AvgPower            float64 `json:"avg_power"`
	MaxPower            float64 `json:"max_power"`
	TotalAscent         float64 `json:"total_ascent"`
	TotalDescent        float64 `json:"total_descent"`
	NormalizedPower     float64 `json:"normalized_power"`
	TrainingStressScore float64 `json:"training_stress_score"`
	Units               string  `json:"units"`
}

// Field is one named headline value.
type Field struct {
	Name  string
	Label string
	Value float64
	Unit  string
}

// Extract builds the headline record. It never fails: a nil or empty summary
// yields an all-zero record.
func Extract(summary table.Summary, policy units.Policy) Record {
	maxPower := summary.Lookup(table.MaxPower, table.NormalizedPower)

	return Record{
		TotalDistance:       policy.Distance(nonNegative(summary.Lookup(table.TotalDistance))),
		TotalTimeHours:      units.Hours(nonNegative(summary.Lookup(table.TotalTimerTime))),
		AvgSpeed:            policy.Speed(nonNegative(summary.Lookup(table.EnhancedAvgSpeed, table.AvgSpeed))),
		MaxSpeed:            policy.Speed(nonNegative(summary.Lookup(table.EnhancedMaxSpeed, table.MaxSpeed))),
		AvgHeartRate:        summary.Lookup(table.AvgHeartRate),
		MaxHeartRate:        summary.Lookup(table.MaxHeartRate),
		AvgPower:            summary.Lookup(table.AvgPower),
		MaxPower:            maxPower,
		TotalAscent:         policy.Elevation(nonNegative(summary.Lookup(table.TotalAscent))),
		TotalDescent:        policy.Elevation(nonNegative(summary.Lookup(table.TotalDescent))),
		NormalizedPower:     summary.Lookup(table.NormalizedPower),
		TrainingStressScore: summary.Lookup(table.TrainingStressScore),
		Units:               policy.String(),
	}
}

// Fields lists the twelve headline values in display order.
func (r Record) Fields(policy units.Policy) []Field {
	return []Field{
		{Name: "total_distance", Label: "Distance", Value: r.TotalDistance, Unit: policy.DistanceLabel()},
		{Name: "total_time", Label: "Time", Value: r.TotalTimeHours, Unit: "h"},
		{Name: "avg_speed", Label: "Avg speed", Value: r.AvgSpeed, Unit: policy.SpeedLabel()},
		{Name: "max_speed", Label: "Max speed", Value: r.MaxSpeed, Unit: policy.SpeedLabel()},
		{Name: "avg_heart_rate", Label: "Avg heart rate", Value: r.AvgHeartRate, Unit: "bpm"},
		{Name: "max_heart_rate", Label: "Max heart rate", Value: r.MaxHeartRate, Unit: "bpm"},
		{Name: "avg_power", Label: "Avg power", Value: r.AvgPower, Unit: "W"},
		{Name: "max_power", Label: "Max power", Value: r.MaxPower, Unit: "W"},
		{Name: "total_ascent", Label: "Ascent", Value: r.TotalAscent, Unit: policy.ElevationLabel()},
		{Name: "total_descent", Label: "Descent", Value: r.TotalDescent, Unit: policy.ElevationLabel()},
		{Name: "normalized_power", Label: "Normalized power", Value: r.NormalizedPower, Unit: "W"},
		{Name: "training_stress_score", Label: "TSS", Value: r.TrainingStressScore, Unit: ""},
	}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
