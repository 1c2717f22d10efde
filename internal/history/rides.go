package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lucasjlepore/ridechat"
	"github.com/lucasjlepore/ridechat/table"
)

// DefaultRecentLimit caps Recent when the caller passes no limit.
const DefaultRecentLimit = 20

// timeLayout has fixed width so loaded_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Ride is one history row. Values are in raw FIT units (meters, seconds, m/s).
type Ride struct {
	ID                  int64     `json:"id"`
	SessionID           string    `json:"session_id"`
	Source              string    `json:"source"`
	LoadedAt            time.Time `json:"loaded_at"`
	DataPoints          int       `json:"data_points"`
	DistanceM           float64   `json:"distance_m"`
	DurationS           float64   `json:"duration_s"`
	AvgSpeedMPS         float64   `json:"avg_speed_mps"`
	AvgPower            float64   `json:"avg_power"`
	AvgHeartRate        float64   `json:"avg_heart_rate"`
	TrainingStressScore float64   `json:"training_stress_score"`
}

// FromRide builds a history row from a loaded ride.
func FromRide(sessionID, source string, r *ridechat.Ride) Ride {
	s := r.Summary
	return Ride{
		SessionID:           sessionID,
		Source:              source,
		LoadedAt:            r.LoadedAt.UTC(),
		DataPoints:          r.Samples.Len(),
		DistanceM:           s.Lookup(table.TotalDistance),
		DurationS:           s.Lookup(table.TotalTimerTime),
		AvgSpeedMPS:         s.Lookup(table.EnhancedAvgSpeed, table.AvgSpeed),
		AvgPower:            s.Lookup(table.AvgPower),
		AvgHeartRate:        s.Lookup(table.AvgHeartRate),
		TrainingStressScore: s.Lookup(table.TrainingStressScore),
	}
}

// Save inserts r and returns its id.
func (db *DB) Save(ctx context.Context, r Ride) (int64, error) {
	loadedAt := r.LoadedAt
	if loadedAt.IsZero() {
		loadedAt = time.Now()
	}
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO rides
		(session_id, source, loaded_at, data_points, distance_m, duration_s,
		 avg_speed_mps, avg_power, avg_heart_rate, training_stress_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.Source, loadedAt.UTC().Format(timeLayout), r.DataPoints,
		r.DistanceM, r.DurationS, r.AvgSpeedMPS, r.AvgPower, r.AvgHeartRate,
		r.TrainingStressScore,
	)
	if err != nil {
		return 0, fmt.Errorf("insert ride: %w", err)
	}
	return result.LastInsertId()
}

// Recent returns up to limit rides, newest first.
func (db *DB) Recent(ctx context.Context, limit int) ([]Ride, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, session_id, source, loaded_at, data_points, distance_m, duration_s,
		        avg_speed_mps, avg_power, avg_heart_rate, training_stress_score
		FROM rides ORDER BY loaded_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query rides: %w", err)
	}
	defer rows.Close()

	var out []Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRide(rows *sql.Rows) (Ride, error) {
	var r Ride
	var loadedAt string
	err := rows.Scan(&r.ID, &r.SessionID, &r.Source, &loadedAt, &r.DataPoints,
		&r.DistanceM, &r.DurationS, &r.AvgSpeedMPS, &r.AvgPower, &r.AvgHeartRate,
		&r.TrainingStressScore)
	if err != nil {
		return Ride{}, fmt.Errorf("scan ride: %w", err)
	}
	r.LoadedAt, _ = time.Parse(timeLayout, loadedAt)
	return r, nil
}
