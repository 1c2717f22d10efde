// Package decode turns a FIT activity file, or a zip archive holding one, into
// a sample table and its session summary.
package decode

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tormoder/fit"

	"github.com/lucasjlepore/ridechat/table"
)

var (
	// ErrNoFITInArchive is returned for a zip archive without a .fit member.
	ErrNoFITInArchive = errors.New("no .fit file found in zip archive")
	// ErrUnsupportedFile is returned for inputs that are neither FIT nor zip.
	ErrUnsupportedFile = errors.New("unsupported file type, expected .fit or .zip")
)

var (
	zipMagic = []byte("PK\x03\x04")
	fitMagic = []byte(".FIT")
)

// Activity is a decoded recording.
type Activity struct {
	Source  string
	Samples *table.Table
	Summary table.Summary
}

// DecodeFile reads and decodes the file at path.
func DecodeFile(path string) (*Activity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read activity file: %w", err)
	}
	return DecodeBytes(filepath.Base(path), data)
}

// DecodeBytes decodes an uploaded file. The name's extension selects FIT or
// zip handling; without a recognized extension the content is sniffed.
func DecodeBytes(name string, data []byte) (*Activity, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip":
		return decodeZip(name, data)
	case ".fit":
		return decodeFIT(name, data)
	}

	switch {
	case bytes.HasPrefix(data, zipMagic):
		return decodeZip(name, data)
	case len(data) >= 12 && bytes.Equal(data[8:12], fitMagic):
		return decodeFIT(name, data)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFile)
	}
}

// Decode decodes a raw FIT stream.
func Decode(r io.Reader) (*Activity, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	samples := table.FromRows(buildRows(activity.Records))
	out := &Activity{Samples: samples}
	if len(activity.Sessions) > 0 && activity.Sessions[0] != nil {
		out.Summary = buildSummary(activity.Sessions[0])
	} else {
		out.Summary = DeriveSummary(samples)
	}
	return out, nil
}

func decodeFIT(name string, data []byte) (*Activity, error) {
	out, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	out.Source = name
	return out, nil
}

// decodeZip decodes the first .fit member of the archive.
func decodeZip(name string, data []byte) (*Activity, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip archive: %w", err)
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(f.Name), ".fit") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in archive: %w", f.Name, err)
		}
		member, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s in archive: %w", f.Name, err)
		}

		out, err := Decode(bytes.NewReader(member))
		if err != nil {
			return nil, err
		}
		out.Source = name + "/" + f.Name
		return out, nil
	}
	return nil, ErrNoFITInArchive
}

func buildRows(records []*fit.RecordMsg) []table.Row {
	rows := make([]table.Row, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}

		values := make(map[string]float64, 10)
		putFinite(values, table.Distance, rec.GetDistanceScaled())
		putFinite(values, table.Speed, rec.GetSpeedScaled())
		putFinite(values, table.EnhancedSpeed, rec.GetEnhancedSpeedScaled())
		putFinite(values, table.Altitude, rec.GetAltitudeScaled())
		putFinite(values, table.EnhancedAltitude, rec.GetEnhancedAltitudeScaled())
		if rec.HeartRate != math.MaxUint8 {
			values[table.HeartRate] = float64(rec.HeartRate)
		}
		if rec.Power != math.MaxUint16 {
			values[table.Power] = float64(rec.Power)
		}
		if rec.Cadence != math.MaxUint8 {
			values[table.Cadence] = float64(rec.Cadence)
		}
		if rec.Temperature != math.MaxInt8 {
			values[table.Temperature] = float64(rec.Temperature)
		}

		rows = append(rows, table.Row{
			Timestamp: validTimeOrZero(rec.Timestamp),
			Values:    values,
		})
	}
	return rows
}

func buildSummary(session *fit.SessionMsg) table.Summary {
	s := table.Summary{}
	putFinite(s, table.TotalDistance, session.GetTotalDistanceScaled())
	putFinite(s, table.TotalTimerTime, session.GetTotalTimerTimeScaled())
	putFinite(s, table.AvgSpeed, session.GetAvgSpeedScaled())
	putFinite(s, table.EnhancedAvgSpeed, session.GetEnhancedAvgSpeedScaled())
	putFinite(s, table.MaxSpeed, session.GetMaxSpeedScaled())
	putFinite(s, table.EnhancedMaxSpeed, session.GetEnhancedMaxSpeedScaled())
	putFinite(s, table.TrainingStressScore, session.GetTrainingStressScoreScaled())

	putUint8(s, table.AvgHeartRate, session.AvgHeartRate)
	putUint8(s, table.MaxHeartRate, session.MaxHeartRate)
	putUint16(s, table.AvgPower, session.AvgPower)
	putUint16(s, table.MaxPower, session.MaxPower)
	putUint16(s, table.NormalizedPower, session.NormalizedPower)
	putUint16(s, table.TotalAscent, session.TotalAscent)
	putUint16(s, table.TotalDescent, session.TotalDescent)
	return s
}

func putFinite(m map[string]float64, key string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	m[key] = v
}

func putUint8(m map[string]float64, key string, v uint8) {
	if v != math.MaxUint8 {
		m[key] = float64(v)
	}
}

func putUint16(m map[string]float64, key string, v uint16) {
	if v != math.MaxUint16 {
		m[key] = float64(v)
	}
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}
