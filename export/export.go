// Package export writes a loaded ride to disk: the per-second samples as
// parquet, CSV or JSONL and the headline metrics as JSON.
package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lucasjlepore/ridechat/metrics"
	"github.com/lucasjlepore/ridechat/segment"
	"github.com/lucasjlepore/ridechat/table"
)

// Supported sample formats.
const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
	FormatJSONL   = "jsonl"
)

// Options controls Write.
type Options struct {
	OutDir    string
	Format    string
	Overwrite bool
}

// Result lists the files Write produced.
type Result struct {
	OutputDir    string
	SamplesPath  string
	HeadlinePath string
	Rows         int
}

// Sample is one exported row. Missing channels are nil.
type Sample struct {
	TSUTCISO     string   `json:"ts_utc_iso,omitempty"`
	ElapsedS     float64  `json:"elapsed_s"`
	DistanceM    *float64 `json:"distance_m"`
	SpeedMPS     *float64 `json:"speed_mps"`
	AltitudeM    *float64 `json:"altitude_m"`
	HRBPM        *float64 `json:"hr_bpm"`
	PowerW       *float64 `json:"power_w"`
	CadenceRPM   *float64 `json:"cadence_rpm"`
	TemperatureC *float64 `json:"temperature_c"`
	GradePct     *float64 `json:"grade_pct"`
}

var csvHeader = []string{
	"ts_utc_iso", "elapsed_s", "distance_m", "speed_mps", "altitude_m", "hr_bpm",
	"power_w", "cadence_rpm", "temperature_c", "grade_pct",
}

// Write exports samples and headline into opts.OutDir. The gradient column is
// computed on samples when it is not already present.
func Write(samples *table.Table, headline metrics.Record, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = FormatParquet
	}
	if format != FormatParquet && format != FormatCSV && format != FormatJSONL {
		return nil, fmt.Errorf("unsupported format %q (expected parquet|csv|jsonl)", format)
	}
	if samples.Len() == 0 {
		return nil, fmt.Errorf("no samples to export")
	}
	if err := ensureOutputDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	rows := Samples(samples)
	samplesPath := filepath.Join(opts.OutDir, "samples."+format)
	var err error
	switch format {
	case FormatCSV:
		err = writeFile(samplesPath, func() ([]byte, error) { return MarshalCSV(rows) })
	case FormatJSONL:
		err = writeFile(samplesPath, func() ([]byte, error) { return MarshalJSONL(rows) })
	case FormatParquet:
		err = writeParquet(samplesPath, rows)
	}
	if err != nil {
		return nil, fmt.Errorf("write samples %s: %w", format, err)
	}

	headlinePath := filepath.Join(opts.OutDir, "headline.json")
	if err := writeFile(headlinePath, func() ([]byte, error) { return MarshalJSON(headline) }); err != nil {
		return nil, fmt.Errorf("write headline.json: %w", err)
	}

	return &Result{
		OutputDir:    opts.OutDir,
		SamplesPath:  samplesPath,
		HeadlinePath: headlinePath,
		Rows:         len(rows),
	}, nil
}

// Samples flattens t into export rows, preferring enhanced speed and altitude.
// grade_pct is left empty when the ride has no altitude or distance.
func Samples(t *table.Table) []Sample {
	var grade []float64
	if res := segment.ComputeGradient(t); res.OK() {
		grade = res.Value
	}

	_, distance, _ := t.First(table.Distance)
	_, speed, _ := t.First(table.EnhancedSpeed, table.Speed)
	_, altitude, _ := t.First(table.EnhancedAltitude, table.Altitude)
	hr, _ := t.Column(table.HeartRate)
	power, _ := t.Column(table.Power)
	cadence, _ := t.Column(table.Cadence)
	temperature, _ := t.Column(table.Temperature)

	timestamps := t.Timestamps()
	var start time.Time
	if len(timestamps) > 0 {
		start = timestamps[0]
	}

	out := make([]Sample, t.Len())
	for i := range out {
		s := Sample{
			ElapsedS:     float64(i),
			DistanceM:    at(distance, i),
			SpeedMPS:     at(speed, i),
			AltitudeM:    at(altitude, i),
			HRBPM:        at(hr, i),
			PowerW:       at(power, i),
			CadenceRPM:   at(cadence, i),
			TemperatureC: at(temperature, i),
			GradePct:     at(grade, i),
		}
		if len(timestamps) > i && !timestamps[i].IsZero() {
			s.TSUTCISO = timestamps[i].UTC().Format(time.RFC3339)
			if !start.IsZero() {
				s.ElapsedS = timestamps[i].Sub(start).Seconds()
			}
		}
		out[i] = s
	}
	return out
}

// MarshalJSON renders indented JSON with a trailing newline.
func MarshalJSON(v any) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	out = append(out, '\n')
	return out, nil
}

// MarshalJSONL renders one JSON object per sample.
func MarshalJSONL(rows []Sample) ([]byte, error) {
	var buf bytes.Buffer
	w := bufio.NewWriterSize(&buf, 1<<20)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalCSV renders the samples with a header row. Missing values are empty.
func MarshalCSV(rows []Sample) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, s := range rows {
		record := []string{
			s.TSUTCISO,
			formatFloat(s.ElapsedS),
			formatFloatPtr(s.DistanceM),
			formatFloatPtr(s.SpeedMPS),
			formatFloatPtr(s.AltitudeM),
			formatFloatPtr(s.HRBPM),
			formatFloatPtr(s.PowerW),
			formatFloatPtr(s.CadenceRPM),
			formatFloatPtr(s.TemperatureC),
			formatFloatPtr(s.GradePct),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (use overwrite to allow)", path)
	}
	return nil
}

func writeFile(path string, render func() ([]byte, error)) error {
	data, err := render()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func at(column []float64, i int) *float64 {
	if i >= len(column) {
		return nil
	}
	v := column[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
