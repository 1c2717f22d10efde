// Package table holds the per-sample recording of one activity and its session
// summary record.
//
// A Table is columnar and sparse: a column exists when at least one sample
// carries it, and samples without a value hold NaN. Row order is the
// chronological load order and is never changed once the table is built.
// A Table is not safe for concurrent mutation; callers that share one must
// serialize access.
package table

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Recognized column names.
const (
	Distance         = "distance"
	Speed            = "speed"
	EnhancedSpeed    = "enhanced_speed"
	Altitude         = "altitude"
	EnhancedAltitude = "enhanced_altitude"
	HeartRate        = "heart_rate"
	Power            = "power"
	Temperature      = "temperature"
	Cadence          = "cadence"
	Gradient         = "gradient"
)

// Row is one sample as produced by a decoder. Values omits absent fields.
type Row struct {
	Timestamp time.Time
	Values    map[string]float64
}

// Table is an ordered, columnar container of samples.
type Table struct {
	length     int
	timestamps []time.Time
	columns    map[string][]float64
}

// New returns an empty table.
func New() *Table {
	return &Table{columns: make(map[string][]float64)}
}

// FromRows builds a table from sparse rows, preserving their order.
func FromRows(rows []Row) *Table {
	t := New()
	t.length = len(rows)
	if len(rows) == 0 {
		return t
	}

	haveTS := false
	for _, r := range rows {
		if !r.Timestamp.IsZero() {
			haveTS = true
		}
		for name := range r.Values {
			if _, ok := t.columns[name]; !ok {
				t.columns[name] = nanSlice(len(rows))
			}
		}
	}
	if haveTS {
		t.timestamps = make([]time.Time, len(rows))
	}
	for i, r := range rows {
		if haveTS {
			t.timestamps[i] = r.Timestamp
		}
		for name, v := range r.Values {
			t.columns[name][i] = v
		}
	}
	return t
}

// FromColumns builds a table from equal-length columns. Timestamps may be nil.
func FromColumns(timestamps []time.Time, columns map[string][]float64) (*Table, error) {
	t := New()
	t.length = -1
	if timestamps != nil {
		t.length = len(timestamps)
		t.timestamps = timestamps
	}
	for name, values := range columns {
		if t.length >= 0 && len(values) != t.length {
			return nil, fmt.Errorf("column %q has %d values, want %d", name, len(values), t.length)
		}
		t.length = len(values)
		t.columns[name] = values
	}
	if t.length < 0 {
		t.length = 0
	}
	return t, nil
}

// Len returns the number of samples.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.length
}

// Has reports whether the column exists.
func (t *Table) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.columns[name]
	return ok
}

// Column returns the column's backing slice. Callers must not modify it.
func (t *Table) Column(name string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.columns[name]
	return v, ok
}

// First returns the first existing column among names, in preference order.
// It is how "enhanced" variants win over their plain fallbacks.
func (t *Table) First(names ...string) (string, []float64, bool) {
	for _, name := range names {
		if v, ok := t.Column(name); ok {
			return name, v, true
		}
	}
	return "", nil, false
}

// SetColumn adds or replaces a column. The length must match the table.
func (t *Table) SetColumn(name string, values []float64) error {
	if t == nil {
		return fmt.Errorf("set column %q on nil table", name)
	}
	if len(values) != t.length {
		return fmt.Errorf("column %q has %d values, want %d", name, len(values), t.length)
	}
	t.columns[name] = values
	return nil
}

// Timestamps returns the timestamp column, or nil when the recording has none.
func (t *Table) Timestamps() []time.Time {
	if t == nil {
		return nil
	}
	return t.timestamps
}

// ColumnNames returns the column names in sorted order.
func (t *Table) ColumnNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.columns))
	for name := range t.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Slice returns rows [lo, hi) as a new table sharing no mutable state with t.
// Bounds are clamped to the table.
func (t *Table) Slice(lo, hi int) *Table {
	n := t.Len()
	lo = clamp(lo, 0, n)
	hi = clamp(hi, lo, n)

	out := New()
	out.length = hi - lo
	if t == nil {
		return out
	}
	if t.timestamps != nil {
		out.timestamps = append([]time.Time(nil), t.timestamps[lo:hi]...)
	}
	for name, values := range t.columns {
		out.columns[name] = append([]float64(nil), values[lo:hi]...)
	}
	return out
}

// Select returns the rows at the given indices, in the order given.
func (t *Table) Select(indices []int) *Table {
	out := New()
	out.length = len(indices)
	if t == nil {
		out.length = 0
		return out
	}
	if t.timestamps != nil {
		out.timestamps = make([]time.Time, len(indices))
		for i, idx := range indices {
			out.timestamps[i] = t.timestamps[idx]
		}
	}
	for name, values := range t.columns {
		col := make([]float64, len(indices))
		for i, idx := range indices {
			col[i] = values[idx]
		}
		out.columns[name] = col
	}
	return out
}

// Row returns sample i as a sparse row (NaN values omitted).
func (t *Table) Row(i int) Row {
	r := Row{Values: make(map[string]float64)}
	if t == nil || i < 0 || i >= t.length {
		return r
	}
	if t.timestamps != nil {
		r.Timestamp = t.timestamps[i]
	}
	for name, values := range t.columns {
		if !math.IsNaN(values[i]) {
			r.Values[name] = values[i]
		}
	}
	return r
}

// Present returns the non-missing, finite values of a column.
func Present(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
