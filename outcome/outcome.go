// Package outcome is the closed result type returned by every ride analysis.
//
// An analysis either produces a value, reports an expected empty result (no
// climbs over the threshold, no power column) or fails on malformed input. None
// of the three is a Go error: callers render the message and carry on.
package outcome

// Status classifies a Result.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result carries an analysis value, or the message explaining its absence.
type Result[T any] struct {
	Value   T
	Status  Status
	Message string
}

// Of wraps a successful value.
func Of[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusOK}
}

// Empty reports an expected, descriptive no-data outcome.
func Empty[T any](message string) Result[T] {
	return Result[T]{Status: StatusEmpty, Message: message}
}

// Fail reports malformed or unrecognized input.
func Fail[T any](message string) Result[T] {
	return Result[T]{Status: StatusFailed, Message: message}
}

// OK reports whether the result holds a value.
func (r Result[T]) OK() bool { return r.Status == StatusOK }

// Forward re-types a non-OK result so its status and message reach a caller
// that expects a different value type. An OK result forwards as the zero value.
func Forward[U, T any](r Result[T]) Result[U] {
	return Result[U]{Status: r.Status, Message: r.Message}
}
