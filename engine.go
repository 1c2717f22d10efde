// Package ridechat answers bounded natural-language questions about one loaded
// ride by routing each question to a deterministic analysis.
//
// An Engine holds at most one ride. It is owned by its caller, typically one per
// user session; nothing in the package is global.
package ridechat

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lucasjlepore/ridechat/metrics"
	"github.com/lucasjlepore/ridechat/narrative"
	"github.com/lucasjlepore/ridechat/segment"
	"github.com/lucasjlepore/ridechat/table"
	"github.com/lucasjlepore/ridechat/units"
)

// DefaultNarrativeTimeout bounds a fallback narrative call, retries included.
const DefaultNarrativeTimeout = 45 * time.Second

// Reply intents outside the routed list.
const (
	IntentNoData    = "no_data"
	IntentHelp      = "help"
	IntentNarrative = "narrative"
	IntentError     = "error"
)

const problemReply = "Sorry, I ran into a problem analyzing that question. Please try asking it another way."

// Ride is the activity an engine currently holds.
type Ride struct {
	Samples        *table.Table
	Summary        table.Summary
	Headline       metrics.Record
	Units          units.Policy
	ClimbThreshold float64
	LoadedAt       time.Time
}

// Reply is an answer and the intent that produced it.
type Reply struct {
	Text   string `json:"response"`
	Intent string `json:"intent"`
}

// Engine answers questions about the ride it holds. All methods are safe for
// concurrent use.
type Engine struct {
	mu   sync.Mutex
	ride *Ride

	policy           units.Policy
	climbThreshold   float64
	intents          []Intent
	narrator         narrative.Narrator
	narrativeTimeout time.Duration
	log              *zap.SugaredLogger
	now              func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithUnits sets the display unit policy.
func WithUnits(p units.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithClimbThreshold sets the percent grade above which samples count as climbing.
func WithClimbThreshold(pct float64) Option {
	return func(e *Engine) {
		if pct > 0 {
			e.climbThreshold = pct
		}
	}
}

// WithNarrator enables the remote narrative fallback for unmatched questions.
func WithNarrator(n narrative.Narrator) Option {
	return func(e *Engine) { e.narrator = n }
}

// WithNarrativeTimeout bounds each fallback narrative call.
func WithNarrativeTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.narrativeTimeout = d
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithIntents appends intents after the built-in ones and before the help fallback.
func WithIntents(intents ...Intent) Option {
	return func(e *Engine) { e.intents = append(e.intents, intents...) }
}

// New returns an engine with no ride loaded.
func New(opts ...Option) *Engine {
	e := &Engine{
		policy:           units.Imperial(),
		climbThreshold:   segment.DefaultClimbThreshold,
		intents:          DefaultIntents(),
		narrativeTimeout: DefaultNarrativeTimeout,
		log:              zap.NewNop().Sugar(),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Units returns the engine's display unit policy.
func (e *Engine) Units() units.Policy {
	return e.policy
}

// Load replaces the held ride. It never fails: a nil table loads as an empty
// ride whose analyses report no data.
func (e *Engine) Load(samples *table.Table, summary table.Summary) {
	if samples == nil {
		samples = table.New()
	}
	summary = summary.Clone()

	ride := &Ride{
		Samples:        samples,
		Summary:        summary,
		Headline:       metrics.Extract(summary, e.policy),
		Units:          e.policy,
		ClimbThreshold: e.climbThreshold,
		LoadedAt:       e.now(),
	}

	e.mu.Lock()
	e.ride = ride
	e.mu.Unlock()

	e.log.Infow("ride loaded", "data_points", samples.Len(), "columns", samples.ColumnNames())
}

// IsLoaded reports whether a ride is held.
func (e *Engine) IsLoaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ride != nil
}

// HeadlineMetrics returns the twelve headline statistics of the held ride, or
// an all-zero record when nothing is loaded.
func (e *Engine) HeadlineMetrics() metrics.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ride == nil {
		return metrics.Extract(nil, e.policy)
	}
	return e.ride.Headline
}

// Ride returns a deep copy of the held ride, or nil.
func (e *Engine) Ride() *Ride {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ride == nil {
		return nil
	}
	snapshot := *e.ride
	snapshot.Samples = e.ride.Samples.Slice(0, e.ride.Samples.Len())
	snapshot.Summary = e.ride.Summary.Clone()
	return &snapshot
}

// Answer returns the text reply to query.
func (e *Engine) Answer(ctx context.Context, query string) string {
	return e.Ask(ctx, query).Text
}

// Ask routes query to the first matching intent. It never panics: a failure in
// any analysis is answered with a generic apology.
func (e *Engine) Ask(ctx context.Context, query string) Reply {
	reply, prompt := e.route(query)
	if prompt == "" {
		return reply
	}

	// The lock is released before the narrator is called.
	ctx, cancel := context.WithTimeout(ctx, e.narrativeTimeout)
	defer cancel()
	text, err := e.narrator.Narrate(ctx, prompt)
	if err != nil {
		e.log.Warnw("narrative fallback failed", "error", err)
		return reply
	}
	if strings.TrimSpace(text) == "" {
		return reply
	}
	return Reply{Text: text, Intent: IntentNarrative}
}

// route answers under the lock. A non-empty prompt asks the caller to try the
// narrator before settling for reply.
func (e *Engine) route(query string) (reply Reply, prompt string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			e.log.Errorw("analysis panicked", "query", query, "panic", r)
			reply, prompt = Reply{Text: problemReply, Intent: IntentError}, ""
		}
	}()

	if e.ride == nil {
		return Reply{Text: capabilityText, Intent: IntentNoData}, ""
	}

	q := strings.ToLower(query)
	for _, intent := range e.intents {
		if intent.Match(q) {
			e.log.Debugw("intent matched", "intent", intent.Name, "query", query)
			return Reply{Text: intent.Answer(e.ride), Intent: intent.Name}, ""
		}
	}

	reply = Reply{Text: helpText(e.ride), Intent: IntentHelp}
	if e.narrator != nil {
		prompt = narrative.BuildPrompt(query, e.ride.Headline, e.ride.Samples, e.ride.Units)
	}
	return reply, prompt
}
