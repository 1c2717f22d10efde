// Package session scopes ride engines to user sessions. Every session owns
// its own engine, so one user's upload never replaces another's ride.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucasjlepore/ridechat"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 2 * time.Hour

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Session is one user's engine.
type Session struct {
	ID      string
	Engine  *ridechat.Engine
	Created time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen returns the time of the session's last use.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Manager owns the live sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	newEngine func() *ridechat.Engine
	ttl       time.Duration
	now       func() time.Time
	onChange  func(active int)
	log       *zap.SugaredLogger
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the idle expiry.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the manager logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(m *Manager) { m.log = log }
}

// OnChange registers a callback receiving the live session count after every
// create, delete or sweep.
func OnChange(fn func(active int)) Option {
	return func(m *Manager) { m.onChange = fn }
}

// NewManager returns a manager that builds each session's engine with newEngine.
func NewManager(newEngine func() *ridechat.Engine, opts ...Option) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		newEngine: newEngine,
		ttl:       DefaultTTL,
		now:       time.Now,
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a session with a fresh engine.
func (m *Manager) Create() *Session {
	now := m.now()
	s := &Session{
		ID:       uuid.NewString(),
		Engine:   m.newEngine(),
		Created:  now,
		lastSeen: now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.log.Debugw("session created", "session_id", s.ID)
	m.changed(n)
	return s
}

// Get returns a live session and marks it used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	now := m.now()
	if now.Sub(s.LastSeen()) > m.ttl {
		m.Delete(id)
		return nil, ErrNotFound
	}
	s.touch(now)
	return s, nil
}

// Delete ends a session. It reports whether the session existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if ok {
		m.log.Debugw("session deleted", "session_id", id)
		m.changed(n)
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen()) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		m.log.Infow("expired idle sessions", "removed", removed, "active", n)
		m.changed(n)
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) changed(n int) {
	if m.onChange != nil {
		m.onChange(n)
	}
}
