// Package session maps browser sessions to their own App controller.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pthm/toybox/internal/app"
	"github.com/pthm/toybox/internal/logging"
)

// DefaultIdleTTL is how long an unused session lives.
const DefaultIdleTTL = 30 * time.Minute

// ErrNoSession is returned by FromContext when no App is attached.
var ErrNoSession = errors.New("session: no app in context")

// Factory mounts a new App for a fresh session.
type Factory func() *app.App

type entry struct {
	app      *app.App
	lastSeen time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithIdleTTL sets how long a session may go unused before it is closed.
func WithIdleTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.OrNop(logger)
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager owns every live session. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool

	factory Factory
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewManager creates a manager that mounts Apps with factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*entry),
		factory:  factory,
		ttl:      DefaultIdleTTL,
		logger:   logging.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire returns the App for id, touching its idle timer. An unknown or
// malformed id gets a new session; the returned id is the one to keep.
func (m *Manager) Acquire(id string) (string, *app.App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", nil, app.ErrClosed
	}

	if _, err := uuid.Parse(id); err == nil {
		if e, ok := m.sessions[id]; ok {
			e.lastSeen = m.now()
			return id, e.app, nil
		}
	}

	id = uuid.NewString()
	a := m.factory()
	m.sessions[id] = &entry{app: a, lastSeen: m.now()}
	m.logger.Debug("session created", "session_id", id, "sessions", len(m.sessions))
	return id, a, nil
}

// Lookup returns the App of a live session and touches its idle timer. It
// never creates a session.
func (m *Manager) Lookup(id string) (*app.App, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok || m.closed {
		return nil, false
	}
	e.lastSeen = m.now()
	return e.app, true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were closed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*app.App
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.app)
			delete(m.sessions, id)
			m.logger.Debug("session expired", "session_id", id)
		}
	}
	m.mu.Unlock()

	for _, a := range expired {
		a.Close()
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	interval := m.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Info("expired idle sessions", "count", n)
			}
		}
	}
}

// Close closes every session. Later Acquire calls fail with app.ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range sessions {
		e.app.Close()
	}
}

type ctxKey struct{}

// WithApp attaches a to ctx.
func WithApp(ctx context.Context, a *app.App) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the App attached by WithApp.
func FromContext(ctx context.Context) (*app.App, error) {
	if a, ok := ctx.Value(ctxKey{}).(*app.App); ok && a != nil {
		return a, nil
	}
	return nil, ErrNoSession
}
