package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrTooManySessions = errors.New("session limit reached")
	ErrClosed          = errors.New("session manager closed")
)

// Options configures a Manager.
type Options struct {
	// TTL is how long an untouched session is kept. Zero disables expiry.
	TTL time.Duration
	// SweepInterval is how often expired sessions are removed.
	SweepInterval time.Duration
	// MaxSessions caps live sessions. Zero means unlimited.
	MaxSessions int
}

// Session is one operator's workspace. Commands on a session are serialized.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	state    State
	lastUsed time.Time
}

// Apply runs cmd while holding the session lock.
func (s *Session) Apply(cmd Command) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUsed = time.Now()
	return s.state.Apply(cmd)
}

// Snapshot returns a detached copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.state.Snapshot()
	snap.ID = s.ID
	return snap
}

// Generation returns the counter bumped by every scoring run and clear.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.generation
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Manager is the registry of live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
	closed   bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewManager creates a manager and starts the expiry sweeper when both TTL
// and SweepInterval are set.
func NewManager(opts Options) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
		stop:     make(chan struct{}),
	}

	if opts.TTL > 0 && opts.SweepInterval > 0 {
		m.wg.Add(1)
		go m.sweepLoop()
	}
	return m
}

// Create registers a new empty session.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		return nil, ErrTooManySessions
	}

	now := time.Now()
	s := &Session{ID: uuid.New().String(), CreatedAt: now, lastUsed: now}
	m.sessions[s.ID] = s

	slog.Debug("Session created", "session_id", s.ID, "live_sessions", len(m.sessions))
	return s, nil
}

// Get looks up a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete ends a session. It reports whether the session existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL as of now and returns
// their IDs.
func (m *Manager) Sweep(now time.Time) []string {
	if m.opts.TTL <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []string
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) > m.opts.TTL {
			delete(m.sessions, id)
			expired = append(expired, id)
		}
	}
	return expired
}

func (m *Manager) sweepLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			if expired := m.Sweep(now); len(expired) > 0 {
				slog.Info("Expired idle sessions", "count", len(expired))
			}
		}
	}
}

// Close stops the sweeper and drops every session. It is safe to call twice.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.sessions = make(map[string]*Session)
	close(m.stop)
	m.mu.Unlock()

	m.wg.Wait()
}
