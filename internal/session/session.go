// Package session implements the process-wide session table (spec
// §4.5): connect allocates a new id and handle, disconnect removes it
// and tears down the handle. Grounded on the teacher's
// server/session/session_manager.go, adapted from net.Conn/string
// keys to the spec's u64 session-id -> engine-handle map.
package session

import (
	"sync"
	"time"

	"github.com/infinidb-io/infinidb/internal/catalog"
)

// Handle is whatever state a connected session needs torn down on
// disconnect. The engine package's EngineHandle satisfies this.
type Handle interface {
	Close() error
}

// Session is one connected client (spec §4.5).
type Session struct {
	ID       uint64
	User     string
	Database string
	Handle   Handle

	mu           sync.Mutex
	lastActivity time.Time
}

// Touch records activity for idle-timeout bookkeeping.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// IdleFor reports how long the session has been idle.
func (s *Session) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity)
}

// Manager is the process-wide session_map: u64 -> handle, guarded by
// a mutex (spec §4.5).
type Manager struct {
	mu          sync.Mutex
	sessions    map[uint64]*Session
	nextID      uint64
	maxSessions int
	timeout     time.Duration
}

// NewManager builds a session manager capped at maxSessions
// concurrent connections.
func NewManager(maxSessions int, timeout time.Duration) *Manager {
	if maxSessions <= 0 {
		maxSessions = 1024
	}
	return &Manager{
		sessions:    make(map[uint64]*Session),
		maxSessions: maxSessions,
		timeout:     timeout,
	}
}

// Connect allocates a new session id and registers handle under it
// (spec §4.5 "Connect allocates a new id and handle").
func (m *Manager) Connect(user, database string, handle Handle) (*Session, catalog.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxSessions {
		return nil, catalog.NewStatus(catalog.InvalidParameterValue, "session limit reached")
	}

	m.nextID++
	s := &Session{ID: m.nextID, User: user, Database: database, Handle: handle, lastActivity: time.Now()}
	m.sessions[s.ID] = s
	return s, catalog.OkStatus
}

// Get looks up a session by id.
func (m *Manager) Get(id uint64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Disconnect removes the session and tears down its handle (spec
// §4.5 "disconnect removes it and tears down the handle").
func (m *Manager) Disconnect(id uint64) catalog.Status {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return catalog.NewStatus(catalog.SessionNotFound, "no such session")
	}
	if s.Handle != nil {
		if err := s.Handle.Close(); err != nil {
			return catalog.NewStatus(catalog.Unrecoverable, err.Error())
		}
	}
	return catalog.OkStatus
}

// List returns every live session id, sorted is left to the caller.
func (m *Manager) List() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint64, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// CleanupExpired disconnects every session idle past the configured
// timeout (spec §4.5, grounded on the teacher's CleanupExpiredSessions
// sweep).
func (m *Manager) CleanupExpired() {
	if m.timeout <= 0 {
		return
	}
	m.mu.Lock()
	var expired []uint64
	for id, s := range m.sessions {
		if s.IdleFor() > m.timeout {
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.Disconnect(id)
	}
}

// RunCleanupLoop runs CleanupExpired on a fixed interval until stop is
// closed (spec §4.5 background sweep, grounded on the teacher's
// cleanupRoutine ticker).
func (m *Manager) RunCleanupLoop(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.CleanupExpired()
		case <-stop:
			return
		}
	}
}
