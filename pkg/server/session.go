package server

import (
	"crypto/rand"
	"encoding/binary"
	"net"
	"sync"

	"github.com/samber/lo"

	"github.com/NicolasHaas/gotalk/pkg/model"
)

// Session is the runtime record of one client connection. The protocol
// engine owns the connection and drives the state machine; the registry
// only references the session while it is authenticated.
type Session struct {
	ID   uint32
	conn net.Conn

	writeMu sync.Mutex // serializes writes to the connection

	mu       sync.Mutex // guards username and state, never held during I/O
	username string
	state    model.SessionState
}

// newSession wraps an accepted connection. The session ID is random and
// non-zero so log lines from different connections stay distinguishable.
func newSession(conn net.Conn) *Session {
	var id uint32
	for id == 0 {
		b := make([]byte, 4)
		if _, err := rand.Read(b); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		id = binary.BigEndian.Uint32(b)
	}
	return &Session{ID: id, conn: conn, state: model.StateUnauthenticated}
}

// WriteLine sends one line to the client, appending the newline. It is the
// only write path to the connection: the write mutex guarantees two
// concurrent broadcasts never interleave partial writes on one socket.
func (s *Session) WriteLine(text string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.conn.Write([]byte(text + "\n"))
	return err
}

// Username returns the authenticated username, or "" before login.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// State returns the current protocol state.
func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state model.SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// setAuthenticated records the username (set exactly once) and moves the
// session to StateAuthenticated.
func (s *Session) setAuthenticated(username string) {
	s.mu.Lock()
	s.username = username
	s.state = model.StateAuthenticated
	s.mu.Unlock()
}

// Registry is the concurrent set of authenticated sessions. All mutation
// and snapshot reads go through one mutex; snapshots are used after the
// lock is released so network I/O never happens under it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uint32]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[uint32]*Session),
	}
}

// Add registers an authenticated session. It is a no-op when the session is
// already present, and refuses a second live session for the same username
// (best effort; the store, not the registry, owns account uniqueness).
func (r *Registry) Add(sess *Session) bool {
	username := sess.Username()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[sess.ID]; exists {
		return true
	}
	for _, other := range r.sessions {
		if other.Username() == username {
			return false
		}
	}
	r.sessions[sess.ID] = sess
	return true
}

// Remove deletes a session by ID. Removing an absent ID is a no-op; the
// return value reports whether the session was actually registered.
func (r *Registry) Remove(id uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; !exists {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Snapshot returns a copy of all registered sessions, taken under the lock
// and returned without holding it. Callers must not use the snapshot to
// mutate the registry.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.sessions)
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
