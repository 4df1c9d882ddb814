// Package session provides the session-scoped configuration store.
// A session is one MCP connection identified by an opaque session ID;
// connection overrides set by the configure_databricks tool live here
// for the lifetime of that session and are never visible to any other
// session.
package session

import (
	"sync"
	"time"
)

// Overrides holds the connection fields a session has configured.
// Empty fields mean "not set for this session"; the resolver falls
// through to process defaults for those.
type Overrides struct {
	Host        string
	Token       string
	WarehouseID string
	Catalog     string
	Schema      string

	UpdatedAt time.Time
}

// Store maps opaque session IDs to their configuration overrides.
// One session's entry never races with another's: all access goes
// through the store's lock, and callers only ever read or write their
// own session ID.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Overrides
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]Overrides),
	}
}

// Set replaces the overrides for a session. Writes are visible to all
// subsequent Get calls with the same session ID (read-after-write).
func (s *Store) Set(sessionID string, o Overrides) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o.UpdatedAt = time.Now()
	s.sessions[sessionID] = o
}

// Get returns the overrides for a session, if any
func (s *Store) Get(sessionID string) (Overrides, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.sessions[sessionID]
	return o, ok
}

// Delete removes a session's overrides, typically on session close
func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
}

// Len returns the number of sessions with stored overrides
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
