package server

import (
	"sort"
	"sync"
)

// Registry is the live map of authenticated usernames to sessions. It is
// owned by the server process and passed into handlers and the router; it
// holds no locks across network I/O.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register records s as the live session for username. Reconnecting with an
// already-registered username is last-writer-wins: the displaced session is
// returned so the caller can notify and close it.
func (r *Registry) Register(username string, s *Session) (displaced *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	displaced = r.sessions[username]
	r.sessions[username] = s
	return displaced
}

// Unregister removes username's session, but only if it is still s — a
// displaced session racing its own teardown must not evict its replacement.
func (r *Registry) Unregister(username string, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[username] != s {
		return false
	}
	delete(r.sessions, username)
	return true
}

func (r *Registry) Get(username string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[username]
	return s, ok
}

// All returns a snapshot of every live session.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Usernames returns the sorted names of every live session.
func (r *Registry) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
