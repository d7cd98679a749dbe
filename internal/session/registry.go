package session

import (
	"sort"
	"sync"
	"time"

	"codeberg.org/mutker/perfscope/internal/telemetry"
)

// Registry multiplexes sessions by device address and tracks which one is
// displayed. Non-current sessions keep buffering.
type Registry struct {
	capacity int
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	current  string
}

// NewRegistry creates a registry whose sessions hold capacity frames each.
func NewRegistry(capacity int) *Registry {
	return newRegistry(capacity, time.Now)
}

func newRegistry(capacity int, now func() time.Time) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Registry{
		capacity: capacity,
		now:      now,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session for address, creating it if needed. The
// first session ever created becomes current.
func (r *Registry) GetOrCreate(address string) *Session {
	r.mu.RLock()
	s, ok := r.sessions[address]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[address]; ok {
		return s
	}

	s = newSession(address, r.capacity, r.now)
	r.sessions[address] = s
	if r.current == "" {
		r.current = address
	}

	return s
}

// Get returns the session for address without creating one.
func (r *Registry) Get(address string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[address]
	return s, ok
}

// SetCurrent switches the displayed device. The address does not need a
// session yet; Current returns nil until one exists.
func (r *Registry) SetCurrent(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == address {
		return
	}
	r.current = address

	if s, ok := r.sessions[address]; ok {
		s.MarkDirty()
	}
}

// CurrentAddress returns the displayed address, or "" when none is set.
func (r *Registry) CurrentAddress() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.current
}

// Current returns the displayed session, or nil when no address is set or
// the address has no session.
func (r *Registry) Current() *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == "" {
		return nil
	}

	return r.sessions[r.current]
}

// Dispatch routes a frame to the session of address.
func (r *Registry) Dispatch(address string, f telemetry.Frame) bool {
	return r.GetOrCreate(address).Push(f)
}

// Addresses returns the known addresses in lexical order.
func (r *Registry) Addresses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.sessions))
	for addr := range r.sessions {
		out = append(out, addr)
	}
	sort.Strings(out)

	return out
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// ClearAll drops every session and the current pointer.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = make(map[string]*Session)
	r.current = ""
}
