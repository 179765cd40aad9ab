// Package session keeps per-visitor key/value state across requests,
// identified by a cookie holding a random session id.
package session

import (
	"context"
	"maps"
	"sync"
)

// flashPrefix namespaces flash messages inside the session data.
const flashPrefix = "flash_"

// Session is the state of one visitor. It is safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	id        string
	data      map[string]any
	destroyed bool
}

func newSession(id string, data map[string]any) *Session {
	if data == nil {
		data = make(map[string]any)
	}
	return &Session{id: id, data: data}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Get returns the value stored under key, or def.
func (s *Session) Get(key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.data[key]; ok {
		return v
	}
	return def
}

// Set stores value under key.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Has reports whether key is set.
func (s *Session) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Clear removes key.
func (s *Session) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		}
}

// ClearAll drops every key and destroys the session in its store at the end
// of the request.
func (s *Session) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]any)
	s.destroyed = true
}

// Flash stores a message that GetFlash returns once.
func (s *Session) Flash(key, message string) {
	s.Set(flashPrefix+key, message)
}

// GetFlash returns and removes the flash message under key.
func (s *Session) GetFlash(key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[flashPrefix+key]
	if !ok {
		return def
	}
	delete(s.data, flashPrefix+key)
	return v
}

// snapshot copies the data for the store.
func (s *Session) snapshot() (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.data), s.destroyed
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session started for the request, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
