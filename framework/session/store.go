package session

import (
	"maps"
	"sync"
	"time"
)

// Store persists session data between requests.
type Store interface {
	Load(id string) (map[string]any, bool)
	Save(id string, data map[string]any) error
	Delete(id string) error
}

// MemoryStore keeps sessions in process memory. Entries idle for longer
// than the lifetime are dropped on access.
type MemoryStore struct {
	mu       sync.Mutex
	lifetime time.Duration
	entries  map[string]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	data    map[string]any
	touched time.Time
}

// NewMemoryStore creates a MemoryStore. A zero lifetime never expires.
func NewMemoryStore(lifetime time.Duration) *MemoryStore {
	return &MemoryStore{
		lifetime: lifetime,
		entries:  make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (m *MemoryStore) Load(id string) (map[string]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	if m.expired(e) {
		delete(m.entries, id)
		return nil, false
	}
	return maps.Clone(e.data), true
}

func (m *MemoryStore) Save(id string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = memoryEntry{data: data, touched: m.now()}
	return nil
}

func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
			continue
		}
		n++
	}
	return n
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return m.lifetime > 0 && m.now().Sub(e.touched) > m.lifetime
}
