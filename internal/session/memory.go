package session

import (
	"context"
	"sync"

	"github.com/spot2/intake-engine/internal/model"
)

// MemoryStore is an in-memory session store with per-key locks.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	locks    map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*model.Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Get returns the session for id.
func (m *MemoryStore) Get(ctx context.Context, id string) (*model.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Put stores the session.
func (m *MemoryStore) Put(ctx context.Context, s *model.Session) error {
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return nil
}

// TryLock acquires the session's lock without blocking.
func (m *MemoryStore) TryLock(id string) error {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	m.mu.Unlock()

	if !l.TryLock() {
		return ErrBusy
	}
	return nil
}

// Unlock releases the session's lock.
func (m *MemoryStore) Unlock(id string) {
	m.mu.RLock()
	l, ok := m.locks[id]
	m.mu.RUnlock()
	if ok {
		l.Unlock()
	}
}
