package state

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var ErrStateNotFound = errors.New("session state not found")

// Store is the persistence contract used by the turn coordinator. Turns
// within one session are logically sequential, so last-writer-wins per
// key is sufficient; different keys must not interfere.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps sessions in process memory. Suitable for tests and
// single-instance runs without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return cloneSession(s), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if s == nil {
		return ErrNilSession
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	s.EnsureDataMap()
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.SessionID] = cloneSession(s)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func cloneSession(in *Session) *Session {
	out := *in
	out.CustomerData = make(map[string]any, len(in.CustomerData))
	for k, v := range in.CustomerData {
		out.CustomerData[k] = v
	}
	if in.PendingRequest != nil {
		pr := *in.PendingRequest
		out.PendingRequest = &pr
	}
	return &out
}
