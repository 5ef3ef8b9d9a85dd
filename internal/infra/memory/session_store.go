package memory

import (
	"sync"

	"formbuilder-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(formID string) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[formID]; ok {
		return session
	}
	session := app.NewSession(formID)
	s.sessions[formID] = session
	return session
}

func (s *SessionStore) Get(formID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[formID]
	return session, ok
}

func (s *SessionStore) DeleteIfEmpty(formID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[formID]
	if !ok {
		return
	}
	if session.IsEmpty() {
		delete(s.sessions, formID)
	}
}
