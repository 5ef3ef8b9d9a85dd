package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"formbuilder-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions and their broadcast fan-out stay in process; Redis carries a
// liveness key per form so other instances can see which forms are being
// edited.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), SessionKey(formID), "1", s.ttl).Err()
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
		_ = s.client.Del(context.Background(), SessionKey(formID)).Err()
	}
}

// Editing reports whether any instance holds a live session for formID.
func (s *SessionStore) Editing(ctx context.Context, formID string) (bool, error) {
	n, err := s.client.Exists(ctx, SessionKey(formID)).Result()
	return n > 0, err
}

// SessionKey is the liveness key of a form editing session.
func SessionKey(formID string) string {
	return "formbuilder:session:" + formID
}
