package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

// SessionMemory is an in-process session store used when Redis is not configured.
// Sessions do not survive a restart and are not shared between replicas.
type SessionMemory struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

func NewSessionMemory() repositories.SessionStore {
	return newSessionMemory(time.Now)
}

func newSessionMemory(now func() time.Time) *SessionMemory {
	return &SessionMemory{
		sessions: make(map[string]models.Session),
		now:      now,
	}
}

func (s *SessionMemory) Create(ctx context.Context, identity models.Identity, ttl time.Duration) (*models.Session, error) {
	if identity.Email == "" {
		return nil, fmt.Errorf("create session: identity email is required")
	}

	now := s.now().UTC()
	session := models.Session{
		Token:     uuid.NewString(),
		Identity:  identity,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked(now)
	s.sessions[session.Token] = session
	return &session, nil
}

func (s *SessionMemory) Get(ctx context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || !s.now().Before(session.ExpiresAt) {
		return nil, repositories.ErrNotFound
	}
	return &session, nil
}

func (s *SessionMemory) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *SessionMemory) purgeExpiredLocked(now time.Time) {
	for token, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}
