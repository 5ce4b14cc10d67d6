package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

const sessionPrefix = "session:"

type SessionRedis struct {
	client *redis.Client
}

func NewSessionRedis(client *redis.Client) repositories.SessionStore {
	return &SessionRedis{client: client}
}

func (s *SessionRedis) key(token string) string {
	return sessionPrefix + token
}

// Create stores a new session token for the identity
func (s *SessionRedis) Create(ctx context.Context, identity models.Identity, ttl time.Duration) (*models.Session, error) {
	if identity.Email == "" {
		return nil, fmt.Errorf("create session: identity email is required")
	}

	now := time.Now().UTC()
	session := &models.Session{
		Token:     uuid.NewString(),
		Identity:  identity,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("create session: marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.key(session.Token), data, ttl).Err(); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *SessionRedis) Get(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, repositories.ErrNotFound
	}

	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("get session: unmarshal: %w", err)
	}
	return &session, nil
}

// Delete is a no-op for unknown tokens
func (s *SessionRedis) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
