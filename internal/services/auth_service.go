package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/school-dashboard/internal/events"
	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
	"github.com/SAP-F-2025/school-dashboard/internal/validator"
)

type authService struct {
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	sessionTTL     time.Duration

	mu        sync.RWMutex
	listeners map[int]SessionListener
	nextID    int
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, sessionTTL time.Duration) AuthService {
	return &authService{
		repo:           repo,
		logger:         logger,
		validator:      validator,
		eventPublisher: publisher,
		sessionTTL:     sessionTTL,
		listeners:      make(map[int]SessionListener),
	}
}

func (s *authService) SignIn(ctx context.Context, req *LoginRequest) (*models.Session, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	identity, err := s.repo.Identity().SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidCredentials) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	session, err := s.repo.Sessions().Create(ctx, *identity, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	s.logger.InfoContext(ctx, "User signed in", "email", identity.Email)
	s.notify(ctx, SessionChange{Identity: identity})
	publishEvent(ctx, s.eventPublisher, s.logger, events.SessionSignedIn, events.SessionEvent{UID: identity.UID, Email: identity.Email})

	return session, nil
}

func (s *authService) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	identity, err := s.repo.Identity().SignUp(ctx, normalizeEmail(email), password)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// SignOut is idempotent; an unknown token still notifies listeners
func (s *authService) SignOut(ctx context.Context, token string) error {
	var previous *models.Identity
	if session, err := s.repo.Sessions().Get(ctx, token); err == nil {
		id := session.Identity
		previous = &id
	}

	if err := s.repo.Sessions().Delete(ctx, token); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	s.notify(ctx, SessionChange{Previous: previous})
	if previous != nil {
		s.logger.InfoContext(ctx, "User signed out", "email", previous.Email)
		publishEvent(ctx, s.eventPublisher, s.logger, events.SessionSignedOut, events.SessionEvent{UID: previous.UID, Email: previous.Email})
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	session, err := s.repo.Sessions().Get(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return session, nil
}

func (s *authService) OnSessionChange(listener SessionListener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *authService) notify(ctx context.Context, change SessionChange) {
	s.mu.RLock()
	listeners := make([]SessionListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, change)
	}
}
