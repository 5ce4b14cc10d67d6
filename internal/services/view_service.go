package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

const (
	sectionHome    = "home"
	sectionStudent = "student"
)

// profileEvictor is implemented by caching user stores
type profileEvictor interface {
	Evict(ctx context.Context, email string)
}

type viewService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewViewService(repo repositories.Repository, logger *slog.Logger) ViewService {
	return &viewService{
		repo:   repo,
		logger: logger,
	}
}

func (s *viewService) OnSessionChange(ctx context.Context, identity *models.Identity) *models.AppState {
	if identity == nil {
		return models.UnauthenticatedState()
	}

	state := &models.AppState{Status: models.StatusAuthenticated}

	user, err := s.repo.Users().GetUser(ctx, identity.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.WarnContext(ctx, "No profile for signed-in user, using Student view", "email", identity.Email)
		} else {
			s.logger.WarnContext(ctx, "Failed to load profile, using Student view", "email", identity.Email, "error", err)
		}
		user = models.NewUserRecord(identity.Email, identity.Email, models.RoleStudent, "", "")
		state.ProfileFallback = true
	}

	panel := models.PanelFor(user.Role)
	state.User = user
	state.DisplayName = user.DisplayName()
	state.Panel = panel
	state.VisibleNav = []models.Panel{panel}
	state.ActiveSection = sectionHome

	if panel == models.PanelStudent {
		state.ActiveSection = sectionStudent
		if state.ProfileFallback {
			state.Student = models.DashboardFor(nil)
		} else {
			state.Student = models.DashboardFor(user)
		}
	}

	return state
}

// SessionListener warms the profile cache on sign-in and evicts it on sign-out
func (s *viewService) SessionListener() SessionListener {
	return func(ctx context.Context, change SessionChange) {
		if change.Identity != nil {
			if _, err := s.repo.Users().GetUser(ctx, change.Identity.Email); err != nil && !repositories.IsNotFoundError(err) {
				s.logger.DebugContext(ctx, "Profile warm-up failed", "email", change.Identity.Email, "error", err)
			}
			return
		}
		if change.Previous == nil {
			return
		}
		if evictor, ok := s.repo.Users().(profileEvictor); ok {
			evictor.Evict(ctx, change.Previous.Email)
		}
	}
}
