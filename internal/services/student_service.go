package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

type studentService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewStudentService(repo repositories.Repository, logger *slog.Logger) StudentService {
	return &studentService{
		repo:   repo,
		logger: logger,
	}
}

// Dashboard renders the signed-in student's own record; no record renders empty
func (s *studentService) Dashboard(ctx context.Context, email string) (*models.StudentDashboard, error) {
	user, err := s.repo.Users().GetUser(ctx, normalizeEmail(email))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.DebugContext(ctx, "No profile for student, rendering empty dashboard", "email", email)
			return models.DashboardFor(nil), nil
		}
		return nil, fmt.Errorf("load student record: %w", err)
	}
	return models.DashboardFor(user), nil
}
