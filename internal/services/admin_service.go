package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/SAP-F-2025/school-dashboard/internal/config"
	"github.com/SAP-F-2025/school-dashboard/internal/events"
	"github.com/SAP-F-2025/school-dashboard/internal/importer"
	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

type AdminConfig struct {
	// ImportPolicy is config.ImportPolicyPreserve or config.ImportPolicyOverwrite
	ImportPolicy    string
	DefaultPassword string
}

type adminService struct {
	repo           repositories.Repository
	logger         *slog.Logger
	eventPublisher events.EventPublisher
	config         AdminConfig
}

func NewAdminService(repo repositories.Repository, logger *slog.Logger, publisher events.EventPublisher, config AdminConfig) AdminService {
	return &adminService{
		repo:           repo,
		logger:         logger,
		eventPublisher: publisher,
		config:         config,
	}
}

// BulkImport creates an account and a profile for every spreadsheet row.
// Row failures are counted and reported, never fatal.
func (s *adminService) BulkImport(ctx context.Context, filename string, r io.Reader) (*models.ImportResult, error) {
	if !importer.Supported(filename) {
		return nil, fmt.Errorf("%w: %w: %q", ErrValidationFailed, importer.ErrUnsupportedFormat, filename)
	}

	sheet, err := importer.ParseRows(filename, r)
	if err != nil {
		if errors.Is(err, importer.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
		return nil, fmt.Errorf("read spreadsheet: %w", err)
	}

	result := &models.ImportResult{
		Total:   len(sheet.Rows) + sheet.Skipped,
		Skipped: sheet.Skipped,
	}

	for _, row := range sheet.Rows {
		created, err := s.importRow(ctx, row)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to import row", "row", row.Line, "email", row.Email, "error", err)
			result.Failed++
			result.Errors = append(result.Errors, models.ImportRowError{Row: row.Line, Email: row.Email, Error: err.Error()})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.logger.InfoContext(ctx, "Bulk import finished",
		"file", filename,
		"total", result.Total,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"failed", result.Failed)

	publishEvent(ctx, s.eventPublisher, s.logger, events.UsersImported, events.UsersImportedEvent{
		Total:   result.Total,
		Created: result.Created,
		Updated: result.Updated,
		Skipped: result.Skipped,
		Failed:  result.Failed,
	})

	return result, nil
}

// importRow reports whether a new profile was written
func (s *adminService) importRow(ctx context.Context, row importer.Row) (bool, error) {
	if _, err := s.repo.Identity().SignUp(ctx, row.Email, s.config.DefaultPassword); err != nil {
		if repositories.IsAlreadyExistsError(err) {
			s.logger.InfoContext(ctx, "Account already exists", "email", row.Email)
		} else {
			// the profile is still written so a later sign-up can find it
			s.logger.WarnContext(ctx, "Failed to create account", "email", row.Email, "error", err)
		}
	}

	users := s.repo.Users()
	record := models.NewUserRecord(row.Email, row.Name, row.Role, row.ClassGrade, row.Section)

	if s.config.ImportPolicy == config.ImportPolicyOverwrite {
		_, err := users.GetUser(ctx, row.Email)
		if err != nil && !repositories.IsNotFoundError(err) {
			return false, fmt.Errorf("load profile: %w", err)
		}
		created := err != nil
		if err := users.SetUser(ctx, record); err != nil {
			return false, fmt.Errorf("write profile: %w", err)
		}
		return created, nil
	}

	// preserve: only the profile fields of an existing document are rewritten
	err := users.UpdateProfile(ctx, row.Email, row.Name, row.ClassGrade, row.Section)
	if err == nil {
		return false, nil
	}
	if !repositories.IsNotFoundError(err) {
		return false, fmt.Errorf("update profile: %w", err)
	}
	if err := users.SetUser(ctx, record); err != nil {
		return false, fmt.Errorf("write profile: %w", err)
	}
	return true, nil
}
