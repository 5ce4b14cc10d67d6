package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/SAP-F-2025/school-dashboard/internal/events"
	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
	"github.com/SAP-F-2025/school-dashboard/internal/validator"
)

const defaultSubject = "General"

type TeacherConfig struct {
	FanoutConcurrency int
	// Location formats attendance timestamps
	Location *time.Location
}

type teacherService struct {
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	config         TeacherConfig
	now            func() time.Time
}

func NewTeacherService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, config TeacherConfig) TeacherService {
	if config.Location == nil {
		config.Location = time.Local
	}
	return &teacherService{
		repo:           repo,
		logger:         logger,
		validator:      validator,
		eventPublisher: publisher,
		config:         config,
		now:            time.Now,
	}
}

func (s *teacherService) LoadRoster(ctx context.Context, req *RosterRequest) ([]models.RosterEntry, error) {
	req.Class = strings.TrimSpace(req.Class)
	req.Section = strings.TrimSpace(req.Section)
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	students, err := classStudents(ctx, s.repo.Users(), req.Class, req.Section)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	roster := make([]models.RosterEntry, 0, len(students))
	for _, u := range students {
		roster = append(roster, models.RosterEntry{
			Email:      u.Email,
			Name:       u.DisplayName(),
			ClassGrade: u.ClassGrade,
			Section:    u.Section,
		})
	}

	s.logger.DebugContext(ctx, "Roster loaded", "class", req.Class, "section", req.Section, "count", len(roster))
	return roster, nil
}

func (s *teacherService) MarkAttendance(ctx context.Context, email string) (*AttendanceResponse, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidationFailed)
	}

	ts := s.now().In(s.config.Location).Format(time.RFC3339)
	if err := s.appendTo(ctx, email, models.FieldAttendance, ts); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Attendance marked", "email", email, "timestamp", ts)
	publishEvent(ctx, s.eventPublisher, s.logger, events.AttendanceMarked, events.AttendanceMarkedEvent{Email: email, Timestamp: ts})

	return &AttendanceResponse{Email: email, Timestamp: ts}, nil
}

func (s *teacherService) AddMark(ctx context.Context, email string, req *AddMarkRequest) (*MarkResponse, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidationFailed)
	}
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	score, err := validator.ParseScore(req.Score.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = defaultSubject
	}

	mark := models.Mark{Subject: subject, Score: score}
	if err := s.appendTo(ctx, email, models.FieldMarks, mark); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Mark added", "email", email, "subject", subject, "score", score)
	publishEvent(ctx, s.eventPublisher, s.logger, events.MarkAdded, events.MarkAddedEvent{Email: email, Subject: subject, Score: score})

	return &MarkResponse{Email: email, Mark: mark}, nil
}

func (s *teacherService) UploadAssignment(ctx context.Context, req *AssignmentUploadRequest, contentType string, r io.Reader) (*models.AssignmentResult, error) {
	req.FileName = path.Base(strings.TrimSpace(req.FileName))
	if req.FileName == "." || req.FileName == "/" {
		req.FileName = ""
	}
	req.Class = strings.TrimSpace(req.Class)
	req.Section = strings.TrimSpace(req.Section)
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: file is required", ErrValidationFailed)
	}

	blobPath := fmt.Sprintf("assignments/%d_%s", s.now().UnixMilli(), req.FileName)
	handle, err := s.repo.Blobs().Upload(ctx, blobPath, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("upload assignment: %w", err)
	}
	url, err := s.repo.Blobs().PublicURL(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("resolve assignment url: %w", err)
	}

	students, err := classStudents(ctx, s.repo.Users(), req.Class, req.Section)
	if err != nil {
		return nil, fmt.Errorf("load recipients: %w", err)
	}

	file := models.FileRef{Name: req.FileName, URL: url}
	result, updated := fanout(ctx, s.repo.Users(), s.logger, s.config.FanoutConcurrency, students, models.FieldFiles, file)

	s.logger.InfoContext(ctx, "Assignment uploaded",
		"file", req.FileName,
		"path", handle.Path,
		"class", req.Class,
		"section", req.Section,
		"matched", result.Matched,
		"updated", result.Updated,
		"failed", len(result.Failed))

	publishEvent(ctx, s.eventPublisher, s.logger, events.AssignmentUploaded, events.AssignmentUploadedEvent{
		FileName:   req.FileName,
		URL:        url,
		Class:      req.Class,
		Section:    req.Section,
		Recipients: updated,
	})

	return &models.AssignmentResult{File: file, Fanout: *result}, nil
}

func (s *teacherService) BroadcastMessage(ctx context.Context, req *BroadcastRequest) (*models.FanoutResult, error) {
	req.Message = strings.TrimSpace(req.Message)
	req.Class = strings.TrimSpace(req.Class)
	req.Section = strings.TrimSpace(req.Section)
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	students, err := classStudents(ctx, s.repo.Users(), req.Class, req.Section)
	if err != nil {
		return nil, fmt.Errorf("load recipients: %w", err)
	}

	result, updated := fanout(ctx, s.repo.Users(), s.logger, s.config.FanoutConcurrency, students, models.FieldMsgs, req.Message)

	s.logger.InfoContext(ctx, "Message broadcast",
		"class", req.Class,
		"section", req.Section,
		"matched", result.Matched,
		"updated", result.Updated,
		"failed", len(result.Failed))

	publishEvent(ctx, s.eventPublisher, s.logger, events.MessageBroadcast, events.MessageBroadcastEvent{
		Message:    req.Message,
		Class:      req.Class,
		Section:    req.Section,
		Recipients: updated,
	})

	return result, nil
}

func (s *teacherService) appendTo(ctx context.Context, email string, field models.ArrayField, value interface{}) error {
	if err := s.repo.Users().AppendToField(ctx, email, field, value); err != nil {
		if repositories.IsNotFoundError(err) {
			return fmt.Errorf("%w: no student %s", ErrNotFound, email)
		}
		return fmt.Errorf("update %s: %w", field, err)
	}
	return nil
}
