package services

import (
	"context"
	"io"

	"github.com/SAP-F-2025/school-dashboard/internal/events"
	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/validator"
)

// ===== REQUEST DTOs =====

type LoginRequest = validator.LoginRequest
type RosterRequest = validator.RosterRequest
type AddMarkRequest = validator.AddMarkRequest
type BroadcastRequest = validator.BroadcastRequest
type AssignmentUploadRequest = validator.AssignmentUploadRequest

// ===== RESPONSE DTOs =====

type LoginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt string           `json:"expires_at"`
	State     *models.AppState `json:"state"`
}

type AttendanceResponse struct {
	Email     string `json:"email"`
	Timestamp string `json:"timestamp"`
}

type MarkResponse struct {
	Email string      `json:"email"`
	Mark  models.Mark `json:"mark"`
}

// ===== SESSION NOTIFICATION =====

// SessionChange is delivered to listeners on sign-in and sign-out
type SessionChange struct {
	// Identity is nil after sign-out
	Identity *models.Identity
	// Previous is the identity that just signed out
	Previous *models.Identity
}

type SessionListener func(ctx context.Context, change SessionChange)

// ===== SERVICE INTERFACES =====

type AuthService interface {
	SignIn(ctx context.Context, req *LoginRequest) (*models.Session, error)
	SignUp(ctx context.Context, email, password string) (*models.Identity, error)
	SignOut(ctx context.Context, token string) error

	// Authenticate resolves a bearer token; ErrUnauthorized when unknown or expired
	Authenticate(ctx context.Context, token string) (*models.Session, error)

	// OnSessionChange registers a listener and returns its unsubscribe func
	OnSessionChange(listener SessionListener) func()
}

type ViewService interface {
	// OnSessionChange never fails; a missing profile degrades to a Student view
	OnSessionChange(ctx context.Context, identity *models.Identity) *models.AppState

	// SessionListener keeps the profile cache in step with sign-in and sign-out
	SessionListener() SessionListener
}

type AdminService interface {
	BulkImport(ctx context.Context, filename string, r io.Reader) (*models.ImportResult, error)
}

type TeacherService interface {
	LoadRoster(ctx context.Context, req *RosterRequest) ([]models.RosterEntry, error)
	MarkAttendance(ctx context.Context, email string) (*AttendanceResponse, error)
	AddMark(ctx context.Context, email string, req *AddMarkRequest) (*MarkResponse, error)
	UploadAssignment(ctx context.Context, req *AssignmentUploadRequest, contentType string, r io.Reader) (*models.AssignmentResult, error)
	BroadcastMessage(ctx context.Context, req *BroadcastRequest) (*models.FanoutResult, error)
}

type StudentService interface {
	Dashboard(ctx context.Context, email string) (*models.StudentDashboard, error)
}

// EventConsumer is the subscribing side of the events topic
type EventConsumer interface {
	Handle(eventType events.EventType, h events.Handler)
}

type NotificationService interface {
	// Register subscribes the email handlers to the event consumer
	Register(consumer EventConsumer)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Auth() AuthService
	View() ViewService
	Admin() AdminService
	Teacher() TeacherService
	Student() StudentService
	Notification() NotificationService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
