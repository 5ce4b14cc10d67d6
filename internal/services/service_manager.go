package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/school-dashboard/internal/config"
	"github.com/SAP-F-2025/school-dashboard/internal/events"
	"github.com/SAP-F-2025/school-dashboard/internal/notifier"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
	"github.com/SAP-F-2025/school-dashboard/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	SessionTTL time.Duration
	Admin      AdminConfig
	Teacher    TeacherConfig
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	sender         notifier.Sender
	config         ServiceManagerConfig

	// Service instances
	authService         AuthService
	viewService         ViewService
	adminService        AdminService
	teacherService      TeacherService
	studentService      StudentService
	notificationService NotificationService

	unsubscribeView func()

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, sender notifier.Sender, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:           repo,
		logger:         logger,
		validator:      validator,
		eventPublisher: publisher,
		sender:         sender,
		config:         config,
	}
}

// NewDefaultServiceManager creates a service manager from the application configuration
func NewDefaultServiceManager(cfg *config.Config, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, sender notifier.Sender) ServiceManager {
	return NewServiceManager(repo, logger, validator, publisher, sender, ServiceManagerConfig{
		SessionTTL: cfg.SessionTTL,
		Admin: AdminConfig{
			ImportPolicy:    cfg.ImportPolicy,
			DefaultPassword: cfg.DefaultImportPassword,
		},
		Teacher: TeacherConfig{
			FanoutConcurrency: cfg.FanoutConcurrency,
			Location:          cfg.Location,
		},
	})
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.initializeServices(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices(ctx context.Context) error {
	if sm.repo == nil {
		return fmt.Errorf("repository is required")
	}
	if sm.config.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	sm.authService = NewAuthService(sm.repo, sm.logger, sm.validator, sm.eventPublisher, sm.config.SessionTTL)
	sm.logger.Info("Auth service initialized")

	sm.viewService = NewViewService(sm.repo, sm.logger)
	sm.unsubscribeView = sm.authService.OnSessionChange(sm.viewService.SessionListener())
	sm.logger.Info("View service initialized")

	sm.adminService = NewAdminService(sm.repo, sm.logger, sm.eventPublisher, sm.config.Admin)
	sm.logger.Info("Admin service initialized")

	sm.teacherService = NewTeacherService(sm.repo, sm.logger, sm.validator, sm.eventPublisher, sm.config.Teacher)
	sm.logger.Info("Teacher service initialized")

	sm.studentService = NewStudentService(sm.repo, sm.logger)
	sm.logger.Info("Student service initialized")

	if sm.sender != nil {
		sm.notificationService = NewNotificationService(sm.sender, sm.logger)
		sm.logger.Info("Notification service initialized")
	}

	return nil
}

// Service getters
func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.authService
}

func (sm *serviceManager) View() ViewService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.viewService
}

func (sm *serviceManager) Admin() AdminService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.adminService
}

func (sm *serviceManager) Teacher() TeacherService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.teacherService
}

func (sm *serviceManager) Student() StudentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.studentService
}

// Notification is nil when no sender is configured
func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.notificationService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.unsubscribeView != nil {
		sm.unsubscribeView()
	}

	if sm.eventPublisher != nil {
		if err := sm.eventPublisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}
