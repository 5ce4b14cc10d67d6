package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories/storage"
	"github.com/SAP-F-2025/school-dashboard/internal/services"
	"github.com/SAP-F-2025/school-dashboard/internal/utils"
)

// HandlerConfig carries the transport settings the handlers need
type HandlerConfig struct {
	MaxUploadBytes int64
	// LocalBlobDir is served under /files when set
	LocalBlobDir string
}

type HandlerManager struct {
	authHandler    *AuthHandler
	adminHandler   *AdminHandler
	teacherHandler *TeacherHandler
	studentHandler *StudentHandler
	healthHandler  *HealthHandler
	authMiddleware *SessionAuthMiddleware
	config         HandlerConfig
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	config HandlerConfig,
) *HandlerManager {
	authMiddleware := NewSessionAuthMiddleware(serviceManager.Auth(), serviceManager.View(), logger)

	return &HandlerManager{
		authHandler:    NewAuthHandler(serviceManager.Auth(), serviceManager.View(), logger),
		adminHandler:   NewAdminHandler(serviceManager.Admin(), config.MaxUploadBytes, logger),
		teacherHandler: NewTeacherHandler(serviceManager.Teacher(), config.MaxUploadBytes, logger),
		studentHandler: NewStudentHandler(serviceManager.Student(), logger),
		healthHandler:  NewHealthHandler(serviceManager, logger),
		authMiddleware: authMiddleware,
		config:         config,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		// Login is the only unauthenticated API route
		v1.POST("/auth/login", hm.authHandler.Login)

		authed := v1.Group("")
		authed.Use(hm.authMiddleware.AuthMiddleware())
		{
			authed.POST("/auth/logout", hm.authHandler.Logout)
			authed.GET("/session", hm.authHandler.Session)

			// Admin routes
			admin := authed.Group("/admin")
			admin.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
			{
				admin.POST("/users/import", hm.adminHandler.ImportUsers)
			}

			// Teacher routes
			teacher := authed.Group("/teacher")
			teacher.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher))
			{
				teacher.GET("/roster", hm.teacherHandler.GetRoster)
				teacher.POST("/students/:email/attendance", hm.teacherHandler.MarkAttendance)
				teacher.POST("/students/:email/marks", hm.teacherHandler.AddMark)
				teacher.POST("/assignments", hm.teacherHandler.UploadAssignment)
				teacher.POST("/messages", hm.teacherHandler.BroadcastMessage)
			}

			// Student routes
			student := authed.Group("/student")
			student.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent))
			{
				student.GET("/dashboard", hm.studentHandler.GetDashboard)
			}
		}
	}

	// Uploaded assignments for the local blob store
	if hm.config.LocalBlobDir != "" {
		router.Static(storage.FilesRoute, hm.config.LocalBlobDir)
	}

	router.GET("/health", hm.healthHandler.HealthCheck)
}
