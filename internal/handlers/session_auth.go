package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/services"
	"github.com/SAP-F-2025/school-dashboard/internal/utils"
)

// Gin context keys set by AuthMiddleware
const (
	ContextUserID       = "user_id"
	ContextUser         = "user"
	ContextUserRole     = "user_role"
	ContextUserEmail    = "user_email"
	ContextSessionToken = "session_token"
	ContextAppState     = "app_state"
)

// SessionAuthMiddleware resolves bearer session tokens issued by the login endpoint
type SessionAuthMiddleware struct {
	auth   services.AuthService
	view   services.ViewService
	logger utils.Logger
}

func NewSessionAuthMiddleware(auth services.AuthService, view services.ViewService, logger utils.Logger) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{
		auth:   auth,
		view:   view,
		logger: logger,
	}
}

// AuthMiddleware rejects requests without a live session and stores the caller's view in the context
func (m *SessionAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Unauthorized",
				Details: err.Error(),
			})
			return
		}

		session, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, services.ErrUnauthorized) {
				utils.GetLogger(c, m.logger).Error("Session lookup failed", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal server error",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Unauthorized",
				Details: "session expired or unknown",
			})
			return
		}

		state := m.view.OnSessionChange(c.Request.Context(), &session.Identity)

		c.Set(ContextUserID, session.Identity.UID)
		c.Set(ContextUser, state.User)
		c.Set(ContextUserRole, state.User.Role)
		c.Set(ContextUserEmail, session.Identity.Email)
		c.Set(ContextSessionToken, token)
		c.Set(ContextAppState, state)

		c.Next()
	}
}

// RequireRoleMiddleware admits only the listed roles; Admin is not a wildcard
func (m *SessionAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Forbidden",
				Details: err.Error(),
			})
			return
		}

		for _, required := range requiredRoles {
			if role == required {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Forbidden",
			Details: fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
		})
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header missing")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// GetUserRoleFromContext extracts the user role from the gin context
func GetUserRoleFromContext(c *gin.Context) (models.Role, error) {
	v, exists := c.Get(ContextUserRole)
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := v.(models.Role)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}

// GetAppStateFromContext returns the view computed for the current session
func GetAppStateFromContext(c *gin.Context) (*models.AppState, error) {
	v, exists := c.Get(ContextAppState)
	if !exists {
		return nil, fmt.Errorf("app state not found in context")
	}

	state, ok := v.(*models.AppState)
	if !ok {
		return nil, fmt.Errorf("invalid app state type in context")
	}

	return state, nil
}
