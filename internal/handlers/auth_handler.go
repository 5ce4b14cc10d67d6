package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/services"
	"github.com/SAP-F-2025/school-dashboard/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	auth services.AuthService
	view services.ViewService
}

func NewAuthHandler(auth services.AuthService, view services.ViewService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		auth:        auth,
		view:        view,
	}
}

// Login signs a user in and returns a session token with the dashboard state
// @Summary Sign in
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Credentials"
// @Success 200 {object} services.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body", err)
		return
	}

	h.LogRequest(c, "Signing in", "email", req.Email)

	session, err := h.auth.SignIn(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	state := h.view.OnSessionChange(c.Request.Context(), &session.Identity)

	c.JSON(http.StatusOK, services.LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
		State:     state,
	})
}

// Logout ends the current session
// @Summary Sign out
// @Tags auth
// @Produce json
// @Success 200 {object} models.AppState
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.LogRequest(c, "Signing out")

	if err := h.auth.SignOut(c.Request.Context(), c.GetString(ContextSessionToken)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UnauthenticatedState())
}

// Session returns the dashboard state for the current session
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} models.AppState
// @Failure 401 {object} ErrorResponse
// @Router /session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	state, err := GetAppStateFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	c.JSON(http.StatusOK, state)
}
