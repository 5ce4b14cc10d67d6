package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/school-dashboard/internal/services"
	"github.com/SAP-F-2025/school-dashboard/internal/utils"
)

type StudentHandler struct {
	BaseHandler
	service services.StudentService
}

func NewStudentHandler(service services.StudentService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetDashboard renders the current student's files, messages and marks
// @Summary Get student dashboard
// @Description Files, messages newest first, and marks with Pass/Fail
// @Tags students
// @Produce json
// @Success 200 {object} models.StudentDashboard
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /student/dashboard [get]
func (h *StudentHandler) GetDashboard(c *gin.Context) {
	h.LogRequest(c, "Getting student dashboard")

	email := c.GetString(ContextUserEmail)
	if email == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	dashboard, err := h.service.Dashboard(c.Request.Context(), email)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
