package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/school-dashboard/internal/services"
	"github.com/SAP-F-2025/school-dashboard/internal/utils"
)

type TeacherHandler struct {
	BaseHandler
	service        services.TeacherService
	maxUploadBytes int64
}

func NewTeacherHandler(service services.TeacherService, maxUploadBytes int64, logger utils.Logger) *TeacherHandler {
	return &TeacherHandler{
		BaseHandler:    NewBaseHandler(logger),
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

// GetRoster lists the students of a class and section
// @Summary Load class roster
// @Tags teacher
// @Produce json
// @Param class query string true "Class"
// @Param section query string true "Section"
// @Success 200 {array} models.RosterEntry
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /teacher/roster [get]
func (h *TeacherHandler) GetRoster(c *gin.Context) {
	req := services.RosterRequest{
		Class:   c.Query("class"),
		Section: c.Query("section"),
	}
	h.LogRequest(c, "Loading roster", "class", req.Class, "section", req.Section)

	roster, err := h.service.LoadRoster(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"students": roster,
		"count":    len(roster),
	})
}

// MarkAttendance records the current time for a student
// @Summary Mark attendance
// @Tags teacher
// @Produce json
// @Param email path string true "Student email"
// @Success 200 {object} services.AttendanceResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /teacher/students/{email}/attendance [post]
func (h *TeacherHandler) MarkAttendance(c *gin.Context) {
	email := c.Param("email")
	h.LogRequest(c, "Marking attendance", "student", email)

	resp, err := h.service.MarkAttendance(c.Request.Context(), email)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AddMark records a score for a student
// @Summary Add mark
// @Tags teacher
// @Accept json
// @Produce json
// @Param email path string true "Student email"
// @Param request body services.AddMarkRequest true "Score and optional subject"
// @Success 200 {object} services.MarkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /teacher/students/{email}/marks [post]
func (h *TeacherHandler) AddMark(c *gin.Context) {
	email := c.Param("email")

	var req services.AddMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body", err)
		return
	}

	h.LogRequest(c, "Adding mark", "student", email, "subject", req.Subject)

	resp, err := h.service.AddMark(c.Request.Context(), email, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UploadAssignment stores a file and attaches it to every student of a class
// @Summary Upload assignment
// @Tags teacher
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Assignment file"
// @Param class formData string true "Class"
// @Param section formData string true "Section"
// @Success 200 {object} models.AssignmentResult
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /teacher/assignments [post]
func (h *TeacherHandler) UploadAssignment(c *gin.Context) {
	limitBody(c, h.maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		h.uploadError(c, "Assignment file is required", err)
		return
	}

	req := services.AssignmentUploadRequest{
		FileName: header.Filename,
		Class:    c.PostForm("class"),
		Section:  c.PostForm("section"),
	}
	h.LogRequest(c, "Uploading assignment", "file", req.FileName, "class", req.Class, "section", req.Section)

	f, err := header.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open uploaded assignment")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Failed to read upload"})
		return
	}
	defer f.Close()

	result, err := h.service.UploadAssignment(c.Request.Context(), &req, header.Header.Get("Content-Type"), f)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// BroadcastMessage appends a message to every student of a class
// @Summary Broadcast message
// @Tags teacher
// @Accept json
// @Produce json
// @Param request body services.BroadcastRequest true "Message, class and section"
// @Success 200 {object} models.FanoutResult
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /teacher/messages [post]
func (h *TeacherHandler) BroadcastMessage(c *gin.Context) {
	var req services.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body", err)
		return
	}

	h.LogRequest(c, "Broadcasting message", "class", req.Class, "section", req.Section)

	result, err := h.service.BroadcastMessage(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
