package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/school-dashboard/internal/services"
	"github.com/SAP-F-2025/school-dashboard/internal/utils"
)

type AdminHandler struct {
	BaseHandler
	service        services.AdminService
	maxUploadBytes int64
}

func NewAdminHandler(service services.AdminService, maxUploadBytes int64, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:    NewBaseHandler(logger),
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

// ImportUsers creates accounts and profiles from an uploaded spreadsheet
// @Summary Bulk import users
// @Description Upload an .xlsx or .csv file with Email, Name, Role, Class and Section columns
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Spreadsheet"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/users/import [post]
func (h *AdminHandler) ImportUsers(c *gin.Context) {
	limitBody(c, h.maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		h.uploadError(c, "Spreadsheet file is required", err)
		return
	}

	h.LogRequest(c, "Importing users", "file", header.Filename, "size", header.Size)

	f, err := header.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open uploaded spreadsheet")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Failed to read upload"})
		return
	}
	defer f.Close()

	result, err := h.service.BulkImport(c.Request.Context(), header.Filename, f)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// limitBody caps the request body when limit is positive
func limitBody(c *gin.Context, limit int64) {
	if limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
}
