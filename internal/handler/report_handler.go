package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/regops/dossier-flow-api/internal/dto"
	"github.com/regops/dossier-flow-api/internal/service"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
	"github.com/regops/dossier-flow-api/pkg/response"
)

// ReportHandler exposes the asynchronous performance report endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Request godoc
// @Summary Request a reviewer performance report
// @Tags reports
// @Accept json
// @Produce json
// @Param request body dto.RequestReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Request(c *gin.Context) {
	actor, err := identityFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RequestReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	job, err := h.reports.Request(c.Request.Context(), req.Format, actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Report job status with a download link when ready
// @Tags reports
// @Router /reports/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	view, err := h.reports.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Download streams a generated report given a valid signed token.
func (h *ReportHandler) Download(c *gin.Context) {
	file, name, err := h.reports.OpenByToken(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	contentType := "text/csv"
	if strings.HasSuffix(name, ".pdf") {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Header("Content-Type", contentType)
	http.ServeContent(c.Writer, c.Request, name, fileModTime(file), file)
}
