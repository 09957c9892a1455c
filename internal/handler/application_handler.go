package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/regops/dossier-flow-api/internal/models"
	"github.com/regops/dossier-flow-api/internal/service"
	"github.com/regops/dossier-flow-api/pkg/response"
)

// ApplicationHandler exposes dossier read endpoints: detail, listing, trail,
// timeline, SLA clocks and the archived certificate.
type ApplicationHandler struct {
	apps         *service.ApplicationService
	sla          *service.SLAService
	certificates *service.CertificateService
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(apps *service.ApplicationService, sla *service.SLAService, certificates *service.CertificateService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, sla: sla, certificates: certificates}
}

// List godoc
// @Summary List dossiers
// @Tags applications
// @Produce json
// @Param status query string false "Lifecycle status filter"
// @Param point query string false "Current point filter"
// @Param search query string false "Application number search"
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	filter := models.ApplicationFilter{
		Status: c.Query("status"),
		Point:  c.Query("point"),
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	}
	apps, err := h.apps.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, nil)
}

// Get godoc
// @Summary Dossier detail with reconciled point and open clocks
// @Tags applications
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	id, err := applicationID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.apps.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// GetByNumber godoc
// @Summary Dossier detail looked up by application number
// @Tags applications
// @Produce json
// @Param number path string true "Application number"
// @Success 200 {object} response.Envelope
// @Router /applications/number/{number} [get]
func (h *ApplicationHandler) GetByNumber(c *gin.Context) {
	detail, err := h.apps.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Trail godoc
// @Summary Append-only comment trail
// @Tags applications
// @Router /applications/{id}/trail [get]
func (h *ApplicationHandler) Trail(c *gin.Context) {
	id, err := applicationID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	trail, err := h.apps.Trail(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trail, nil)
}

// Timeline godoc
// @Summary Full segment timeline, open and closed
// @Tags applications
// @Router /applications/{id}/timeline [get]
func (h *ApplicationHandler) Timeline(c *gin.Context) {
	id, err := applicationID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	segments, err := h.apps.Timeline(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, segments, nil)
}

// Clocks godoc
// @Summary SLA clocks over the open segments
// @Tags applications
// @Router /applications/{id}/clocks [get]
func (h *ApplicationHandler) Clocks(c *gin.Context) {
	id, err := applicationID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	clocks, err := h.sla.Clocks(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clocks, nil)
}

// CertificateLink godoc
// @Summary Signed download link for the archived clearance certificate
// @Tags applications
// @Router /applications/{id}/certificate [get]
func (h *ApplicationHandler) CertificateLink(c *gin.Context) {
	id, err := applicationID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.apps.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	token, expiresAt, err := h.certificates.DownloadURL(detail.Application)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"token": token, "expiresAt": expiresAt}, nil)
}

// DownloadCertificate streams an archived certificate given a valid token.
// Unauthenticated: the signed token is the credential.
func (h *ApplicationHandler) DownloadCertificate(c *gin.Context) {
	file, name, err := h.certificates.OpenByToken(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Header("Content-Type", "application/pdf")
	http.ServeContent(c.Writer, c.Request, name, fileModTime(file), file)
}
