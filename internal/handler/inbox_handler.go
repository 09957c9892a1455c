package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/regops/dossier-flow-api/internal/service"
	"github.com/regops/dossier-flow-api/pkg/response"
)

// InboxHandler exposes the pending-work projections.
type InboxHandler struct {
	inbox *service.InboxService
	sla   *service.SLAService
}

// NewInboxHandler constructs the handler.
func NewInboxHandler(inbox *service.InboxService, sla *service.SLAService) *InboxHandler {
	return &InboxHandler{inbox: inbox, sla: sla}
}

// Division godoc
// @Summary Pending work for a division at a workflow point
// @Tags inbox
// @Produce json
// @Param division path string true "Division code"
// @Param point query string false "Workflow point (defaults to the deputy director desk)"
// @Success 200 {object} response.Envelope
// @Router /inbox/divisions/{division} [get]
func (h *InboxHandler) Division(c *gin.Context) {
	items, err := h.inbox.DivisionInbox(c.Request.Context(), c.Param("division"), c.Query("point"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Staff godoc
// @Summary A reviewer's open assignments
// @Tags inbox
// @Router /inbox/staff/{id} [get]
func (h *InboxHandler) Staff(c *gin.Context) {
	items, err := h.inbox.StaffInbox(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// StaffClocks godoc
// @Summary SLA clocks over a reviewer's open workload
// @Tags inbox
// @Router /inbox/staff/{id}/clocks [get]
func (h *InboxHandler) StaffClocks(c *gin.Context) {
	clocks, err := h.sla.StaffClocks(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clocks, nil)
}
