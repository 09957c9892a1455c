package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/regops/dossier-flow-api/internal/dto"
	"github.com/regops/dossier-flow-api/internal/service"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
	"github.com/regops/dossier-flow-api/pkg/response"
)

// WorkflowHandler exposes the dossier transition endpoints.
type WorkflowHandler struct {
	workflow *service.WorkflowService
}

// NewWorkflowHandler constructs the handler.
func NewWorkflowHandler(workflow *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflow: workflow}
}

// Intake godoc
// @Summary Register a new dossier
// @Tags workflow
// @Accept json
// @Produce json
// @Param request body dto.IntakeRequest true "Intake payload"
// @Success 201 {object} response.Envelope
// @Router /applications [post]
func (h *WorkflowHandler) Intake(c *gin.Context) {
	actor, err := identityFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	app, err := h.workflow.Intake(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// Push godoc
// @Summary Push a triaged dossier to divisions
// @Tags workflow
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param request body dto.PushToDivisionsRequest true "Push payload"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/push [post]
func (h *WorkflowHandler) Push(c *gin.Context) {
	h.transition(c, func(c *gin.Context) (interface{}, error) {
		actor, err := identityFrom(c)
		if err != nil {
			return nil, err
		}
		id, err := applicationID(c)
		if err != nil {
			return nil, err
		}
		var req dto.PushToDivisionsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		return h.workflow.PushToDivisions(c.Request.Context(), id, req, actor)
	})
}

// Assign godoc
// @Summary Assign a divisional dossier to a technical reviewer
// @Tags workflow
// @Router /applications/{id}/assign [post]
func (h *WorkflowHandler) Assign(c *gin.Context) {
	h.transition(c, func(c *gin.Context) (interface{}, error) {
		actor, err := identityFrom(c)
		if err != nil {
			return nil, err
		}
		id, err := applicationID(c)
		if err != nil {
			return nil, err
		}
		var req dto.AssignStaffRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		return h.workflow.AssignStaff(c.Request.Context(), id, req, actor)
	})
}

// Submit godoc
// @Summary Submit a technical assessment
// @Tags workflow
// @Router /applications/{id}/submit [post]
func (h *WorkflowHandler) Submit(c *gin.Context) {
	h.transition(c, func(c *gin.Context) (interface{}, error) {
		actor, err := identityFrom(c)
		if err != nil {
			return nil, err
		}
		id, err := applicationID(c)
		if err != nil {
			return nil, err
		}
		var req dto.SubmitAssessmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		return h.workflow.SubmitAssessment(c.Request.Context(), id, req, actor)
	})
}

// Endorse godoc
// @Summary Endorse a divisional recommendation upward
// @Tags workflow
// @Router /applications/{id}/endorse [post]
func (h *WorkflowHandler) Endorse(c *gin.Context) {
	h.transition(c, func(c *gin.Context) (interface{}, error) {
		actor, err := identityFrom(c)
		if err != nil {
			return nil, err
		}
		id, err := applicationID(c)
		if err != nil {
			return nil, err
		}
		var req dto.EndorseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		return h.workflow.Endorse(c.Request.Context(), id, req, actor)
	})
}

// Rework godoc
// @Summary Return a dossier to its technical reviewer
// @Tags workflow
// @Router /applications/{id}/rework [post]
func (h *WorkflowHandler) Rework(c *gin.Context) {
	h.transition(c, func(c *gin.Context) (interface{}, error) {
		actor, err := identityFrom(c)
		if err != nil {
			return nil, err
		}
		id, err := applicationID(c)
		if err != nil {
			return nil, err
		}
		var req dto.ReworkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		return h.workflow.ReturnForRework(c.Request.Context(), id, req, actor)
	})
}

// Clearance godoc
// @Summary Issue the final Director clearance
// @Tags workflow
// @Router /applications/{id}/clearance [post]
func (h *WorkflowHandler) Clearance(c *gin.Context) {
	h.transition(c, func(c *gin.Context) (interface{}, error) {
		actor, err := identityFrom(c)
		if err != nil {
			return nil, err
		}
		id, err := applicationID(c)
		if err != nil {
			return nil, err
		}
		var req dto.ClearanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		return h.workflow.IssueClearance(c.Request.Context(), id, req, actor)
	})
}

// Reject godoc
// @Summary Reject a dossier back down from the Director desk
// @Tags workflow
// @Router /applications/{id}/reject [post]
func (h *WorkflowHandler) Reject(c *gin.Context) {
	h.transition(c, func(c *gin.Context) (interface{}, error) {
		actor, err := identityFrom(c)
		if err != nil {
			return nil, err
		}
		id, err := applicationID(c)
		if err != nil {
			return nil, err
		}
		var req dto.RejectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		return h.workflow.Reject(c.Request.Context(), id, req, actor)
	})
}

func (h *WorkflowHandler) transition(c *gin.Context, action func(c *gin.Context) (interface{}, error)) {
	result, err := action(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
