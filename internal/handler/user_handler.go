package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/regops/dossier-flow-api/internal/dto"
	"github.com/regops/dossier-flow-api/internal/models"
	"github.com/regops/dossier-flow-api/internal/service"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
	"github.com/regops/dossier-flow-api/pkg/response"
)

// UserHandler exposes reviewer account endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs the handler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Create godoc
// @Summary Register a reviewer account
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.CreateUserRequest true "Account payload"
// @Success 201 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	user, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// List godoc
// @Summary List reviewer accounts
// @Tags users
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{
		Division: c.Query("division"),
		Search:   c.Query("search"),
	}
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	users, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// Get godoc
// @Summary Reviewer account detail
// @Tags users
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Performance godoc
// @Summary A reviewer's closed-segment aggregate
// @Tags users
// @Router /users/{id}/performance [get]
func (h *UserHandler) Performance(c *gin.Context) {
	perf, err := h.users.Performance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, perf, nil)
}
