package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/regops/dossier-flow-api/internal/dto"
	"github.com/regops/dossier-flow-api/internal/service"
	appErrors "github.com/regops/dossier-flow-api/pkg/errors"
	"github.com/regops/dossier-flow-api/pkg/response"
)

// CompanyHandler exposes applicant organisation endpoints.
type CompanyHandler struct {
	companies *service.CompanyService
}

// NewCompanyHandler constructs the handler.
func NewCompanyHandler(companies *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

// Create godoc
// @Summary Register an applicant organisation
// @Tags companies
// @Router /companies [post]
func (h *CompanyHandler) Create(c *gin.Context) {
	var req dto.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	company, err := h.companies.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, company)
}

// List godoc
// @Summary List applicant organisations
// @Tags companies
// @Router /companies [get]
func (h *CompanyHandler) List(c *gin.Context) {
	companies, err := h.companies.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, companies, nil)
}

// Get godoc
// @Summary Applicant organisation detail
// @Tags companies
// @Router /companies/{id} [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	company, err := h.companies.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, company, nil)
}
