package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seanutri/seanutri-api/internal/models"
	"github.com/seanutri/seanutri-api/internal/service"
	appErrors "github.com/seanutri/seanutri-api/pkg/errors"
	"github.com/seanutri/seanutri-api/pkg/response"
)

// CompanyHandler handles client company endpoints.
type CompanyHandler struct {
	companies *service.CompanyService
	users     *service.UserService
}

// NewCompanyHandler creates a new company handler.
func NewCompanyHandler(companies *service.CompanyService, users *service.UserService) *CompanyHandler {
	return &CompanyHandler{companies: companies, users: users}
}

// List godoc
// @Summary List companies
// @Description List companies with pagination and filtering
// @Tags Companies
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param active query bool false "Active filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /companies [get]
func (h *CompanyHandler) List(c *gin.Context) {
	var filter models.CompanyFilter
	filter.Page, filter.PageSize = parsePage(c)

	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filter.Active = &val
		}
	}
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	companies, pagination, err := h.companies.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, companies, pagination)
}

// Get godoc
// @Summary Get company
// @Description Get company detail
// @Tags Companies
// @Produce json
// @Param companyId path string true "Company ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /companies/{companyId} [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	id := c.Param("companyId")

	company, err := h.companies.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, company, nil)
}

// Students godoc
// @Summary List company students
// @Description List the active students of a company
// @Tags Companies
// @Produce json
// @Param companyId path string true "Company ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /companies/{companyId}/students [get]
func (h *CompanyHandler) Students(c *gin.Context) {
	id := c.Param("companyId")

	students, err := h.users.ListCompanyStudents(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, students, nil)
}

// Create godoc
// @Summary Create company
// @Description Register a new company
// @Tags Companies
// @Accept json
// @Produce json
// @Param payload body service.CompanyRequest true "Company payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /companies [post]
func (h *CompanyHandler) Create(c *gin.Context) {
	var req service.CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	company, err := h.companies.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, company)
}

// Update godoc
// @Summary Update company
// @Description Update company fields
// @Tags Companies
// @Accept json
// @Produce json
// @Param companyId path string true "Company ID"
// @Param payload body service.CompanyRequest true "Company payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /companies/{companyId} [put]
func (h *CompanyHandler) Update(c *gin.Context) {
	id := c.Param("companyId")

	var req service.CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	company, err := h.companies.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, company, nil)
}

// Delete godoc
// @Summary Delete company
// @Description Delete a company
// @Tags Companies
// @Param companyId path string true "Company ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /companies/{companyId} [delete]
func (h *CompanyHandler) Delete(c *gin.Context) {
	id := c.Param("companyId")

	if err := h.companies.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
