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

// EnrollmentHandler handles enrollment, evaluation and bulk endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	bulk        *service.BulkEnrollmentService
	exports     *service.ExportService
}

// NewEnrollmentHandler creates a new enrollment handler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, bulk *service.BulkEnrollmentService, exports *service.ExportService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, bulk: bulk, exports: exports}
}

func (h *EnrollmentHandler) filterFromQuery(c *gin.Context) models.EnrollmentFilter {
	var filter models.EnrollmentFilter
	filter.Page, filter.PageSize = parsePage(c)

	filter.UserID = c.Query("user_id")
	filter.CourseID = c.Query("course_id")
	filter.CompanyID = c.Query("company_id")
	filter.Status = models.EnrollmentStatus(c.Query("status"))
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	if approved := c.Query("approved"); approved != "" {
		if val, err := strconv.ParseBool(approved); err == nil {
			filter.Approved = &val
		}
	}

	// Company managers are pinned to their own company, students to
	// themselves.
	if claims := claimsFromContext(c); claims != nil {
		switch claims.Role {
		case models.RoleCompanyManager:
			if claims.CompanyID != nil {
				filter.CompanyID = *claims.CompanyID
			}
		case models.RoleStudent:
			filter.UserID = claims.UserID
		}
	}
	return filter
}

// List godoc
// @Summary List enrollments
// @Description List enrollments with user and course detail
// @Tags Enrollments
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param user_id query string false "User filter"
// @Param course_id query string false "Course filter"
// @Param company_id query string false "Company filter"
// @Param status query string false "Status filter"
// @Param approved query bool false "Approval filter"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := h.filterFromQuery(c)

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Get godoc
// @Summary Get enrollment
// @Description Get enrollment detail
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	id := c.Param("id")

	enrollment, err := h.enrollments.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Create godoc
// @Summary Enroll student
// @Description Enroll one student in one course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, enrollment)
}

// Evaluate godoc
// @Summary Evaluate student
// @Description Record a student's evaluation result; approval issues a certificate
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EvaluateRequest true "Evaluation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /enrollments/evaluate [post]
func (h *EnrollmentHandler) Evaluate(c *gin.Context) {
	var req service.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	enrollment, err := h.enrollments.Evaluate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollment, nil)
}

// BulkEnroll godoc
// @Summary Bulk enroll company students
// @Description Enroll a batch of company students into a class atomically
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.BulkEnrollRequest true "Bulk enrollment payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments/bulk [post]
func (h *EnrollmentHandler) BulkEnroll(c *gin.Context) {
	var req service.BulkEnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	// Company managers can only enroll on behalf of their own company.
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleCompanyManager {
		if claims.CompanyID == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "manager has no company"))
			return
		}
		if req.CompanyID != *claims.CompanyID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "company access denied"))
			return
		}
	}

	result, err := h.bulk.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// UpdateStatus godoc
// @Summary Update enrollment status
// @Description Move an enrollment between NOT_STARTED and IN_PROGRESS
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /enrollments/{id}/status [put]
func (h *EnrollmentHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Status models.EnrollmentStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.enrollments.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Export godoc
// @Summary Export enrollments
// @Description Download the filtered enrollments as CSV or PDF
// @Tags Enrollments
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Export format (csv or pdf)" Enums(csv, pdf)
// @Success 200
// @Router /enrollments/export [get]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	filter := h.filterFromQuery(c)

	var (
		data        []byte
		fileName    string
		contentType string
		err         error
	)
	switch c.DefaultQuery("format", "csv") {
	case "pdf":
		data, fileName, err = h.exports.EnrollmentsPDF(c.Request.Context(), filter)
		contentType = "application/pdf"
	default:
		data, fileName, err = h.exports.EnrollmentsCSV(c.Request.Context(), filter)
		contentType = "text/csv"
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, contentType, data)
}

// Delete godoc
// @Summary Delete enrollment
// @Description Delete an enrollment
// @Tags Enrollments
// @Param id path string true "Enrollment ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.enrollments.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
