package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seanutri/seanutri-api/internal/models"
	"github.com/seanutri/seanutri-api/internal/service"
	appErrors "github.com/seanutri/seanutri-api/pkg/errors"
	"github.com/seanutri/seanutri-api/pkg/response"
)

// NotificationHandler handles notification template and log endpoints.
type NotificationHandler struct {
	service *service.NotificationService
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// ListTemplates godoc
// @Summary List notification templates
// @Description List the editable email templates
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/templates [get]
func (h *NotificationHandler) ListTemplates(c *gin.Context) {
	templates, err := h.service.ListTemplates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, templates, nil)
}

// UpdateTemplate godoc
// @Summary Update notification template
// @Description Update the subject, body or enabled flag of one template
// @Tags Notifications
// @Accept json
// @Produce json
// @Param key path string true "Template key"
// @Param payload body service.UpdateTemplateRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /notifications/templates/{key} [put]
func (h *NotificationHandler) UpdateTemplate(c *gin.Context) {
	key := models.TemplateKey(c.Param("key"))

	var req service.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	template, err := h.service.UpdateTemplate(c.Request.Context(), key, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, template, nil)
}

// ListLogs godoc
// @Summary List notification logs
// @Description List delivery attempts with their outcomes
// @Tags Notifications
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param template_key query string false "Template filter"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /notifications/logs [get]
func (h *NotificationHandler) ListLogs(c *gin.Context) {
	var filter models.NotificationLogFilter
	filter.Page, filter.PageSize = parsePage(c)
	filter.TemplateKey = models.TemplateKey(c.Query("template_key"))
	filter.Status = models.NotificationStatus(c.Query("status"))

	logs, pagination, err := h.service.ListLogs(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, logs, pagination)
}
