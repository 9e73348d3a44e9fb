package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seanutri/seanutri-api/internal/models"
	appErrors "github.com/seanutri/seanutri-api/pkg/errors"
	"github.com/seanutri/seanutri-api/pkg/jobs"
	"github.com/seanutri/seanutri-api/pkg/mailer"
)

type notificationRepository interface {
	ListTemplates(ctx context.Context) ([]models.NotificationTemplate, error)
	FindTemplateByKey(ctx context.Context, key models.TemplateKey) (*models.NotificationTemplate, error)
	UpsertTemplate(ctx context.Context, template *models.NotificationTemplate) error
	CreateLog(ctx context.Context, log *models.NotificationLog) error
	ListLogs(ctx context.Context, filter models.NotificationLogFilter) ([]models.NotificationLog, int, error)
}

// UpdateTemplateRequest describes a template edit.
type UpdateTemplateRequest struct {
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
	Enabled *bool  `json:"enabled" validate:"required"`
}

type deliveryJob struct {
	Template models.TemplateKey
	Message  mailer.Message
}

// NotificationService renders templates and dispatches email notifications
// through a background queue. Delivery failures are recorded, never
// propagated to the triggering operation.
type NotificationService struct {
	repo      notificationRepository
	renderer  *TemplateRenderer
	mail      mailer.Mailer
	queue     *jobs.Queue
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	enabled   bool
}

// NewNotificationService constructs a NotificationService and its queue.
func NewNotificationService(repo notificationRepository, mail mailer.Mailer, metrics *MetricsService, cfg jobs.QueueConfig, enabled bool, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	s := &NotificationService{
		repo:      repo,
		renderer:  NewTemplateRenderer(),
		mail:      mail,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		enabled:   enabled,
	}
	cfg.Logger = logger
	cfg.OnDrop = s.dropped
	s.queue = jobs.NewQueue("notifications", s.deliver, cfg)
	return s
}

// Start begins queue consumption.
func (s *NotificationService) Start(ctx context.Context) {
	if s.enabled {
		s.queue.Start(ctx)
	}
}

// Stop drains the queue workers.
func (s *NotificationService) Stop() {
	if s.enabled {
		s.queue.Stop()
	}
}

// Dispatch renders the named template and enqueues delivery. A disabled or
// missing template records a skipped outcome; any error is absorbed.
func (s *NotificationService) Dispatch(ctx context.Context, key models.TemplateKey, recipient string, tctx TemplateContext) {
	if !s.enabled || recipient == "" {
		return
	}

	template, err := s.repo.FindTemplateByKey(ctx, key)
	if err != nil {
		reason := "template lookup failed"
		if errors.Is(err, sql.ErrNoRows) {
			reason = "template missing"
		}
		s.recordOutcome(ctx, key, recipient, "", models.NotificationStatusSkipped, reason)
		return
	}
	if !template.Enabled {
		s.recordOutcome(ctx, key, recipient, template.Subject, models.NotificationStatusSkipped, "template disabled")
		return
	}

	subject, body := s.renderer.Render(template.Subject, template.Body, tctx)
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: string(key),
		Payload: deliveryJob{
			Template: key,
			Message:  mailer.Message{To: recipient, Subject: subject, Text: body},
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification", zap.String("template", string(key)), zap.Error(err))
		s.recordOutcome(ctx, key, recipient, subject, models.NotificationStatusFailed, err.Error())
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(deliveryJob)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	if err := s.mail.Send(payload.Message); err != nil {
		return err
	}

	s.recordOutcome(ctx, payload.Template, payload.Message.To, payload.Message.Subject, models.NotificationStatusSent, "")
	return nil
}

// dropped records the terminal failure once the queue gives up on a job.
func (s *NotificationService) dropped(job jobs.Job, err error) {
	payload, ok := job.Payload.(deliveryJob)
	if !ok {
		return
	}
	s.recordOutcome(context.Background(), payload.Template, payload.Message.To, payload.Message.Subject, models.NotificationStatusFailed, err.Error())
}

func (s *NotificationService) recordOutcome(ctx context.Context, key models.TemplateKey, recipient, subject string, status models.NotificationStatus, errMsg string) {
	if s.metrics != nil {
		s.metrics.RecordNotification(string(key), string(status))
	}
	log := &models.NotificationLog{
		TemplateKey:  key,
		Recipient:    recipient,
		Subject:      subject,
		Status:       status,
		ErrorMessage: errMsg,
	}
	if err := s.repo.CreateLog(ctx, log); err != nil {
		s.logger.Warn("failed to record notification log", zap.String("template", string(key)), zap.Error(err))
	}
}

// ListTemplates returns every template for admin editing.
func (s *NotificationService) ListTemplates(ctx context.Context) ([]models.NotificationTemplate, error) {
	templates, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	return templates, nil
}

// UpdateTemplate upserts the subject, body and enabled flag for a key.
func (s *NotificationService) UpdateTemplate(ctx context.Context, key models.TemplateKey, req UpdateTemplateRequest) (*models.NotificationTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	known := false
	for _, k := range models.KnownTemplateKeys {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown template key")
	}

	template := &models.NotificationTemplate{
		Key:     key,
		Subject: req.Subject,
		Body:    req.Body,
		Enabled: *req.Enabled,
	}
	if err := s.repo.UpsertTemplate(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save template")
	}
	return template, nil
}

// ListLogs returns notification outcomes with pagination metadata.
func (s *NotificationService) ListLogs(ctx context.Context, filter models.NotificationLogFilter) ([]models.NotificationLog, *models.Pagination, error) {
	logs, total, err := s.repo.ListLogs(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notification logs")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return logs, pagination, nil
}
