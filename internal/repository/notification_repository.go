package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seanutri/seanutri-api/internal/models"
)

// NotificationRepository handles persistence of notification templates and logs.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// ListTemplates returns every notification template.
func (r *NotificationRepository) ListTemplates(ctx context.Context) ([]models.NotificationTemplate, error) {
	const query = `SELECT id, key, subject, body, enabled, created_at, updated_at FROM notification_templates ORDER BY key`
	var templates []models.NotificationTemplate
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// FindTemplateByKey returns the template for the given key.
func (r *NotificationRepository) FindTemplateByKey(ctx context.Context, key models.TemplateKey) (*models.NotificationTemplate, error) {
	const query = `SELECT id, key, subject, body, enabled, created_at, updated_at FROM notification_templates WHERE key = $1`
	var template models.NotificationTemplate
	if err := r.db.GetContext(ctx, &template, query, key); err != nil {
		return nil, err
	}
	return &template, nil
}

// UpsertTemplate creates or replaces the template for a key.
func (r *NotificationRepository) UpsertTemplate(ctx context.Context, template *models.NotificationTemplate) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now
	const query = `INSERT INTO notification_templates (id, key, subject, body, enabled, created_at, updated_at)
        VALUES (:id, :key, :subject, :body, :enabled, :created_at, :updated_at)
        ON CONFLICT (key) DO UPDATE SET subject = EXCLUDED.subject, body = EXCLUDED.body,
        enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("upsert template: %w", err)
	}
	return nil
}

// CreateLog records a notification outcome.
func (r *NotificationRepository) CreateLog(ctx context.Context, log *models.NotificationLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notification_logs (id, template_key, recipient, subject, status, error_message, created_at)
        VALUES (:id, :template_key, :recipient, :subject, :status, :error_message, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create notification log: %w", err)
	}
	return nil
}

// ListLogs returns notification logs filtered by the provided criteria.
func (r *NotificationRepository) ListLogs(ctx context.Context, filter models.NotificationLogFilter) ([]models.NotificationLog, int, error) {
	base := `FROM notification_logs n`
	var conditions []string
	var args []interface{}

	if filter.TemplateKey != "" {
		conditions = append(conditions, fmt.Sprintf("n.template_key = $%d", len(args)+1))
		args = append(args, filter.TemplateKey)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("n.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Recipient != "" {
		conditions = append(conditions, fmt.Sprintf("n.recipient ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Recipient+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT n.id, n.template_key, n.recipient, n.subject, n.status, n.error_message, n.created_at
        %s ORDER BY n.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var logs []models.NotificationLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list notification logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notification logs: %w", err)
	}
	return logs, total, nil
}
