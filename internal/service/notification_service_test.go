package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seanutri/seanutri-api/internal/models"
	appErrors "github.com/seanutri/seanutri-api/pkg/errors"
	"github.com/seanutri/seanutri-api/pkg/jobs"
	"github.com/seanutri/seanutri-api/pkg/mailer"
)

type fakeNotificationRepo struct {
	templates map[models.TemplateKey]*models.NotificationTemplate
	logs      []*models.NotificationLog
	upserted  []*models.NotificationTemplate
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{templates: make(map[models.TemplateKey]*models.NotificationTemplate)}
}

func (f *fakeNotificationRepo) ListTemplates(ctx context.Context) ([]models.NotificationTemplate, error) {
	var out []models.NotificationTemplate
	for _, t := range f.templates {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeNotificationRepo) FindTemplateByKey(ctx context.Context, key models.TemplateKey) (*models.NotificationTemplate, error) {
	t, ok := f.templates[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (f *fakeNotificationRepo) UpsertTemplate(ctx context.Context, template *models.NotificationTemplate) error {
	f.templates[template.Key] = template
	f.upserted = append(f.upserted, template)
	return nil
}

func (f *fakeNotificationRepo) CreateLog(ctx context.Context, log *models.NotificationLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeNotificationRepo) ListLogs(ctx context.Context, filter models.NotificationLogFilter) ([]models.NotificationLog, int, error) {
	var out []models.NotificationLog
	for _, l := range f.logs {
		out = append(out, *l)
	}
	return out, len(out), nil
}

type fakeMailer struct {
	sent    []mailer.Message
	sendErr error
}

func (f *fakeMailer) Send(msg mailer.Message) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newNotificationFixture(mail mailer.Mailer) (*NotificationService, *fakeNotificationRepo) {
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo, mail, nil, jobs.QueueConfig{MaxRetries: 2}, true, validator.New(), zap.NewNop())
	return svc, repo
}

func TestDispatchMissingTemplateRecordsSkip(t *testing.T) {
	mail := &fakeMailer{}
	svc, repo := newNotificationFixture(mail)

	svc.Dispatch(context.Background(), models.TemplateSignup, "user@example.com", TemplateContext{})

	require.Len(t, repo.logs, 1)
	assert.Equal(t, models.NotificationStatusSkipped, repo.logs[0].Status)
	assert.Equal(t, "template missing", repo.logs[0].ErrorMessage)
	assert.Empty(t, mail.sent)
}

func TestDispatchDisabledTemplateRecordsSkip(t *testing.T) {
	mail := &fakeMailer{}
	svc, repo := newNotificationFixture(mail)
	repo.templates[models.TemplateReminder] = &models.NotificationTemplate{
		Key: models.TemplateReminder, Subject: "Lembrete", Body: "Oi", Enabled: false,
	}

	svc.Dispatch(context.Background(), models.TemplateReminder, "user@example.com", TemplateContext{})

	require.Len(t, repo.logs, 1)
	assert.Equal(t, models.NotificationStatusSkipped, repo.logs[0].Status)
	assert.Equal(t, "template disabled", repo.logs[0].ErrorMessage)
	assert.Empty(t, mail.sent)
}

func TestDeliverRecordsSentWithRenderedContent(t *testing.T) {
	mail := &fakeMailer{}
	svc, repo := newNotificationFixture(mail)

	err := svc.deliver(context.Background(), jobs.Job{
		ID:   "job-1",
		Type: string(models.TemplateResultApproved),
		Payload: deliveryJob{
			Template: models.TemplateResultApproved,
			Message:  mailer.Message{To: "maria@empresa.com", Subject: "Aprovado em HUET", Text: "Parabens Maria"},
		},
	})
	require.NoError(t, err)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "Aprovado em HUET", mail.sent[0].Subject)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, models.NotificationStatusSent, repo.logs[0].Status)
	assert.Equal(t, "maria@empresa.com", repo.logs[0].Recipient)
}

func TestDeliverRetriesBeforeRecordingFailure(t *testing.T) {
	mail := &fakeMailer{sendErr: errors.New("smtp down")}
	svc, repo := newNotificationFixture(mail)

	job := jobs.Job{
		ID:      "job-1",
		Payload: deliveryJob{Template: models.TemplateSignup, Message: mailer.Message{To: "x@y.com", Subject: "s"}},
	}

	// Attempts bubble the error so the queue retries; nothing is logged yet.
	require.Error(t, svc.deliver(context.Background(), job))
	assert.Empty(t, repo.logs)

	// Once the queue gives up, the drop handler records the failure.
	svc.dropped(job, errors.New("smtp down"))
	require.Len(t, repo.logs, 1)
	assert.Equal(t, models.NotificationStatusFailed, repo.logs[0].Status)
	assert.Equal(t, "smtp down", repo.logs[0].ErrorMessage)
	assert.Empty(t, mail.sent)
}

func TestUpdateTemplateRejectsUnknownKey(t *testing.T) {
	svc, _ := newNotificationFixture(&fakeMailer{})
	enabled := true

	_, err := svc.UpdateTemplate(context.Background(), "promo", UpdateTemplateRequest{Subject: "s", Body: "b", Enabled: &enabled})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateTemplateUpserts(t *testing.T) {
	svc, repo := newNotificationFixture(&fakeMailer{})
	enabled := false

	template, err := svc.UpdateTemplate(context.Background(), models.TemplateEnrollment, UpdateTemplateRequest{
		Subject: "Nova turma",
		Body:    "Oi {{nome_aluno}}",
		Enabled: &enabled,
	})
	require.NoError(t, err)
	assert.False(t, template.Enabled)
	require.Len(t, repo.upserted, 1)
	assert.Equal(t, models.TemplateEnrollment, repo.upserted[0].Key)
}
