package models

import "time"

// TemplateKey identifies one of the fixed notification templates.
type TemplateKey string

// The supported notification templates.
const (
	TemplateSignup         TemplateKey = "signup"
	TemplateEnrollment     TemplateKey = "enrollment"
	TemplateReminder       TemplateKey = "reminder"
	TemplateResultApproved TemplateKey = "result_approved"
	TemplateResultFailed   TemplateKey = "result_failed"
)

// KnownTemplateKeys lists every template the renderer accepts.
var KnownTemplateKeys = []TemplateKey{
	TemplateSignup,
	TemplateEnrollment,
	TemplateReminder,
	TemplateResultApproved,
	TemplateResultFailed,
}

// NotificationTemplate holds the editable subject and body for one template.
type NotificationTemplate struct {
	ID        string      `db:"id" json:"id"`
	Key       TemplateKey `db:"key" json:"key"`
	Subject   string      `db:"subject" json:"subject"`
	Body      string      `db:"body" json:"body"`
	Enabled   bool        `db:"enabled" json:"enabled"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// NotificationStatus is the recorded outcome of one delivery attempt.
type NotificationStatus string

// Possible notification outcomes.
const (
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
	NotificationStatusSkipped NotificationStatus = "SKIPPED"
)

// NotificationLog records the outcome of a notification dispatch.
type NotificationLog struct {
	ID           string             `db:"id" json:"id"`
	TemplateKey  TemplateKey        `db:"template_key" json:"template_key"`
	Recipient    string             `db:"recipient" json:"recipient"`
	Subject      string             `db:"subject" json:"subject"`
	Status       NotificationStatus `db:"status" json:"status"`
	ErrorMessage string             `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
}

// NotificationLogFilter provides filters for listing notification logs.
type NotificationLogFilter struct {
	TemplateKey TemplateKey
	Status      NotificationStatus
	Recipient   string
	Page        int
	PageSize    int
}
