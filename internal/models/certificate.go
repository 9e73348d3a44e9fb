package models

import "time"

// Certificate is the resolved public view of an approved enrollment, as
// returned by the verification endpoint.
type Certificate struct {
	Enrollment Enrollment  `json:"enrollment"`
	User       User        `json:"user"`
	Course     Course      `json:"course"`
	Instructor *Instructor `json:"instructor,omitempty"`
	IssuedAt   time.Time   `json:"issued_at"`
	ExpiresAt  *time.Time  `json:"expires_at,omitempty"`
	Expired    bool        `json:"expired"`
}

// VerificationResult is the outcome of a public verification lookup. A
// result is either fully resolved and authentic or invalid, never partial.
type VerificationResult struct {
	Authentic   bool         `json:"authentic"`
	Certificate *Certificate `json:"certificate,omitempty"`
}
