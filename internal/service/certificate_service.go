package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/seanutri/seanutri-api/pkg/errors"
	"github.com/seanutri/seanutri-api/pkg/export"
	"github.com/seanutri/seanutri-api/pkg/storage"
)

// CertificateFile points at a rendered certificate on disk together with
// its short-lived download token.
type CertificateFile struct {
	Path      string    `json:"-"`
	FileName  string    `json:"file_name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CertificateService renders certificate PDFs for approved enrollments and
// hands out signed download tokens for them.
type CertificateService struct {
	verification *VerificationService
	renderer     *export.CertificateRenderer
	store        *storage.LocalStorage
	signer       *storage.SignedURLSigner
	metrics      *MetricsService
	baseURL      string
	logger       *zap.Logger
}

// NewCertificateService constructs CertificateService.
func NewCertificateService(verification *VerificationService, renderer *export.CertificateRenderer, store *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, baseURL string, logger *zap.Logger) *CertificateService {
	if renderer == nil {
		renderer = export.NewCertificateRenderer(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		verification: verification,
		renderer:     renderer,
		store:        store,
		signer:       signer,
		metrics:      metrics,
		baseURL:      baseURL,
		logger:       logger,
	}
}

// VerifyURL builds the public verification link for a code.
func (s *CertificateService) VerifyURL(code string) string {
	return fmt.Sprintf("%s/verificar/%s", s.baseURL, code)
}

// Generate renders the certificate PDF for a verification code, stores it,
// and returns a signed download token. The PDF is regenerated on demand so
// template or layout changes apply retroactively.
func (s *CertificateService) Generate(ctx context.Context, code string) (*CertificateFile, error) {
	certificate, err := s.verification.Certificate(ctx, code)
	if err != nil {
		return nil, err
	}

	data := export.CertificateData{
		StudentName:      certificate.User.FullName,
		CourseTitle:      certificate.Course.Title,
		DurationHours:    certificate.Course.DurationHours,
		CompletionDate:   certificate.IssuedAt,
		ExpiresAt:        certificate.ExpiresAt,
		VerificationCode: code,
		VerifyURL:        s.VerifyURL(code),
	}
	if certificate.Instructor != nil {
		data.InstructorName = certificate.Instructor.Name
	}
	if certificate.Enrollment.Grade != nil {
		data.Grade = *certificate.Enrollment.Grade
	}

	pdf, err := s.renderer.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}

	fileName := code + ".pdf"
	path, err := s.store.Save(fileName, pdf)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store certificate")
	}

	token, expiresAt, err := s.signer.Generate(code, fileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign certificate url")
	}
	if s.metrics != nil {
		s.metrics.RecordCertificateRendered()
	}
	return &CertificateFile{Path: path, FileName: fileName, Token: token, ExpiresAt: expiresAt}, nil
}

// Open resolves a signed download token back to the stored PDF. Expired or
// tampered tokens are rejected.
func (s *CertificateService) Open(ctx context.Context, token string) (*os.File, string, error) {
	code, fileName, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	file, err := s.store.Open(fileName)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open certificate")
		}
		// Regenerate when the stored copy was cleaned up.
		if _, err := s.Generate(ctx, code); err != nil {
			return nil, "", err
		}
		file, err = s.store.Open(fileName)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open certificate")
		}
	}
	return file, fileName, nil
}

// Cleanup deletes stored certificates older than ttl. Certificates are
// regenerated on demand, so this only reclaims disk space.
func (s *CertificateService) Cleanup(ttl time.Duration) int {
	removed, err := s.store.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("certificate cleanup failed", zap.Error(err))
	}
	if len(removed) > 0 {
		s.logger.Info("removed stale certificates", zap.Int("count", len(removed)))
	}
	return len(removed)
}
