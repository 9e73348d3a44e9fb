package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seanutri/seanutri-api/internal/models"
	appErrors "github.com/seanutri/seanutri-api/pkg/errors"
	"github.com/seanutri/seanutri-api/pkg/export"
)

type exportEnrollmentLister interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
}

// ExportService produces downloadable reports.
type ExportService struct {
	enrollments exportEnrollmentLister
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(enrollments exportEnrollmentLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		enrollments: enrollments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// EnrollmentsCSV exports the enrollments matching the filter. Pagination in
// the filter is ignored; the whole result set goes into the file.
func (s *ExportService) EnrollmentsCSV(ctx context.Context, filter models.EnrollmentFilter) ([]byte, string, error) {
	dataset, err := s.enrollmentDataset(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	data, err := s.csv.Render(*dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	fileName := fmt.Sprintf("enrollments_%s.csv", time.Now().Format("20060102_150405"))
	return data, fileName, nil
}

// EnrollmentsPDF exports the same report as a tabular PDF.
func (s *ExportService) EnrollmentsPDF(ctx context.Context, filter models.EnrollmentFilter) ([]byte, string, error) {
	dataset, err := s.enrollmentDataset(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	data, err := s.pdf.Render(*dataset, "Enrollments")
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	fileName := fmt.Sprintf("enrollments_%s.pdf", time.Now().Format("20060102_150405"))
	return data, fileName, nil
}

func (s *ExportService) enrollmentDataset(ctx context.Context, filter models.EnrollmentFilter) (*export.Dataset, error) {
	filter.Page = 1
	filter.PageSize = 10000

	enrollments, _, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments for export")
	}

	dataset := export.Dataset{
		Headers: []string{"student", "email", "course", "status", "grade", "approved", "completion_date", "verification_code"},
		Rows:    make([][]string, 0, len(enrollments)),
	}
	for _, e := range enrollments {
		grade := ""
		if e.Grade != nil {
			grade = fmt.Sprintf("%.1f", *e.Grade)
		}
		approved := ""
		if e.Approved != nil {
			approved = fmt.Sprintf("%t", *e.Approved)
		}
		completion := ""
		if e.CompletionDate != nil {
			completion = e.CompletionDate.Format("2006-01-02")
		}
		code := ""
		if e.VerificationCode != nil {
			code = *e.VerificationCode
		}
		dataset.Rows = append(dataset.Rows, []string{
			e.UserName,
			e.UserEmail,
			e.CourseTitle,
			string(e.Status),
			grade,
			approved,
			completion,
			code,
		})
	}
	return &dataset, nil
}
