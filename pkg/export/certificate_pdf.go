package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// CertificateData carries the values printed on a certificate.
type CertificateData struct {
	StudentName      string
	CourseTitle      string
	InstructorName   string
	DurationHours    int
	Grade            float64
	CompletionDate   time.Time
	ExpiresAt        *time.Time
	VerificationCode string
	VerifyURL        string
}

// TextSlot positions a single text element on the page (mm coordinates).
type TextSlot struct {
	X        float64
	Y        float64
	FontSize float64
	Bold     bool
}

// CertificateLayout configures where each element is drawn. Zero-value slots
// fall back to DefaultCertificateLayout positions.
type CertificateLayout struct {
	Title       TextSlot
	StudentName TextSlot
	CourseTitle TextSlot
	Details     TextSlot
	Code        TextSlot
	QRX         float64
	QRY         float64
	QRSize      float64
}

// DefaultCertificateLayout returns the standard A4-landscape arrangement.
func DefaultCertificateLayout() CertificateLayout {
	return CertificateLayout{
		Title:       TextSlot{X: 148.5, Y: 40, FontSize: 26, Bold: true},
		StudentName: TextSlot{X: 148.5, Y: 80, FontSize: 22, Bold: true},
		CourseTitle: TextSlot{X: 148.5, Y: 100, FontSize: 16},
		Details:     TextSlot{X: 148.5, Y: 115, FontSize: 11},
		Code:        TextSlot{X: 148.5, Y: 185, FontSize: 9},
		QRX:         255,
		QRY:         155,
		QRSize:      30,
	}
}

// CertificateRenderer draws completion certificates as A4-landscape PDFs with
// a QR code linking to the public verification page.
type CertificateRenderer struct {
	layout CertificateLayout
}

// NewCertificateRenderer constructs a renderer with the provided layout.
func NewCertificateRenderer(layout *CertificateLayout) *CertificateRenderer {
	if layout == nil {
		def := DefaultCertificateLayout()
		layout = &def
	}
	return &CertificateRenderer{layout: *layout}
}

// Render produces the certificate PDF bytes.
func (r *CertificateRenderer) Render(data CertificateData) ([]byte, error) {
	if data.StudentName == "" || data.CourseTitle == "" {
		return nil, fmt.Errorf("certificate requires student and course names")
	}
	if data.VerificationCode == "" {
		return nil, fmt.Errorf("certificate requires a verification code")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetLineWidth(0.8)
	pdf.Rect(8, 8, 281, 194, "D")

	r.text(pdf, r.layout.Title, "CERTIFICATE OF COMPLETION")

	pdf.SetFont("Arial", "", 12)
	pdf.SetXY(15, r.layout.StudentName.Y-14)
	pdf.CellFormat(267, 8, "This certifies that", "", 0, "C", false, 0, "")

	r.text(pdf, r.layout.StudentName, data.StudentName)

	pdf.SetFont("Arial", "", 12)
	pdf.SetXY(15, r.layout.CourseTitle.Y-8)
	pdf.CellFormat(267, 6, "has successfully completed the course", "", 0, "C", false, 0, "")

	r.text(pdf, r.layout.CourseTitle, data.CourseTitle)

	details := fmt.Sprintf("Completed on %s", data.CompletionDate.Format("02 Jan 2006"))
	if data.DurationHours > 0 {
		details = fmt.Sprintf("%s  |  Workload: %d hours", details, data.DurationHours)
	}
	if data.Grade > 0 {
		details = fmt.Sprintf("%s  |  Final grade: %.1f", details, data.Grade)
	}
	if data.InstructorName != "" {
		details = fmt.Sprintf("%s  |  Instructor: %s", details, data.InstructorName)
	}
	r.text(pdf, r.layout.Details, details)

	if data.ExpiresAt != nil {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetXY(15, r.layout.Details.Y+8)
		pdf.CellFormat(267, 5, fmt.Sprintf("Valid until %s", data.ExpiresAt.Format("02 Jan 2006")), "", 0, "C", false, 0, "")
	}

	if data.VerifyURL != "" {
		png, err := qrcode.Encode(data.VerifyURL, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encode verification qr: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("verify-qr", opts, bytes.NewReader(png))
		pdf.ImageOptions("verify-qr", r.layout.QRX, r.layout.QRY, r.layout.QRSize, r.layout.QRSize, false, opts, 0, "")
	}

	r.text(pdf, r.layout.Code, fmt.Sprintf("Verification code: %s", data.VerificationCode))

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *CertificateRenderer) text(pdf *gofpdf.Fpdf, slot TextSlot, value string) {
	style := ""
	if slot.Bold {
		style = "B"
	}
	size := slot.FontSize
	if size <= 0 {
		size = 12
	}
	pdf.SetFont("Arial", style, size)
	pdf.SetXY(15, slot.Y-size/4)
	pdf.CellFormat(267, size/2, value, "", 0, "C", false, 0, "")
}
