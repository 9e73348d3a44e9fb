package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func certificateData() CertificateData {
	expires := time.Date(2027, 3, 10, 0, 0, 0, 0, time.UTC)
	return CertificateData{
		StudentName:      "Maria Silva",
		CourseTitle:      "HUET - Helicopter Underwater Escape Training",
		InstructorName:   "Carlos Mota",
		DurationHours:    8,
		Grade:            95,
		CompletionDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		ExpiresAt:        &expires,
		VerificationCode: "CERT-abc",
		VerifyURL:        "https://seanutri.example/verificar/CERT-abc",
	}
}

func TestCertificateRendererProducesPDF(t *testing.T) {
	renderer := NewCertificateRenderer(nil)

	out, err := renderer.Render(certificateData())
	require.NoError(t, err)
	require.Greater(t, len(out), 4)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestCertificateRendererWithoutOptionalFields(t *testing.T) {
	renderer := NewCertificateRenderer(nil)

	data := certificateData()
	data.InstructorName = ""
	data.ExpiresAt = nil
	data.VerifyURL = ""
	data.Grade = 0

	out, err := renderer.Render(data)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestCertificateRendererRequiredFields(t *testing.T) {
	renderer := NewCertificateRenderer(nil)

	data := certificateData()
	data.StudentName = ""
	_, err := renderer.Render(data)
	require.Error(t, err)

	data = certificateData()
	data.VerificationCode = ""
	_, err = renderer.Render(data)
	require.Error(t, err)
}
