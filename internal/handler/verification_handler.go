package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seanutri/seanutri-api/internal/service"
	"github.com/seanutri/seanutri-api/pkg/response"
)

// VerificationHandler serves the public certificate endpoints. None of its
// routes require authentication; anyone holding a certificate link can
// check it.
type VerificationHandler struct {
	verification *service.VerificationService
	certificates *service.CertificateService
}

// NewVerificationHandler creates a new verification handler.
func NewVerificationHandler(verification *service.VerificationService, certificates *service.CertificateService) *VerificationHandler {
	return &VerificationHandler{verification: verification, certificates: certificates}
}

// Verify godoc
// @Summary Verify certificate
// @Description Check the authenticity of a certificate verification code
// @Tags Verification
// @Produce json
// @Param code path string true "Verification code"
// @Success 200 {object} response.Envelope
// @Router /verificar/{code} [get]
func (h *VerificationHandler) Verify(c *gin.Context) {
	code := c.Param("code")

	result, err := h.verification.Verify(c.Request.Context(), code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Generate godoc
// @Summary Generate certificate PDF
// @Description Render the certificate for a code and return a signed download token
// @Tags Verification
// @Produce json
// @Param code path string true "Verification code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/{code} [post]
func (h *VerificationHandler) Generate(c *gin.Context) {
	code := c.Param("code")

	file, err := h.certificates.Generate(c.Request.Context(), code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, file, nil)
}

// Download godoc
// @Summary Download certificate PDF
// @Description Stream a certificate PDF using a signed download token
// @Tags Verification
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200
// @Failure 401 {object} response.Envelope
// @Router /certificates/download [get]
func (h *VerificationHandler) Download(c *gin.Context) {
	token := c.Query("token")

	file, fileName, err := h.certificates.Open(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		// The response is already streaming; nothing sensible to send.
		_ = c.Error(err)
	}
}
