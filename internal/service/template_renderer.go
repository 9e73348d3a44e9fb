package service

import "strings"

// TemplateContext carries the values substituted into notification templates.
type TemplateContext struct {
	StudentName    string
	CourseName     string
	Location       string
	Date           string
	Time           string
	Grade          string
	Status         string
	CertificateURL string
}

// The fixed placeholder vocabulary. Tokens keep the legacy Portuguese names
// because stored templates reference them.
const (
	tokenStudentName    = "{{nome_aluno}}"
	tokenCourseName     = "{{nome_curso}}"
	tokenLocation       = "{{local}}"
	tokenDate           = "{{data}}"
	tokenTime           = "{{hora}}"
	tokenGrade          = "{{nota}}"
	tokenStatus         = "{{status}}"
	tokenCertificateURL = "{{url_certificado}}"
)

// TemplateRenderer substitutes the fixed token table into template text.
// Every occurrence of a known token is replaced; unknown {{...}} tokens are
// left verbatim.
type TemplateRenderer struct{}

// NewTemplateRenderer constructs a renderer.
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{}
}

// Render substitutes the context values into subject and body.
func (r *TemplateRenderer) Render(subject, body string, ctx TemplateContext) (string, string) {
	replacer := strings.NewReplacer(
		tokenStudentName, ctx.StudentName,
		tokenCourseName, ctx.CourseName,
		tokenLocation, ctx.Location,
		tokenDate, ctx.Date,
		tokenTime, ctx.Time,
		tokenGrade, ctx.Grade,
		tokenStatus, ctx.Status,
		tokenCertificateURL, ctx.CertificateURL,
	)
	return replacer.Replace(subject), replacer.Replace(body)
}
