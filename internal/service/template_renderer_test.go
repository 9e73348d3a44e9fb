package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateRendererSubstitutesAllTokens(t *testing.T) {
	r := NewTemplateRenderer()

	subject, body := r.Render(
		"Resultado: {{nome_curso}}",
		"Ola {{nome_aluno}}, sua nota foi {{nota}} ({{status}}). Turma em {{local}} no dia {{data}} as {{hora}}. Certificado: {{url_certificado}}",
		TemplateContext{
			StudentName:    "Maria Souza",
			CourseName:     "HUET",
			Location:       "Macae",
			Date:           "12/03/2026",
			Time:           "08:00",
			Grade:          "9.5",
			Status:         "Aprovado",
			CertificateURL: "https://seanutri.example/verificar/CERT-abc",
		},
	)

	assert.Equal(t, "Resultado: HUET", subject)
	assert.Equal(t, "Ola Maria Souza, sua nota foi 9.5 (Aprovado). Turma em Macae no dia 12/03/2026 as 08:00. Certificado: https://seanutri.example/verificar/CERT-abc", body)
}

func TestTemplateRendererRepeatedTokens(t *testing.T) {
	r := NewTemplateRenderer()

	_, body := r.Render("x", "{{nome_aluno}} e {{nome_aluno}}", TemplateContext{StudentName: "Joao"})
	assert.Equal(t, "Joao e Joao", body)
}

func TestTemplateRendererLeavesUnknownTokens(t *testing.T) {
	r := NewTemplateRenderer()

	_, body := r.Render("x", "Oi {{nome_aluno}}, token {{desconhecido}} fica", TemplateContext{StudentName: "Ana"})
	assert.Equal(t, "Oi Ana, token {{desconhecido}} fica", body)
}

func TestTemplateRendererEmptyContextClearsTokens(t *testing.T) {
	r := NewTemplateRenderer()

	_, body := r.Render("x", "Nota: {{nota}}", TemplateContext{})
	assert.Equal(t, "Nota: ", body)
}
