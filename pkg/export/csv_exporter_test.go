package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"student", "course", "grade"},
		Rows: [][]string{
			{"Maria Silva", "HUET", "95.0"},
			{"Joao Souza", "HUET"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "student,course,grade\nMaria Silva,HUET,95.0\nJoao Souza,HUET,\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"student", "course"},
		Rows:    [][]string{{"Maria Silva", "HUET"}},
	}, "Enrollments")
	require.NoError(t, err)
	require.Greater(t, len(out), 4)
	assert.Equal(t, "%PDF", string(out[:4]))
}
