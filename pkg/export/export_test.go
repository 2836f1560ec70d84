package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRender(t *testing.T) {
	e := NewCSVExporter()
	data := Dataset{
		Headers: []string{"Name", "Score"},
		Rows: [][]string{
			{"Anna Smirnova", "9"},
			{"Boris Orlov", "4"},
		},
	}

	out, err := e.Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Score", lines[0])
	assert.Equal(t, "Anna Smirnova,9", lines[1])
}

func TestCSVQuotesSpecialCharacters(t *testing.T) {
	e := NewCSVExporter()
	data := Dataset{
		Headers: []string{"Name"},
		Rows:    [][]string{{`Smith, "Junior"`}},
	}

	out, err := e.Render(data)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"Smith, ""Junior"""`)
}

func TestCSVPadsShortRows(t *testing.T) {
	e := NewCSVExporter()
	data := Dataset{
		Headers: []string{"A", "B", "C"},
		Rows:    [][]string{{"only"}},
	}

	out, err := e.Render(data)
	require.NoError(t, err)
	assert.Contains(t, string(out), "only,,")
}

func TestCSVRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRenderPortrait(t *testing.T) {
	e := NewPDFExporter()
	data := Dataset{
		Headers: []string{"Name", "Score"},
		Rows:    [][]string{{"Anna", "9"}},
	}

	out, err := e.Render(data, "Results")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestPDFRenderWideTableLandscape(t *testing.T) {
	e := NewPDFExporter()
	data := Dataset{
		Headers: []string{"A", "B", "C", "D", "E", "F", "G"},
		Rows:    [][]string{{"1", "2", "3", "4", "5", "6", "7"}},
	}

	out, err := e.Render(data, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
	assert.NotEmpty(t, out)
}

func TestPDFRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "title")
	assert.Error(t, err)
}
