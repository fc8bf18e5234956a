package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

func TestCSVWriterWrite(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, arbor.NewLogger())
	w.now = func() time.Time { return time.Date(2025, 8, 2, 14, 5, 9, 0, time.UTC) }

	rows := []domain.Row{
		{"ID": "01a", "Title": "Build a chatbot", "Skills": []string{"Python", "OpenAI API"}, "Min Rate": 15.0},
		{"ID": "01b", "Title": "Voice, agent", "Connects": 16, "Payment Verified": true},
	}
	path, err := w.Write(rows)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "job_results_20250802_140509.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, []string{"Connects", "ID", "Min Rate", "Payment Verified", "Skills", "Title"}, records[0])
	assert.Equal(t, []string{"", "01a", "15", "", `["Python","OpenAI API"]`, "Build a chatbot"}, records[1])
	assert.Equal(t, []string{"16", "01b", "", "true", "", "Voice, agent"}, records[2])
}

func TestCSVWriterEmpty(t *testing.T) {
	w := NewCSVWriter(filepath.Join(t.TempDir(), "nested", "out"), arbor.NewLogger())
	path, err := w.Write(nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\n", string(data))
}

func TestCell(t *testing.T) {
	assert.Equal(t, "", Cell(nil))
	assert.Equal(t, "22.4", Cell(22.4))
	assert.Equal(t, "-14400000", Cell(int64(-14400000)))
	assert.Equal(t, `{"countries":[]}`, Cell(map[string]any{"countries": []any{}}))
}
