// Package output writes consolidated job rows to local files.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

// CSVWriter writes each run to a new timestamped file under Dir.
type CSVWriter struct {
	Dir    string
	now    func() time.Time
	logger arbor.ILogger
}

func NewCSVWriter(dir string, logger arbor.ILogger) *CSVWriter {
	if dir == "" {
		dir = "data/jobs/csv"
	}
	return &CSVWriter{Dir: dir, now: time.Now, logger: logger}
}

// Path returns the file name used for a run started at t.
func (w *CSVWriter) Path(t time.Time) string {
	return filepath.Join(w.Dir, "job_results_"+t.Format("20060102_150405")+".csv")
}

// Write stores rows and returns the file path. The header is the sorted
// union of all row keys; a row lacking a column gets an empty cell.
func (w *CSVWriter) Write(rows []domain.Row) (string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := w.Path(w.now())

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	header := Header(rows)
	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		record := make([]string, len(header))
		for i, col := range header {
			v, ok := row[col]
			if !ok {
				continue
			}
			record[i] = Cell(v)
		}
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("write row %s: %w", row.ID(), err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	w.logger.Info().Str("path", path).Int("rows", len(rows)).Msg("Saved results to CSV")
	return path, nil
}

// Header returns the sorted union of the keys of rows.
func Header(rows []domain.Row) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// Cell formats a value for a CSV cell. Lists and objects are JSON-encoded.
func Cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}
