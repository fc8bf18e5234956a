package indexer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

// Indexer defines the interface for job indexing backends
type Indexer interface {
	// BulkIndex stores rows, replacing earlier copies of the same job
	BulkIndex(ctx context.Context, rows []domain.Row, runID string) error
	Close() error
}

// document is the stored shape of a row
type document struct {
	JobID string     `json:"job_id"`
	URL   string     `json:"url,omitempty"`
	Title string     `json:"title,omitempty"`
	RunID string     `json:"run_id"`
	Job   domain.Row `json:"job"`
}

func newDocument(row domain.Row, runID string) document {
	url, _ := row["URL"].(string)
	title, _ := row["Title"].(string)
	return document{JobID: row.ID(), URL: url, Title: title, RunID: runID, Job: row}
}

func (d document) payload() ([]byte, error) {
	data, err := json.Marshal(d.Job)
	if err != nil {
		return nil, fmt.Errorf("marshal job %s: %w", d.JobID, err)
	}
	return data, nil
}
