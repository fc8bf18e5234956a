package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"job_id": {"type": "keyword"},
			"url": {"type": "keyword"},
			"title": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"run_id": {"type": "keyword"},
			"job": {"type": "object", "dynamic": true}
		}
	}
}`

type bulkAction struct {
	Index struct {
		Index string `json:"_index"`
		ID    string `json:"_id"`
	} `json:"index"`
}

type bulkItemResult struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index bulkItemResult `json:"index"`
	} `json:"items"`
}

// ElasticsearchIndexer indexes job rows to Elasticsearch
type ElasticsearchIndexer struct {
	client    *elasticsearch.Client
	indexName string
	logger    arbor.ILogger
}

// NewElasticsearchIndexer connects and checks the cluster answers. The index
// defaults to "upwork-jobs".
func NewElasticsearchIndexer(ctx context.Context, addresses []string, indexName string, logger arbor.ILogger) (*ElasticsearchIndexer, error) {
	if indexName == "" {
		indexName = "upwork-jobs"
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("create es client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es info: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("es error: %s", res.Status())
	}

	return &ElasticsearchIndexer{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}, nil
}

// EnsureIndex creates the index if it doesn't exist
func (i *ElasticsearchIndexer) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.indexName}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = i.client.Indices.Create(
		i.indexName,
		i.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		i.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index error: %s", res.Status())
	}
	return nil
}

// bulkBody renders the NDJSON body of a bulk request. Rows without an id are skipped.
func (i *ElasticsearchIndexer) bulkBody(rows []domain.Row, runID string) (*bytes.Buffer, int) {
	var buf bytes.Buffer
	n := 0
	for _, row := range rows {
		doc := newDocument(row, runID)
		if doc.JobID == "" {
			continue
		}
		docBytes, err := json.Marshal(doc)
		if err != nil {
			i.logger.Warn().Str("job_id", doc.JobID).Err(err).Msg("Skipping job")
			continue
		}

		var action bulkAction
		action.Index.Index = i.indexName
		action.Index.ID = doc.JobID
		metaBytes, _ := json.Marshal(action)
		buf.Write(metaBytes)
		buf.WriteByte('\n')
		buf.Write(docBytes)
		buf.WriteByte('\n')
		n++
	}
	return &buf, n
}

// BulkIndex indexes rows with the job id as document id
func (i *ElasticsearchIndexer) BulkIndex(ctx context.Context, rows []domain.Row, runID string) error {
	body, n := i.bulkBody(rows, runID)
	if n == 0 {
		return nil
	}

	res, err := i.client.Bulk(body, i.client.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk error: %s", res.Status())
	}

	var out bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}

	failed := 0
	for _, item := range out.Items {
		r := item.Index
		if !out.Errors || r.Status < http.StatusBadRequest {
			continue
		}
		failed++
		i.logger.Warn().
			Str("job_id", r.ID).
			Int("status", r.Status).
			Str("reason", r.Error.Type+": "+r.Error.Reason).
			Msg("Job not indexed")
	}

	i.logger.Info().Str("index", i.indexName).Int("jobs", n-failed).Int("failed", failed).Msg("Indexed jobs")
	return nil
}

// Close is a no-op; the client holds no long-lived resources.
func (i *ElasticsearchIndexer) Close() error { return nil }
