package indexer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

// PostgresIndexer stores job rows in PostgreSQL as JSONB documents
type PostgresIndexer struct {
	db        *sql.DB
	tableName string
	logger    arbor.ILogger
}

// NewPostgresIndexer creates a new PostgreSQL indexer
func NewPostgresIndexer(ctx context.Context, connStr string, tableName string, logger arbor.ILogger) (*PostgresIndexer, error) {
	if tableName == "" {
		tableName = "upwork_jobs"
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	indexer := &PostgresIndexer{
		db:        db,
		tableName: pq.QuoteIdentifier(tableName),
		logger:    logger,
	}

	if err := indexer.ensureTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure table: %w", err)
	}

	return indexer, nil
}

func (i *PostgresIndexer) ensureTable(ctx context.Context) error {
	_, err := i.db.ExecContext(ctx, createTableSQL(i.tableName))
	return err
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			job_id TEXT PRIMARY KEY,
			url TEXT,
			title TEXT,
			run_id TEXT NOT NULL,
			payload JSONB NOT NULL,
			crawled_at TIMESTAMP WITH TIME ZONE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, table)
}

func upsertSQL(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (job_id, url, title, run_id, payload, crawled_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (job_id) DO UPDATE SET
			url = EXCLUDED.url,
			title = EXCLUDED.title,
			run_id = EXCLUDED.run_id,
			payload = EXCLUDED.payload,
			crawled_at = EXCLUDED.crawled_at,
			updated_at = NOW()
	`, table)
}

// BulkIndex upserts rows in one transaction. Rows without an id or that fail
// to encode are skipped.
func (i *PostgresIndexer) BulkIndex(ctx context.Context, rows []domain.Row, runID string) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL(i.tableName))
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	crawledAt := time.Now().UTC()
	stored := 0
	for _, row := range rows {
		doc := newDocument(row, runID)
		if doc.JobID == "" {
			continue
		}
		payload, err := doc.payload()
		if err != nil {
			i.logger.Warn().Str("job_id", doc.JobID).Err(err).Msg("Skipping job")
			continue
		}
		if _, err := stmt.ExecContext(ctx, doc.JobID, doc.URL, doc.Title, doc.RunID, payload, crawledAt); err != nil {
			return fmt.Errorf("upsert job %s: %w", doc.JobID, err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	i.logger.Info().Str("table", i.tableName).Int("jobs", stored).Msg("Stored jobs in postgres")
	return nil
}

// Close closes the database connection
func (i *PostgresIndexer) Close() error {
	return i.db.Close()
}
