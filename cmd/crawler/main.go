package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/common/indexer"
	"github.com/Pascal-automation/uwpork-scrapping/internal/common/logging"
	"github.com/Pascal-automation/uwpork-scrapping/internal/config"
	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
	"github.com/Pascal-automation/uwpork-scrapping/internal/module/upwork"
	"github.com/Pascal-automation/uwpork-scrapping/internal/output"
	"github.com/Pascal-automation/uwpork-scrapping/internal/queue"
)

// inputEnv holds the input document when no flag is given.
const inputEnv = "jsonInput"

var errNoInput = errors.New("no input: use --input, --input-file or the jsonInput environment variable")

type options struct {
	input     string
	inputFile string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "crawler [--input <json>] [--input-file <path>]",
		Short:         "Scrapes Upwork job postings matching a search and saves them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.input, "input", "", "Input document (JSON or JSON5).")
	cmd.Flags().StringVar(&opts.inputFile, "input-file", "", "Path to an input document.")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL).")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// readInput picks the input document: --input, then --input-file, then the environment.
func readInput(opts *options) ([]byte, error) {
	switch {
	case opts.input != "":
		return []byte(opts.input), nil
	case opts.inputFile != "":
		data, err := os.ReadFile(opts.inputFile)
		if err != nil {
			return nil, fmt.Errorf("read input file: %w", err)
		}
		return data, nil
	}
	if v := os.Getenv(inputEnv); v != "" {
		return []byte(v), nil
	}
	return nil, errNoInput
}

func run(ctx context.Context, opts *options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	logger := logging.New(cfg.Log)
	runID := uuid.NewString()
	logger = logger.WithCorrelationId(runID)

	raw, err := readInput(opts)
	if err != nil {
		return err
	}
	in, err := domain.ParseInput(raw)
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	rows, err := upwork.NewCrawler(cfg, logger).Run(ctx, in)
	if err != nil {
		logger.Error().Err(err).Msg("Scrape failed")
		return err
	}

	if in.General.ShouldSaveCSV() && cfg.SinkEnabled("csv") {
		if _, err := output.NewCSVWriter(cfg.Output.Dir, logger).Write(rows); err != nil {
			logger.Error().Err(err).Msg("Failed to save CSV")
		}
	}
	publish(ctx, cfg, rows, runID, logger)

	logger.Info().Str("run_id", runID).Int("jobs", len(rows)).Msg("Done")
	return nil
}

// publish hands rows to the optional sinks. Sink failures are logged only.
func publish(ctx context.Context, cfg *config.Config, rows []domain.Row, runID string, logger arbor.ILogger) {
	if len(rows) == 0 {
		return
	}

	if cfg.SinkEnabled("redis") {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		publisher := queue.NewPublisher(rdb, cfg.Redis.JobQueue, cfg.Worker.BatchSize, logger)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error().Err(err).Msg("Redis connection failed")
		} else if err := publisher.PublishBatch(ctx, rows, runID); err != nil {
			logger.Error().Err(err).Msg("Failed to publish jobs")
		}
		publisher.Close()
	}

	var indexers []indexer.Indexer
	if cfg.SinkEnabled("postgres") {
		pg, err := indexer.NewPostgresIndexer(ctx, cfg.Postgres.ConnectionString, cfg.Postgres.TableName, logger)
		if err != nil {
			logger.Error().Err(err).Msg("PostgreSQL connection failed")
		} else {
			indexers = append(indexers, pg)
		}
	}
	if cfg.SinkEnabled("elasticsearch") {
		es, err := indexer.NewElasticsearchIndexer(ctx, cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Index, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Elasticsearch connection failed")
		} else {
			if err := es.EnsureIndex(ctx); err != nil {
				logger.Warn().Err(err).Msg("Ensure index failed")
			}
			indexers = append(indexers, es)
		}
	}

	for _, idx := range indexers {
		if err := idx.BulkIndex(ctx, rows, runID); err != nil {
			logger.Error().Err(err).Msg("Failed to index jobs")
		}
		idx.Close()
	}
}
