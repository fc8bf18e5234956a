package upwork

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/Pascal-automation/uwpork-scrapping/internal/common/extractor"
	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

const defaultDetailWorkers = 25

// DetailFetcher downloads job pages concurrently and extracts a record from each.
type DetailFetcher struct {
	client        *resty.Client
	engine        *extractor.Engine
	workers       int
	authenticated bool
	logger        arbor.ILogger
}

func NewDetailFetcher(client *resty.Client, engine *extractor.Engine, workers int, authenticated bool, logger arbor.ILogger) *DetailFetcher {
	if workers <= 0 {
		workers = defaultDetailWorkers
	}
	return &DetailFetcher{
		client:        client,
		engine:        engine,
		workers:       workers,
		authenticated: authenticated,
		logger:        logger,
	}
}

// FetchAll returns the records of every listing that could be fetched and
// parsed, in completion order. Failed listings are dropped.
func (f *DetailFetcher) FetchAll(ctx context.Context, listings []domain.JobListing) []*domain.JobRecord {
	var (
		mu      sync.Mutex
		records []*domain.JobRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for _, listing := range listings {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec, err := f.fetch(gctx, listing)
			if err != nil {
				f.logger.Debug().Str("url", listing.URL).Err(err).Msg("Skipping job detail")
				return nil
			}
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	f.logger.Info().Int("requested", len(listings)).Int("extracted", len(records)).Msg("Fetched job details")
	return records
}

func (f *DetailFetcher) fetch(ctx context.Context, listing domain.JobListing) (*domain.JobRecord, error) {
	resp, err := f.client.R().SetContext(ctx).Get(listing.URL)
	if err != nil {
		return nil, fmt.Errorf("get detail page: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get detail page: status %d", resp.StatusCode())
	}
	return f.engine.Extract(resp.String(), listing.JobID, listing.URL, f.authenticated)
}
