package upwork

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

// ListPager fetches one page of search results.
type ListPager interface {
	ExtractList(ctx context.Context, pageURL string) ([]domain.JobListing, error)
}

// ListingCollector walks the result pages of each search target.
type ListingCollector struct {
	pager  ListPager
	logger arbor.ILogger
}

func NewListingCollector(pager ListPager, logger arbor.ILogger) *ListingCollector {
	return &ListingCollector{pager: pager, logger: logger}
}

// pagePlan returns how many pages hold limit results and how many entries
// to keep from the last one.
func pagePlan(limit, pageSize int) (pages, lastKeep int) {
	if pageSize <= 0 {
		pageSize = 50
	}
	pages = (limit + pageSize - 1) / pageSize
	lastKeep = limit % pageSize
	if lastKeep == 0 {
		lastKeep = pageSize
	}
	return pages, lastKeep
}

// Collect gathers up to limit listings per target, keyed by the target query.
// A job already found for an earlier target is not repeated.
func (c *ListingCollector) Collect(ctx context.Context, targets []SearchTarget, limit, pageSize int) map[string][]domain.JobListing {
	results := make(map[string][]domain.JobListing, len(targets))
	seen := make(map[string]bool)
	pages, lastKeep := pagePlan(limit, pageSize)

	for _, target := range targets {
		var found []domain.JobListing

	pageLoop:
		for page := 1; page <= pages; page++ {
			if ctx.Err() != nil {
				break
			}
			pageURL := PageURL(target.URL, page)

			listings, err := c.pager.ExtractList(ctx, pageURL)
			if err != nil {
				c.logger.Warn().Str("query", target.Query).Int("page", page).Err(err).Msg("Skipping results page")
				continue
			}
			c.logger.Debug().Str("query", target.Query).Int("page", page).Int("found", len(listings)).Msg("Results page parsed")
			if len(listings) == 0 {
				break
			}
			if page == pages && len(listings) > lastKeep {
				listings = listings[:lastKeep]
			}

			for _, l := range listings {
				if seen[l.JobID] {
					continue
				}
				seen[l.JobID] = true
				found = append(found, l)
				if len(found) >= limit {
					break pageLoop
				}
			}
		}

		c.logger.Info().Str("query", target.Query).Int("jobs", len(found)).Msg("Collected job listings")
		results[target.Query] = append(results[target.Query], found...)
	}
	return results
}

// Flatten returns the listings of every target in target order.
func Flatten(targets []SearchTarget, results map[string][]domain.JobListing) []domain.JobListing {
	var out []domain.JobListing
	done := make(map[string]bool)
	for _, t := range targets {
		if done[t.Query] {
			continue
		}
		done[t.Query] = true
		out = append(out, results[t.Query]...)
	}
	return out
}
