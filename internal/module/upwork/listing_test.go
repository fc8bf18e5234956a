package upwork

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

type stubPager struct {
	mu      sync.Mutex
	pages   map[string][]domain.JobListing
	errs    map[string]error
	visited []string
}

func (s *stubPager) ExtractList(_ context.Context, pageURL string) ([]domain.JobListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited = append(s.visited, pageURL)
	if err := s.errs[pageURL]; err != nil {
		return nil, err
	}
	return s.pages[pageURL], nil
}

func listingsFrom(prefix string, n int) []domain.JobListing {
	out := make([]domain.JobListing, n)
	for i := range out {
		id := fmt.Sprintf("%s%03d", prefix, i)
		out[i] = domain.JobListing{JobID: id, URL: "https://www.upwork.com/jobs/~" + id}
	}
	return out
}

func TestPagePlan(t *testing.T) {
	tests := []struct {
		limit, size     int
		pages, lastKeep int
	}{
		{120, 50, 3, 20},
		{25, 50, 1, 25},
		{100, 50, 2, 50},
		{10, 10, 1, 10},
		{45, 20, 3, 5},
	}
	for _, tt := range tests {
		pages, keep := pagePlan(tt.limit, tt.size)
		assert.Equal(t, tt.pages, pages, "pages for %d/%d", tt.limit, tt.size)
		assert.Equal(t, tt.lastKeep, keep, "last page for %d/%d", tt.limit, tt.size)
	}
}

func TestCollectPaginates(t *testing.T) {
	base := "https://www.upwork.com/nx/search/jobs/?q=go"
	pager := &stubPager{pages: map[string][]domain.JobListing{
		base:             listingsFrom("a", 50),
		base + "&page=2": listingsFrom("b", 50),
		base + "&page=3": listingsFrom("c", 50),
	}}
	c := NewListingCollector(pager, arbor.NewLogger())

	got := c.Collect(context.Background(), []SearchTarget{{Query: "go", URL: base}}, 120, 50)

	require.Len(t, got["go"], 120)
	assert.Equal(t, "a000", got["go"][0].JobID)
	assert.Equal(t, "c019", got["go"][119].JobID)
	assert.Equal(t, []string{base, base + "&page=2", base + "&page=3"}, pager.visited)
}

func TestCollectStopsOnEmptyPage(t *testing.T) {
	base := "https://www.upwork.com/nx/search/jobs/?q=rare"
	pager := &stubPager{pages: map[string][]domain.JobListing{
		base: listingsFrom("a", 7),
	}}
	c := NewListingCollector(pager, arbor.NewLogger())

	got := c.Collect(context.Background(), []SearchTarget{{Query: "rare", URL: base}}, 120, 50)

	assert.Len(t, got["rare"], 7)
	assert.Len(t, pager.visited, 2)
}

func TestCollectSkipsFailedPage(t *testing.T) {
	base := "https://www.upwork.com/nx/search/jobs/?q=go"
	pager := &stubPager{
		pages: map[string][]domain.JobListing{base + "&page=2": listingsFrom("b", 10)},
		errs:  map[string]error{base: errors.New("status 503")},
	}
	c := NewListingCollector(pager, arbor.NewLogger())

	got := c.Collect(context.Background(), []SearchTarget{{Query: "go", URL: base}}, 30, 20)

	require.Len(t, got["go"], 10)
	assert.Equal(t, "b000", got["go"][0].JobID)
}

func TestCollectDeduplicatesAcrossTargets(t *testing.T) {
	first := "https://www.upwork.com/nx/search/jobs/?q=go"
	second := "https://www.upwork.com/nx/search/jobs/?q=golang"
	pager := &stubPager{pages: map[string][]domain.JobListing{
		first:  listingsFrom("a", 5),
		second: append(listingsFrom("a", 3), listingsFrom("z", 2)...),
	}}
	c := NewListingCollector(pager, arbor.NewLogger())
	targets := []SearchTarget{{Query: "go", URL: first}, {Query: "golang", URL: second}}

	got := c.Collect(context.Background(), targets, 10, 10)

	assert.Len(t, got["go"], 5)
	require.Len(t, got["golang"], 2)
	assert.Equal(t, "z000", got["golang"][0].JobID)

	all := Flatten(targets, got)
	assert.Len(t, all, 7)
	assert.Equal(t, "a000", all[0].JobID)
	assert.Equal(t, "z001", all[6].JobID)
}

func TestCollectHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pager := &stubPager{}
	c := NewListingCollector(pager, arbor.NewLogger())

	got := c.Collect(ctx, []SearchTarget{{Query: "go", URL: "https://x.test/?q=go"}}, 10, 10)
	assert.Empty(t, got["go"])
	assert.Empty(t, pager.visited)
}
