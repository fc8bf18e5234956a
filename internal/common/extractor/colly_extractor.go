package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

var jobTokenPattern = regexp.MustCompile(`~([0-9a-zA-Z]+)`)

// ListSelectors defines CSS selectors for search result pages
type ListSelectors struct {
	// One result tile
	Entry string
	// Preferred title link inside a tile
	PrimaryLink string
}

// DefaultListSelectors matches the job search results markup.
var DefaultListSelectors = ListSelectors{
	Entry:       "article",
	PrimaryLink: `a[data-test="job-tile-title-link UpLink"]`,
}

// ListExtractor collects job links from search result pages using Colly
type ListExtractor struct {
	collector    *colly.Collector
	configure    []func(*colly.Collector)
	selectors    ListSelectors
	jobURLPrefix string
}

// NewListExtractor creates a list extractor. configure is applied to the
// underlying collector, typically to attach an authenticated session.
func NewListExtractor(selectors ListSelectors, jobURLPrefix string, configure ...func(*colly.Collector)) *ListExtractor {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
	)
	for _, fn := range configure {
		fn(c)
	}
	if !strings.HasSuffix(jobURLPrefix, "/") {
		jobURLPrefix += "/"
	}
	return &ListExtractor{
		collector:    c,
		configure:    configure,
		selectors:    selectors,
		jobURLPrefix: jobURLPrefix,
	}
}

// ExtractList fetches one results page and returns the jobs it links to, in page order.
func (e *ListExtractor) ExtractList(ctx context.Context, pageURL string) ([]domain.JobListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var jobs []domain.JobListing
	var extractErr error

	// Clone drops callbacks, so the session hooks are applied again.
	collector := e.collector.Clone()
	for _, fn := range e.configure {
		fn(collector)
	}
	collector.Context = ctx

	collector.OnHTML(e.selectors.Entry, func(el *colly.HTMLElement) {
		href := el.ChildAttr(e.selectors.PrimaryLink, "href")
		if href == "" {
			el.ForEachWithBreak("a[href]", func(_ int, a *colly.HTMLElement) bool {
				link := a.Attr("href")
				if strings.Contains(link, "/jobs/") && strings.Contains(link, "~") {
					href = link
					return false
				}
				return true
			})
		}
		if listing, ok := e.listing(href); ok {
			jobs = append(jobs, listing)
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		extractErr = fmt.Errorf("colly error: %w (status: %d)", err, r.StatusCode)
	})

	if err := collector.Visit(pageURL); err != nil {
		if extractErr != nil {
			return nil, extractErr
		}
		return nil, fmt.Errorf("visit list url: %w", err)
	}

	if extractErr != nil {
		return nil, extractErr
	}

	return jobs, nil
}

// listing canonicalizes a job link; links without a job token are discarded.
func (e *ListExtractor) listing(href string) (domain.JobListing, bool) {
	m := jobTokenPattern.FindStringSubmatch(href)
	if m == nil {
		return domain.JobListing{}, false
	}
	return domain.JobListing{
		JobID: m[1],
		URL:   e.jobURLPrefix + "~" + m[1],
	}, true
}

// JobIDFromURL returns the job token in url without its "~" marker, or "0".
func JobIDFromURL(url string) string {
	if m := jobTokenPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return "0"
}
