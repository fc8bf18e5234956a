package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/common/cleaner"
	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

// ErrExtractionMiss is returned when the required strategy finds nothing on the page.
var ErrExtractionMiss = errors.New("no embedded job data")

// Strategy extracts part of a job record from a detail page.
// Attributes a strategy never looks at stay Absent so later strategies can fill them.
type Strategy interface {
	Name() string
	Extract(p *Page) (*domain.JobRecord, error)
}

// Page is a fetched job detail page.
type Page struct {
	HTML          string
	JobID         string
	URL           string
	Authenticated bool

	doc    *goquery.Document
	docErr error
}

func NewPage(html, jobID, url string, authenticated bool) *Page {
	return &Page{HTML: html, JobID: jobID, URL: url, Authenticated: authenticated}
}

// Document parses the page once and caches the result.
func (p *Page) Document() (*goquery.Document, error) {
	if p.doc == nil && p.docErr == nil {
		p.doc, p.docErr = goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
	}
	return p.doc, p.docErr
}

// Engine runs an ordered list of strategies and merges their records.
// The first strategy is required: a miss there means no record.
type Engine struct {
	required   Strategy
	strategies []Strategy
	logger     arbor.ILogger
}

func NewEngine(logger arbor.ILogger, required Strategy, optional ...Strategy) *Engine {
	return &Engine{required: required, strategies: optional, logger: logger}
}

// NewJobEngine returns the engine used for job detail pages:
// embedded application state, then page markup, then client reviews.
func NewJobEngine(logger arbor.ILogger) *Engine {
	c := cleaner.New()
	return NewEngine(logger,
		NewStructuredStrategy(c, logger),
		NewHTMLStrategy(c),
		NewReviewStrategy(),
	)
}

// Extract builds the record for one job page.
func (e *Engine) Extract(html, jobID, url string, authenticated bool) (*domain.JobRecord, error) {
	page := NewPage(html, jobID, url, authenticated)

	rec, err := e.required.Extract(page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.required.Name(), err)
	}

	for _, s := range e.strategies {
		part, err := s.Extract(page)
		if err != nil {
			e.logger.Debug().Str("strategy", s.Name()).Str("job_id", jobID).Err(err).Msg("Strategy failed, skipping")
			continue
		}
		domain.Merge(rec, part)
	}

	zeroUnusedBudget(rec)

	if jobID == "" {
		jobID = "0"
	}
	rec.JobID = domain.Some(jobID)
	rec.URL = domain.Some(url)
	return rec, nil
}

// zeroUnusedBudget keeps only the budget fields that apply to the job type.
func zeroUnusedBudget(rec *domain.JobRecord) {
	switch t, _ := rec.Type.Get(); t {
	case TypeHourly:
		rec.FixedBudgetAmount = domain.Some(0.0)
	case TypeFixed:
		rec.HourlyMin = domain.Some(0.0)
		rec.HourlyMax = domain.Some(0.0)
	}
}
