// Package upwork crawls job postings from the Upwork job search.
//
// A run opens the search page in a headless browser to get past challenges
// and optionally sign in, then hands the browser cookies and identity to a
// plain HTTP session that walks the result pages and fetches job details.
package upwork

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/browser"
	"github.com/Pascal-automation/uwpork-scrapping/internal/common/extractor"
	"github.com/Pascal-automation/uwpork-scrapping/internal/config"
	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
	"github.com/Pascal-automation/uwpork-scrapping/internal/session"
)

var (
	ErrBrowserStart = errors.New("browser start failed")
	ErrNoListings   = errors.New("no job listings found")
)

// Crawler runs the whole acquisition pipeline for one input.
type Crawler struct {
	cfg    *config.Config
	launch browser.Launcher
	solver browser.ChallengeSolver
	engine *extractor.Engine
	logger arbor.ILogger
}

// Option customizes a Crawler.
type Option func(*Crawler)

// WithLauncher replaces the browser launcher.
func WithLauncher(l browser.Launcher) Option {
	return func(c *Crawler) { c.launch = l }
}

// WithChallengeSolver replaces the default interstitial solver.
func WithChallengeSolver(s browser.ChallengeSolver) Option {
	return func(c *Crawler) { c.solver = s }
}

func NewCrawler(cfg *config.Config, logger arbor.ILogger, opts ...Option) *Crawler {
	c := &Crawler{
		cfg:    cfg,
		launch: browser.NewLauncher(cfg.Browser, logger),
		solver: browser.NewInterstitialSolver(cfg.Challenge, logger),
		engine: extractor.NewJobEngine(logger),
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run searches, collects and extracts jobs, returning at most the requested
// number of complete rows.
func (c *Crawler) Run(ctx context.Context, in domain.Input) ([]domain.Row, error) {
	start := time.Now()
	c.logger.Info().Msg("Starting Upwork job scraper")

	creds := c.resolveCredentials(in.Credentials)

	q, limit := Normalize(in.Search, creds.Provided(), c.cfg.Crawler.Buffer, c.logger)
	searchURL := BuildSearchURL(c.cfg.Site.SearchURL, q)
	c.logger.Debug().Str("url", searchURL).Int("limit", limit).Int("per_page", q.PageSize).Msg("Built search url")

	sess, err := c.openSession(ctx, searchURL, creds)
	if err != nil {
		return nil, err
	}

	target := SearchTarget{Query: queryLabel(in.Search), URL: searchURL}
	lister := extractor.NewListExtractor(extractor.DefaultListSelectors, c.cfg.Site.JobURLPrefix, sess.Configure)
	results := NewListingCollector(lister, c.logger).Collect(ctx, []SearchTarget{target}, limit, q.PageSize)
	listings := Flatten([]SearchTarget{target}, results)
	if len(listings) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoListings, target.Query)
	}

	// Connects are read whenever credentials were supplied, even if sign-in failed.
	fetcher := NewDetailFetcher(sess.HTTP(), c.engine, c.cfg.Worker.Concurrency, creds.Provided(), c.logger)
	records := fetcher.FetchAll(ctx, listings)

	rows := Consolidate(records, in.Search.EffectiveLimit())
	c.logger.Debug().Int("records", len(records)).Int("rows", len(rows)).Msg("Consolidated records")
	c.logger.Info().
		Int("jobs", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("Scraping complete")
	return rows, nil
}

// openSession runs the browser phase and returns the HTTP session built from it.
// The browser is closed before returning.
func (c *Crawler) openSession(ctx context.Context, searchURL string, creds domain.Credentials) (*session.Session, error) {
	engine, err := c.launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBrowserStart, err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to close browser")
		}
	}()

	bctx, err := engine.NewContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: new context: %w", ErrBrowserStart, err)
	}
	defer bctx.Close()

	page, err := bctx.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: new page: %w", ErrBrowserStart, err)
	}

	nav := browser.NewNavigator(c.cfg.Browser, c.logger)
	machine := NewLoginMachine(nav, c.solver, c.cfg.Login, c.cfg.Site.LoginURL, c.logger)
	res, err := machine.Run(ctx, bctx, page, searchURL, creds)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Bool("authenticated", res.Authenticated).Int("states", len(res.Trace)).Msg("Login machine finished")

	return session.FromBrowser(ctx, bctx, res.Page, c.cfg.Crawler, c.logger), nil
}

func (c *Crawler) resolveCredentials(creds domain.Credentials) domain.Credentials {
	switch {
	case creds.Username != "" && creds.Password == "":
		c.logger.Warn().Msg("Username provided but password is missing. Running without login")
		return domain.Credentials{}
	case creds.Password != "" && creds.Username == "":
		c.logger.Warn().Msg("Password provided but username is missing. Running without login")
		return domain.Credentials{}
	case !creds.Provided():
		c.logger.Info().Msg("Running without login (no credentials provided)")
		return domain.Credentials{}
	}

	c.logger.Info().Str("username", creds.Username).Str("password", maskPassword(creds.Password)).Msg("Login enabled")
	if !strings.Contains(creds.Username, "@") || !strings.Contains(creds.Username, ".") {
		c.logger.Warn().Msg("Username doesn't appear to be a valid email address")
	}
	return creds
}

func maskPassword(p string) string {
	if len(p) <= 4 {
		return strings.Repeat("*", len(p))
	}
	return p[:2] + strings.Repeat("*", len(p)-4) + p[len(p)-2:]
}

func queryLabel(f domain.SearchFilter) string {
	switch {
	case f.Query != "":
		return f.Query
	case f.SearchAny != "":
		return f.SearchAny
	default:
		return "search"
	}
}
