package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/browser"
	"github.com/Pascal-automation/uwpork-scrapping/internal/common/retry"
	"github.com/Pascal-automation/uwpork-scrapping/internal/config"
)

const userAgentExpr = "navigator.userAgent"

// FromBrowser copies cookies and the user agent out of the browser.
// It never fails: unreadable cookies yield an empty jar and an unreadable
// identity yields FallbackUserAgent.
func FromBrowser(ctx context.Context, bctx browser.Context, page browser.Page, cfg config.CrawlerConfig, logger arbor.ILogger) *Session {
	cookies, err := bctx.Cookies(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not read browser cookies, continuing without them")
		cookies = nil
	}

	ua := readUserAgent(ctx, page, cfg, logger)
	if cfg.UserAgent == "" {
		cfg.UserAgent = FallbackUserAgent
	}
	if ua == "" {
		ua = cfg.UserAgent
	}

	logger.Info().
		Int("cookies", len(cookies)).
		Str("user_agent", ua).
		Msg("Session transferred from browser")

	return New(cookies, ua, cfg, logger)
}

func readUserAgent(ctx context.Context, page browser.Page, cfg config.CrawlerConfig, logger arbor.ILogger) string {
	attempts := cfg.IdentityAttempts
	if attempts <= 0 {
		attempts = 3
	}
	policy := retry.Constant(attempts, cfg.IdentityRetryDelay).WithRetryable(func(err error) bool {
		return errors.Is(err, browser.ErrContextDestroyed)
	})

	var ua string
	err := policy.Do(ctx, logger, "read user agent", func(ctx context.Context, attempt int) error {
		v, err := page.Evaluate(ctx, userAgentExpr)
		if err != nil {
			return err
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return fmt.Errorf("unexpected user agent value %v", v)
		}
		ua = s
		return nil
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Using fallback user agent")
		return ""
	}
	return ua
}
