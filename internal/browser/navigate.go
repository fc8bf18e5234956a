package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/common/retry"
	"github.com/Pascal-automation/uwpork-scrapping/internal/config"
)

// ErrNavigation matches every NavigationError.
var ErrNavigation = errors.New("navigation failed")

// NavigationError is returned once every attempt and strategy failed.
type NavigationError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate to %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *NavigationError) Unwrap() []error { return []error{ErrNavigation, e.Err} }

// Navigator loads pages, cycling through readiness strategies and replacing crashed pages.
type Navigator struct {
	policy     retry.Policy
	strategies []WaitUntil
	timeout    time.Duration
	logger     arbor.ILogger
}

func NewNavigator(cfg config.BrowserConfig, logger arbor.ILogger) *Navigator {
	strategies := make([]WaitUntil, 0, len(cfg.WaitStrategies))
	for _, s := range cfg.WaitStrategies {
		strategies = append(strategies, ParseWaitUntil(s))
	}
	if len(strategies) == 0 {
		strategies = []WaitUntil{WaitDOMContentLoaded, WaitNetworkIdle}
	}
	attempts := cfg.NavAttempts
	if attempts <= 0 {
		attempts = 3
	}
	timeout := cfg.NavTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Navigator{
		policy:     retry.Constant(attempts, 0),
		strategies: strategies,
		timeout:    timeout,
		logger:     logger,
	}
}

// WithTimeout returns a copy of n using a different per-strategy timeout.
func (n *Navigator) WithTimeout(d time.Duration) *Navigator {
	c := *n
	c.timeout = d
	return &c
}

// Goto navigates page to url. The returned page is the handle to keep using;
// it differs from page when the original crashed and was replaced.
// On failure the returned page is still the latest live handle.
func (n *Navigator) Goto(ctx context.Context, bctx Context, page Page, url string) (Page, error) {
	current := page
	attempts := 0

	err := n.policy.Do(ctx, n.logger, "navigate", func(ctx context.Context, attempt int) error {
		attempts = attempt
		var lastErr error
		for _, until := range n.strategies {
			n.logger.Debug().Int("attempt", attempt).Str("url", url).Str("wait_until", string(until)).Msg("goto")

			err := current.Goto(ctx, url, until, n.timeout)
			if err == nil {
				n.logger.Debug().Int("attempt", attempt).Str("wait_until", string(until)).Msg("Navigation succeeded")
				return nil
			}
			lastErr = err

			if errors.Is(err, ErrPageClosed) {
				n.logger.Warn().Str("url", url).Msg("Page or browser crashed, opening a new page")
				replacement, perr := bctx.NewPage(ctx)
				if perr != nil {
					return retry.Permanent(fmt.Errorf("open replacement page: %w", perr))
				}
				current = replacement
				continue
			}
			n.logger.Debug().Int("attempt", attempt).Err(err).Msg("goto failed")
		}
		return lastErr
	})
	if err == nil {
		return current, nil
	}

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		err = exhausted.Err
	}
	n.logger.Error().Str("url", url).Int("attempts", attempts).Err(err).Msg("Failed to navigate")
	return current, &NavigationError{URL: url, Attempts: attempts, Err: err}
}
