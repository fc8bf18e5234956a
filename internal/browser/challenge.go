package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/common/retry"
	"github.com/Pascal-automation/uwpork-scrapping/internal/config"
)

// ErrChallengeUnresolved is returned when a challenge was detected but did not clear.
var ErrChallengeUnresolved = errors.New("challenge unresolved")

var errStillChallenged = errors.New("challenge still present")

// ChallengeSolver clears an interstitial verification screen on the current page.
// solved is false with a nil error when no challenge was present.
type ChallengeSolver interface {
	Solve(ctx context.Context, bctx Context, page Page) (solved bool, err error)
}

// InterstitialSolver handles checkbox-style interstitials by clicking the widget
// and waiting for the page to move on.
type InterstitialSolver struct {
	policy       retry.Policy
	delay        time.Duration
	clickTimeout time.Duration
	markers      []string
	checkboxes   []string
	logger       arbor.ILogger
}

func NewInterstitialSolver(cfg config.ChallengeConfig, logger arbor.ILogger) *InterstitialSolver {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 5
	}
	return &InterstitialSolver{
		policy:       retry.Constant(attempts, 0),
		delay:        cfg.Delay,
		clickTimeout: 2 * time.Second,
		markers: []string{
			"<title>just a moment...</title>",
			"challenges.cloudflare.com",
			"cf-chl-",
			"cf-turnstile",
			"verify you are human",
		},
		checkboxes: []string{
			"#challenge-stage input[type=checkbox]",
			".cf-turnstile",
			"#turnstile-wrapper",
			"input[type=checkbox]",
		},
		logger: logger,
	}
}

func (s *InterstitialSolver) challenged(content string) bool {
	content = strings.ToLower(content)
	for _, m := range s.markers {
		if strings.Contains(content, m) {
			return true
		}
	}
	return false
}

func (s *InterstitialSolver) Solve(ctx context.Context, bctx Context, page Page) (bool, error) {
	content, err := page.Content(ctx)
	if err != nil {
		return false, fmt.Errorf("read page: %w", err)
	}
	if !s.challenged(content) {
		return false, nil
	}
	s.logger.Info().Msg("Challenge detected, trying to clear it")

	err = s.policy.Do(ctx, s.logger, "challenge", func(ctx context.Context, attempt int) error {
		for _, sel := range s.checkboxes {
			if err := page.Click(ctx, sel, s.clickTimeout); err == nil {
				s.logger.Debug().Int("attempt", attempt).Str("selector", sel).Msg("Clicked challenge widget")
				break
			}
		}
		if err := retry.Sleep(ctx, s.delay); err != nil {
			return retry.Permanent(err)
		}
		content, err := page.Content(ctx)
		if err != nil {
			return err
		}
		if s.challenged(content) {
			return errStillChallenged
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrChallengeUnresolved, err)
	}
	return true, nil
}
