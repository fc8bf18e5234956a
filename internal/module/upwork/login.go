package upwork

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/browser"
	"github.com/Pascal-automation/uwpork-scrapping/internal/common/retry"
	"github.com/Pascal-automation/uwpork-scrapping/internal/config"
	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

// ErrLoginFailed is reported when every login round was rejected.
var ErrLoginFailed = errors.New("login failed")

var errLoginRejected = errors.New("login rejected by site")

// State is a step of the login machine.
type State string

const (
	StateStart            State = "start"
	StateChallengeCheck   State = "challenge_check"
	StateChallengeSolved  State = "challenge_solved"
	StateChallengeSkipped State = "challenge_skipped"
	StateLoginAttempt     State = "login_attempt"
	StateLoginSucceeded   State = "login_succeeded"
	StateLoginFailed      State = "login_failed"
	StateLastResortReset  State = "last_resort_reset"
	StateSuccess          State = "success"
	StateFailure          State = "failure"
)

const (
	usernameSelector = "#login_username"
	passwordSelector = "#login_password"
	failureWindow    = 100
)

var failurePhrases = []string{
	"Verification failed. Please try again.",
	"Please fix the errors below",
}

// LoginResult is the outcome of a login run. Page is the live handle to keep using.
type LoginResult struct {
	Page          browser.Page
	Authenticated bool
	Trace         []State
	// Err explains a Failure terminal state; the run continues unauthenticated
	Err error
}

// LoginMachine opens the search page, clears challenges and signs in.
type LoginMachine struct {
	nav      *browser.Navigator
	loginNav *browser.Navigator
	solver   browser.ChallengeSolver
	policy   retry.Policy
	cfg      config.LoginConfig
	loginURL string
	logger   arbor.ILogger
}

func NewLoginMachine(nav *browser.Navigator, solver browser.ChallengeSolver, cfg config.LoginConfig, loginURL string, logger arbor.ILogger) *LoginMachine {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 60 * time.Second
	}
	if cfg.SelectorTimeout <= 0 {
		cfg.SelectorTimeout = 10 * time.Second
	}
	return &LoginMachine{
		nav:      nav,
		loginNav: nav.WithTimeout(cfg.PageTimeout),
		solver:   solver,
		policy:   retry.Constant(cfg.MaxAttempts, cfg.RetryDelay),
		cfg:      cfg,
		loginURL: loginURL,
		logger:   logger,
	}
}

type loginRun struct {
	state     State
	page      browser.Page
	trace     []State
	resetUsed bool
	authed    bool
	lastErr   error
}

// Run drives the machine to a terminal state. An error is returned only when
// the search page cannot be reached on the first visit or ctx is done.
func (m *LoginMachine) Run(ctx context.Context, bctx browser.Context, page browser.Page, searchURL string, creds domain.Credentials) (*LoginResult, error) {
	r := &loginRun{state: StateStart, page: page}

	for {
		r.trace = append(r.trace, r.state)
		m.logger.Debug().Str("state", string(r.state)).Msg("login machine")

		switch r.state {
		case StateStart:
			p, err := m.nav.Goto(ctx, bctx, r.page, searchURL)
			r.page = p
			if err != nil {
				return nil, fmt.Errorf("open search page: %w", err)
			}
			r.state = StateChallengeCheck

		case StateChallengeCheck:
			solved, err := m.solver.Solve(ctx, bctx, r.page)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				m.logger.Warn().Err(err).Msg("Challenge not solved, continuing")
			}
			if solved {
				r.state = StateChallengeSolved
			} else {
				r.state = StateChallengeSkipped
			}

		case StateChallengeSolved, StateChallengeSkipped:
			if creds.Provided() {
				r.state = StateLoginAttempt
			} else {
				r.state = StateSuccess
			}

		case StateLoginAttempt:
			if err := m.login(ctx, bctx, r, creds); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				r.lastErr = err
				r.state = StateLoginFailed
			} else {
				r.state = StateLoginSucceeded
			}

		case StateLoginSucceeded:
			r.authed = true
			r.state = StateSuccess

		case StateLoginFailed:
			if r.resetUsed {
				r.state = StateFailure
			} else {
				r.state = StateLastResortReset
			}

		case StateLastResortReset:
			r.resetUsed = true
			m.logger.Warn().Msg("Login failed, clearing cookies and retrying from a fresh page")
			if err := bctx.ClearCookies(ctx); err != nil {
				m.logger.Warn().Err(err).Msg("Failed to clear cookies")
			}
			if fresh, err := bctx.NewPage(ctx); err != nil {
				m.logger.Warn().Err(err).Msg("Failed to open a fresh page, reusing the current one")
			} else {
				r.page = fresh
			}
			p, err := m.nav.Goto(ctx, bctx, r.page, searchURL)
			r.page = p
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				m.logger.Warn().Err(err).Msg("Failed to reopen search page after reset")
				r.lastErr = fmt.Errorf("reopen search page: %w", err)
				r.state = StateFailure
				continue
			}
			r.state = StateChallengeCheck

		case StateSuccess, StateFailure:
			res := &LoginResult{Page: r.page, Authenticated: r.authed, Trace: r.trace}
			if r.state == StateFailure {
				res.Err = fmt.Errorf("%w: %w", ErrLoginFailed, r.lastErr)
				m.logger.Error().Err(res.Err).Msg("Login failed after all attempts, continuing without login")
			} else if r.authed {
				m.logger.Info().Str("username", creds.Username).Msg("Login successful")
			}
			return res, nil
		}
	}
}

// login runs one round of attempts. When the site rejects the attempt halfway
// through the round, the page is swapped for a fresh one, keeping cookies.
func (m *LoginMachine) login(ctx context.Context, bctx browser.Context, r *loginRun, creds domain.Credentials) error {
	return m.policy.Do(ctx, m.logger, "login", func(ctx context.Context, attempt int) error {
		m.logger.Info().Int("attempt", attempt).Int("max_attempts", m.policy.MaxAttempts).Msg("Logging in")

		err := m.submit(ctx, bctx, r, creds)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}
		m.logger.Warn().Int("attempt", attempt).Err(err).Msg("Login attempt failed")

		if attempt == m.policy.MaxAttempts/2 && errors.Is(err, errLoginRejected) {
			fresh, perr := bctx.NewPage(ctx)
			if perr != nil {
				m.logger.Warn().Err(perr).Msg("Failed to open a fresh page")
			} else {
				r.page = fresh
			}
		}
		return err
	})
}

func (m *LoginMachine) submit(ctx context.Context, bctx browser.Context, r *loginRun, creds domain.Credentials) error {
	p, err := m.loginNav.Goto(ctx, bctx, r.page, m.loginURL)
	r.page = p
	if err != nil {
		return err
	}

	if err := m.fillAndSubmit(ctx, r.page, usernameSelector, creds.Username, m.cfg.UsernameDelay); err != nil {
		return fmt.Errorf("username step: %w", err)
	}
	if err := m.fillAndSubmit(ctx, r.page, passwordSelector, creds.Password, m.cfg.PasswordDelay); err != nil {
		return fmt.Errorf("password step: %w", err)
	}

	body, err := r.page.InnerText(ctx, "body")
	if err != nil {
		return fmt.Errorf("read result page: %w", err)
	}
	head := body
	if runes := []rune(body); len(runes) > failureWindow {
		head = string(runes[:failureWindow])
	}
	for _, phrase := range failurePhrases {
		if strings.Contains(head, phrase) {
			return fmt.Errorf("%w: %s", errLoginRejected, phrase)
		}
	}
	return nil
}

func (m *LoginMachine) fillAndSubmit(ctx context.Context, page browser.Page, selector, value string, settle time.Duration) error {
	if err := page.WaitForSelector(ctx, selector, m.cfg.SelectorTimeout); err != nil {
		return err
	}
	if err := page.Fill(ctx, selector, value); err != nil {
		return err
	}
	if err := page.Press(ctx, selector, "Enter"); err != nil {
		return err
	}
	return retry.Sleep(ctx, settle)
}
