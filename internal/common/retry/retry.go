package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ternarybob/arbor"
)

// ErrExhausted matches every error returned after the last attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy defines how an operation is retried.
type Policy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// Jitter adds ±25% to every backoff
	Jitter bool
	// Retryable decides which errors are worth another attempt; nil retries everything
	Retryable func(error) bool
}

// Constant returns a policy with a fixed delay between attempts.
func Constant(attempts int, delay time.Duration) Policy {
	return Policy{
		MaxAttempts:       attempts,
		InitialBackoff:    delay,
		MaxBackoff:        delay,
		BackoffMultiplier: 1,
	}
}

// Exponential returns a jittered exponential policy.
func Exponential(attempts int, initial, max time.Duration) Policy {
	return Policy{
		MaxAttempts:       attempts,
		InitialBackoff:    initial,
		MaxBackoff:        max,
		BackoffMultiplier: 2,
		Jitter:            true,
	}
}

// WithRetryable returns a copy of p that only retries errors accepted by fn.
func (p Policy) WithRetryable(fn func(error) bool) Policy {
	p.Retryable = fn
	return p
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: giving up after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() []error { return []error{ErrExhausted, e.Err} }

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not retryable regardless of the policy.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Backoff returns the delay after the given failed attempt (1-based).
func (p Policy) Backoff(attempt int) time.Duration {
	if p.InitialBackoff <= 0 {
		return 0
	}
	mult := p.BackoffMultiplier
	if mult <= 0 {
		mult = 1
	}
	backoff := float64(p.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= mult
	}
	if p.MaxBackoff > 0 && backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}
	if p.Jitter {
		backoff += backoff * 0.25 * (rand.Float64()*2 - 1)
	}
	return time.Duration(backoff)
}

func (p Policy) retryable(err error) bool {
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the attempts run out.
// attempt is 1-based.
func (p Policy) Do(ctx context.Context, logger arbor.ILogger, op string, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		if !p.retryable(lastErr) {
			logger.Debug().
				Str("op", op).
				Int("attempt", attempt).
				Err(lastErr).
				Msg("Non-retryable error, failing immediately")
			var perm *permanentError
			if errors.As(lastErr, &perm) {
				return perm.err
			}
			return lastErr
		}

		if attempt < attempts {
			backoff := p.Backoff(attempt)
			logger.Debug().
				Str("op", op).
				Int("attempt", attempt).
				Err(lastErr).
				Dur("backoff", backoff).
				Msg("Retrying after backoff")
			if err := Sleep(ctx, backoff); err != nil {
				return err
			}
		}
	}

	logger.Warn().
		Str("op", op).
		Int("max_attempts", attempts).
		Err(lastErr).
		Msg("All retry attempts exhausted")

	return &ExhaustedError{Op: op, Attempts: attempts, Err: lastErr}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
