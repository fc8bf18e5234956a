// Package browser drives a headless browser behind a small engine-neutral API.
// Two backends are provided: playwright-go (default) and chromedp.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WaitUntil is a page readiness strategy used when navigating.
type WaitUntil string

const (
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitLoad             WaitUntil = "load"
	WaitNetworkIdle      WaitUntil = "networkidle"
)

var (
	// ErrPageClosed is returned when the page handle died (crash or closed target).
	ErrPageClosed = errors.New("page closed")
	// ErrContextDestroyed is returned when a script ran while the page navigated away.
	ErrContextDestroyed = errors.New("execution context destroyed")
)

// Engine is a running browser.
type Engine interface {
	NewContext(ctx context.Context) (Context, error)
	Close() error
}

// Context is an isolated browser session holding cookies.
type Context interface {
	NewPage(ctx context.Context) (Page, error)
	Cookies(ctx context.Context) ([]*http.Cookie, error)
	ClearCookies(ctx context.Context) error
	Close() error
}

// Page is one tab.
type Page interface {
	Goto(ctx context.Context, url string, until WaitUntil, timeout time.Duration) error
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	Fill(ctx context.Context, selector, value string) error
	Press(ctx context.Context, selector, key string) error
	Click(ctx context.Context, selector string, timeout time.Duration) error
	InnerText(ctx context.Context, selector string) (string, error)
	Content(ctx context.Context) (string, error)
	// Evaluate runs a JavaScript expression and returns its value
	Evaluate(ctx context.Context, expression string) (any, error)
	Close() error
}

// ParseWaitUntil maps a configured strategy name, defaulting to domcontentloaded.
func ParseWaitUntil(s string) WaitUntil {
	switch WaitUntil(strings.ToLower(strings.TrimSpace(s))) {
	case WaitLoad:
		return WaitLoad
	case WaitNetworkIdle:
		return WaitNetworkIdle
	default:
		return WaitDOMContentLoaded
	}
}

var (
	closedMarkers = []string{
		"target closed",
		"has been closed",
		"no target with given id",
		"target crashed",
		"page crashed",
	}
	destroyedMarkers = []string{
		"execution context was destroyed",
		"cannot find context with specified id",
	}
)

// classify wraps engine errors whose text identifies a known condition.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrPageClosed) || errors.Is(err, ErrContextDestroyed) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, m := range closedMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %v", ErrPageClosed, err)
		}
	}
	for _, m := range destroyedMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %v", ErrContextDestroyed, err)
		}
	}
	return err
}
