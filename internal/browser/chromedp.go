package browser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/config"
)

// ChromedpEngine drives Chrome over the DevTools protocol.
type ChromedpEngine struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	idleSettle    time.Duration
	logger        arbor.ILogger
}

func NewChromedp(ctx context.Context, cfg config.BrowserConfig, logger arbor.ILogger) (*ChromedpEngine, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	// The browser outlives the caller's context; Close tears it down.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(s string, i ...interface{}) {
			logger.Debug().Msgf("chromedp: "+s, i...)
		}),
	)

	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	logger.Info().Bool("headless", cfg.Headless).Msg("Chrome started")
	return &ChromedpEngine{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		idleSettle:    cfg.IdleSettle,
		logger:        logger,
	}, nil
}

// NewContext returns a view over the browser's default context.
// Chrome started by the allocator already has a fresh profile.
func (e *ChromedpEngine) NewContext(ctx context.Context) (Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &chromedpContext{root: e.browserCtx, idleSettle: e.idleSettle}, nil
}

func (e *ChromedpEngine) Close() error {
	e.browserCancel()
	e.allocCancel()
	return nil
}

type chromedpContext struct {
	root       context.Context
	idleSettle time.Duration
}

func (c *chromedpContext) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The first Run must use the tab context itself so the tab is bound to it.
	tabCtx, cancel := chromedp.NewContext(c.root)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, classify(fmt.Errorf("new tab: %w", err))
	}
	return &chromedpPage{ctx: tabCtx, cancel: cancel, idleSettle: c.idleSettle}, nil
}

func (c *chromedpContext) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	var cookies []*network.Cookie
	err := runBound(ctx, c.root, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, classify(fmt.Errorf("read cookies: %w", err))
	}

	out := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		hc := &http.Cookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Domain:   ck.Domain,
			Path:     ck.Path,
			Secure:   ck.Secure,
			HttpOnly: ck.HTTPOnly,
		}
		if ck.Expires > 0 {
			hc.Expires = time.Unix(int64(ck.Expires), 0)
		}
		out = append(out, hc)
	}
	return out, nil
}

func (c *chromedpContext) ClearCookies(ctx context.Context) error {
	return classify(runBound(ctx, c.root, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.ClearBrowserCookies().Do(ctx)
	})))
}

func (c *chromedpContext) Close() error { return nil }

type chromedpPage struct {
	ctx        context.Context
	cancel     context.CancelFunc
	idleSettle time.Duration

	mu     sync.Mutex
	closed bool
}

// runBound runs actions on target while honouring the caller's ctx and an optional timeout.
func runBound(caller, target context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := caller.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(target)
	defer cancel()
	if timeout > 0 {
		var tcancel context.CancelFunc
		runCtx, tcancel = context.WithTimeout(runCtx, timeout)
		defer tcancel()
	}
	stop := context.AfterFunc(caller, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *chromedpPage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPageClosed
	}
	err := runBound(ctx, p.ctx, timeout, actions...)
	if err != nil && p.ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrPageClosed, err)
	}
	return classify(err)
}

func (p *chromedpPage) Goto(ctx context.Context, url string, until WaitUntil, timeout time.Duration) error {
	actions := []chromedp.Action{chromedp.Navigate(url)}
	switch until {
	case WaitDOMContentLoaded:
		actions = append(actions, chromedp.WaitReady("body", chromedp.ByQuery))
	case WaitNetworkIdle:
		actions = append(actions, chromedp.WaitReady("body", chromedp.ByQuery), chromedp.Sleep(p.idleSettle))
	}
	return p.run(ctx, timeout, actions...)
}

func (p *chromedpPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (p *chromedpPage) Fill(ctx context.Context, selector, value string) error {
	return p.run(ctx, 0,
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (p *chromedpPage) Press(ctx context.Context, selector, key string) error {
	switch strings.ToLower(key) {
	case "enter":
		key = kb.Enter
	case "tab":
		key = kb.Tab
	case "escape":
		key = kb.Escape
	}
	return p.run(ctx, 0, chromedp.SendKeys(selector, key, chromedp.ByQuery))
}

func (p *chromedpPage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (p *chromedpPage) InnerText(ctx context.Context, selector string) (string, error) {
	var text string
	err := p.run(ctx, 0, chromedp.Text(selector, &text, chromedp.ByQuery))
	return text, err
}

func (p *chromedpPage) Content(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *chromedpPage) Evaluate(ctx context.Context, expression string) (any, error) {
	var res any
	err := p.run(ctx, 0, chromedp.Evaluate(expression, &res))
	if err != nil && strings.Contains(err.Error(), "undefined value") {
		return nil, nil
	}
	return res, err
}

func (p *chromedpPage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		p.cancel()
	}
	return nil
}
