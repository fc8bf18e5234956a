package browser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/config"
)

// PlaywrightEngine runs a browser through the Playwright driver.
type PlaywrightEngine struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	logger  arbor.ILogger
}

func NewPlaywright(cfg config.BrowserConfig, logger arbor.ILogger) (*PlaywrightEngine, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	if cfg.ExecPath != "" {
		opts.ExecutablePath = playwright.String(cfg.ExecPath)
	}

	browserType := pw.Chromium
	if strings.EqualFold(cfg.Browser, "firefox") {
		browserType = pw.Firefox
	}
	browser, err := browserType.Launch(opts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", cfg.Browser, err)
	}

	logger.Info().Str("browser", cfg.Browser).Bool("headless", cfg.Headless).Msg("Playwright browser started")
	return &PlaywrightEngine{pw: pw, browser: browser, logger: logger}, nil
}

func (e *PlaywrightEngine) NewContext(ctx context.Context) (Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bctx, err := e.browser.NewContext()
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}
	return &playwrightContext{bctx: bctx}, nil
}

func (e *PlaywrightEngine) Close() error {
	if err := e.browser.Close(); err != nil {
		e.logger.Warn().Err(err).Msg("Close browser")
	}
	return e.pw.Stop()
}

type playwrightContext struct {
	bctx playwright.BrowserContext
}

func (c *playwrightContext) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := c.bctx.NewPage()
	if err != nil {
		return nil, classify(fmt.Errorf("new page: %w", err))
	}
	return &playwrightPage{page: page}, nil
}

func (c *playwrightContext) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cookies, err := c.bctx.Cookies()
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
			HttpOnly: ck.HttpOnly,
		}
		if ck.Expires > 0 {
			hc.Expires = time.Unix(int64(ck.Expires), 0)
		}
		out = append(out, hc)
	}
	return out, nil
}

func (c *playwrightContext) ClearCookies(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classify(c.bctx.ClearCookies())
}

func (c *playwrightContext) Close() error {
	return c.bctx.Close()
}

type playwrightPage struct {
	page playwright.Page
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func waitState(until WaitUntil) *playwright.WaitUntilState {
	switch until {
	case WaitLoad:
		return playwright.WaitUntilStateLoad
	case WaitNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	default:
		return playwright.WaitUntilStateDomcontentloaded
	}
}

func (p *playwrightPage) Goto(ctx context.Context, url string, until WaitUntil, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitState(until),
		Timeout:   millis(timeout),
	})
	return classify(err)
}

func (p *playwrightPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classify(p.page.Locator(selector).WaitFor(playwright.LocatorWaitForOptions{
		Timeout: millis(timeout),
	}))
}

func (p *playwrightPage) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classify(p.page.Locator(selector).Fill(value))
}

func (p *playwrightPage) Press(ctx context.Context, selector, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classify(p.page.Locator(selector).Press(key))
}

func (p *playwrightPage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classify(p.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: millis(timeout),
	}))
}

func (p *playwrightPage) InnerText(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := p.page.Locator(selector).InnerText()
	return text, classify(err)
}

func (p *playwrightPage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := p.page.Content()
	return html, classify(err)
}

func (p *playwrightPage) Evaluate(ctx context.Context, expression string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := p.page.Evaluate(expression)
	return v, classify(err)
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}
