// Package browsertest provides scriptable in-memory browser fakes.
package browsertest

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Pascal-automation/uwpork-scrapping/internal/browser"
)

// Call records one method invocation on a FakePage.
type Call struct {
	Method string
	Args   []string
}

// FakeEngine hands out a single FakeContext.
type FakeEngine struct {
	Context       *FakeContext
	NewContextErr error

	mu     sync.Mutex
	closed bool
}

func (e *FakeEngine) NewContext(ctx context.Context) (browser.Context, error) {
	if e.NewContextErr != nil {
		return nil, e.NewContextErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Context == nil {
		e.Context = &FakeContext{}
	}
	return e.Context, nil
}

func (e *FakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *FakeEngine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// FakeContext creates pages through PageFactory, or blank pages when it is nil.
type FakeContext struct {
	PageFactory func(n int) *FakePage
	NewPageErr  error
	Jar         []*http.Cookie
	CookiesFunc func(ctx context.Context) ([]*http.Cookie, error)

	mu      sync.Mutex
	pages   []*FakePage
	cleared int
}

func (c *FakeContext) NewPage(ctx context.Context) (browser.Page, error) {
	if c.NewPageErr != nil {
		return nil, c.NewPageErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var p *FakePage
	if c.PageFactory != nil {
		p = c.PageFactory(len(c.pages))
	}
	if p == nil {
		p = &FakePage{}
	}
	c.pages = append(c.pages, p)
	return p, nil
}

// Pages returns every page opened so far, oldest first.
func (c *FakeContext) Pages() []*FakePage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*FakePage(nil), c.pages...)
}

func (c *FakeContext) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	if c.CookiesFunc != nil {
		return c.CookiesFunc(ctx)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*http.Cookie(nil), c.Jar...), nil
}

func (c *FakeContext) ClearCookies(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared++
	c.Jar = nil
	return nil
}

// Cleared reports how many times cookies were cleared.
func (c *FakeContext) Cleared() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleared
}

func (c *FakeContext) Close() error { return nil }

// FakePage answers with its hook functions when set, and with HTML otherwise.
type FakePage struct {
	HTML string

	GotoFunc      func(ctx context.Context, url string, until browser.WaitUntil) error
	ContentFunc   func(ctx context.Context) (string, error)
	EvaluateFunc  func(ctx context.Context, expression string) (any, error)
	WaitFunc      func(ctx context.Context, selector string) error
	ClickFunc     func(ctx context.Context, selector string) error
	FillFunc      func(ctx context.Context, selector, value string) error
	PressFunc     func(ctx context.Context, selector, key string) error
	InnerTextFunc func(ctx context.Context, selector string) (string, error)

	mu     sync.Mutex
	url    string
	calls  []Call
	closed bool
}

func (p *FakePage) record(method string, args ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Method: method, Args: args})
}

// Calls returns the recorded invocations.
func (p *FakePage) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// Count returns how many times method was invoked.
func (p *FakePage) Count(method string) int {
	n := 0
	for _, c := range p.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// URL is the last successfully visited address.
func (p *FakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *FakePage) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *FakePage) Goto(ctx context.Context, url string, until browser.WaitUntil, timeout time.Duration) error {
	p.record("Goto", url, string(until))
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.GotoFunc != nil {
		if err := p.GotoFunc(ctx, url, until); err != nil {
			return err
		}
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return nil
}

func (p *FakePage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	p.record("WaitForSelector", selector)
	if p.WaitFunc != nil {
		return p.WaitFunc(ctx, selector)
	}
	return nil
}

func (p *FakePage) Fill(ctx context.Context, selector, value string) error {
	p.record("Fill", selector, value)
	if p.FillFunc != nil {
		return p.FillFunc(ctx, selector, value)
	}
	return nil
}

func (p *FakePage) Press(ctx context.Context, selector, key string) error {
	p.record("Press", selector, key)
	if p.PressFunc != nil {
		return p.PressFunc(ctx, selector, key)
	}
	return nil
}

func (p *FakePage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	p.record("Click", selector)
	if p.ClickFunc != nil {
		return p.ClickFunc(ctx, selector)
	}
	return nil
}

func (p *FakePage) InnerText(ctx context.Context, selector string) (string, error) {
	p.record("InnerText", selector)
	if p.InnerTextFunc != nil {
		return p.InnerTextFunc(ctx, selector)
	}
	if selector == "body" {
		return p.HTML, nil
	}
	return "", nil
}

func (p *FakePage) Content(ctx context.Context) (string, error) {
	p.record("Content")
	if p.ContentFunc != nil {
		return p.ContentFunc(ctx)
	}
	return p.HTML, nil
}

func (p *FakePage) Evaluate(ctx context.Context, expression string) (any, error) {
	p.record("Evaluate", expression)
	if p.EvaluateFunc != nil {
		return p.EvaluateFunc(ctx, expression)
	}
	if strings.Contains(expression, "navigator.userAgent") {
		return "FakeBrowser/1.0", nil
	}
	return nil, nil
}

func (p *FakePage) Close() error {
	p.record("Close")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

var (
	_ browser.Engine  = (*FakeEngine)(nil)
	_ browser.Context = (*FakeContext)(nil)
	_ browser.Page    = (*FakePage)(nil)
)
