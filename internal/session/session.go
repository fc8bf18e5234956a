// Package session turns an authenticated browser context into an HTTP session
// that can be shared by concurrent fetchers.
package session

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/gocolly/colly/v2"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/Pascal-automation/uwpork-scrapping/internal/config"
)

// FallbackUserAgent is used when the browser identity cannot be read.
const FallbackUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36"

// Session holds the cookies and identity of a logged-in browser.
// It is read-only once built and safe for concurrent use.
type Session struct {
	Cookies   []*http.Cookie
	UserAgent string

	cfg     config.CrawlerConfig
	jar     http.CookieJar
	rt      http.RoundTripper
	limiter *rate.Limiter
	logger  arbor.ILogger
}

// New builds a session from cookies already read from a browser.
func New(cookies []*http.Cookie, userAgent string, cfg config.CrawlerConfig, logger arbor.ILogger) *Session {
	if userAgent == "" {
		userAgent = FallbackUserAgent
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	rps := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		rps = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	s := &Session{
		Cookies:   cookies,
		UserAgent: userAgent,
		cfg:       cfg,
		limiter:   rate.NewLimiter(rps, burst),
		logger:    logger,
	}
	s.jar = newJar(cookies)
	s.rt = s.newTransport()
	return s
}

// newJar seeds a cookie jar, grouping cookies by the domain they belong to.
func newJar(cookies []*http.Cookie) http.CookieJar {
	jar, _ := cookiejar.New(nil)
	byHost := make(map[string][]*http.Cookie)
	for _, c := range cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		if host == "" {
			continue
		}
		byHost[host] = append(byHost[host], c)
	}
	for host, cs := range byHost {
		for _, scheme := range []string{"https", "http"} {
			jar.SetCookies(&url.URL{Scheme: scheme, Host: host, Path: "/"}, cs)
		}
	}
	return jar
}

// Jar returns the shared cookie jar.
func (s *Session) Jar() http.CookieJar { return s.jar }

// Transport returns the round tripper shared by every client of the session.
func (s *Session) Transport() http.RoundTripper { return s.rt }

func (s *Session) newTransport() http.RoundTripper {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if s.cfg.ProxyURL != "" {
		if proxy, err := url.Parse(s.cfg.ProxyURL); err == nil {
			base.Proxy = http.ProxyURL(proxy)
		} else {
			s.logger.Warn().Str("proxy", s.cfg.ProxyURL).Err(err).Msg("Ignoring invalid proxy url")
		}
	}
	return cloudflarebp.AddCloudFlareByPass(base)
}

// HTTP returns a resty client carrying the session cookies and identity.
func (s *Session) HTTP() *resty.Client {
	client := resty.New()
	client.SetTimeout(s.cfg.RequestTimeout)
	client.SetCookieJar(s.jar)
	client.SetHeader("User-Agent", s.UserAgent)
	client.SetTransport(s.rt)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return s.limiter.Wait(req.Context())
	})

	return client
}

// Configure applies the session to a colly collector.
func (s *Session) Configure(c *colly.Collector) {
	c.UserAgent = s.UserAgent
	c.SetRequestTimeout(s.cfg.RequestTimeout)
	c.WithTransport(s.rt)
	c.SetCookieJar(s.jar)
	c.OnRequest(func(r *colly.Request) {
		if err := s.limiter.Wait(context.Background()); err != nil {
			r.Abort()
		}
	})
}
