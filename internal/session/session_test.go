package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/browser"
	"github.com/Pascal-automation/uwpork-scrapping/internal/browser/browsertest"
	"github.com/Pascal-automation/uwpork-scrapping/internal/config"
)

func testConfig() config.CrawlerConfig {
	return config.CrawlerConfig{
		RequestTimeout:   5 * time.Second,
		IdentityAttempts: 3,
	}
}

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-UA", r.UserAgent())
		if c, err := r.Cookie("session_id"); err == nil {
			w.Header().Set("X-Seen-Cookie", c.Value)
		}
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFromBrowser(t *testing.T) {
	ctx := context.Background()
	logger := arbor.NewLogger()

	t.Run("copies cookies and identity", func(t *testing.T) {
		bctx := &browsertest.FakeContext{Jar: []*http.Cookie{
			{Name: "session_id", Value: "abc", Domain: ".upwork.com", Path: "/"},
		}}
		s := FromBrowser(ctx, bctx, &browsertest.FakePage{}, testConfig(), logger)
		assert.Equal(t, "FakeBrowser/1.0", s.UserAgent)
		require.Len(t, s.Cookies, 1)
		assert.Equal(t, "abc", s.Cookies[0].Value)
	})

	t.Run("retries destroyed context", func(t *testing.T) {
		calls := 0
		page := &browsertest.FakePage{
			EvaluateFunc: func(context.Context, string) (any, error) {
				calls++
				if calls < 3 {
					return nil, browser.ErrContextDestroyed
				}
				return "Mozilla/5.0 Firefox/140.0", nil
			},
		}
		s := FromBrowser(ctx, &browsertest.FakeContext{}, page, testConfig(), logger)
		assert.Equal(t, "Mozilla/5.0 Firefox/140.0", s.UserAgent)
		assert.Equal(t, 3, calls)
	})

	t.Run("other errors fall back immediately", func(t *testing.T) {
		page := &browsertest.FakePage{
			EvaluateFunc: func(context.Context, string) (any, error) {
				return nil, errors.New("protocol error")
			},
		}
		s := FromBrowser(ctx, &browsertest.FakeContext{}, page, testConfig(), logger)
		assert.Equal(t, FallbackUserAgent, s.UserAgent)
		assert.Equal(t, 1, page.Count("Evaluate"))
	})

	t.Run("destroyed context exhausts to fallback", func(t *testing.T) {
		page := &browsertest.FakePage{
			EvaluateFunc: func(context.Context, string) (any, error) {
				return nil, browser.ErrContextDestroyed
			},
		}
		s := FromBrowser(ctx, &browsertest.FakeContext{}, page, testConfig(), logger)
		assert.Equal(t, FallbackUserAgent, s.UserAgent)
		assert.Equal(t, 3, page.Count("Evaluate"))
	})

	t.Run("unreadable cookies", func(t *testing.T) {
		bctx := &browsertest.FakeContext{
			CookiesFunc: func(context.Context) ([]*http.Cookie, error) {
				return nil, errors.New("target closed")
			},
		}
		s := FromBrowser(ctx, bctx, &browsertest.FakePage{}, testConfig(), logger)
		assert.Empty(t, s.Cookies)
		assert.NotNil(t, s.Jar())
	})
}

func TestSessionHTTP(t *testing.T) {
	srv := echoServer(t)
	s := New([]*http.Cookie{
		{Name: "session_id", Value: "xyz", Domain: "127.0.0.1", Path: "/"},
	}, "TestAgent/2.0", testConfig(), arbor.NewLogger())

	resp, err := s.HTTP().R().SetContext(context.Background()).Get(srv.URL + "/jobs/~01")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "TestAgent/2.0", resp.Header().Get("X-Seen-UA"))
	assert.Equal(t, "xyz", resp.Header().Get("X-Seen-Cookie"))
}

func TestSessionConfigureCollector(t *testing.T) {
	srv := echoServer(t)
	s := New([]*http.Cookie{
		{Name: "session_id", Value: "xyz", Domain: "127.0.0.1", Path: "/"},
	}, "TestAgent/2.0", testConfig(), arbor.NewLogger())

	c := colly.NewCollector()
	s.Configure(c)

	var seenUA, seenCookie string
	c.OnResponse(func(r *colly.Response) {
		seenUA = r.Headers.Get("X-Seen-UA")
		seenCookie = r.Headers.Get("X-Seen-Cookie")
	})
	require.NoError(t, c.Visit(srv.URL+"/search"))
	assert.Equal(t, "TestAgent/2.0", seenUA)
	assert.Equal(t, "xyz", seenCookie)
}

func TestNewDefaults(t *testing.T) {
	s := New(nil, "", config.CrawlerConfig{}, arbor.NewLogger())
	assert.Equal(t, FallbackUserAgent, s.UserAgent)
	assert.Equal(t, 30*time.Second, s.cfg.RequestTimeout)
}

func TestSessionSharesTransport(t *testing.T) {
	s := New(nil, "TestAgent/2.0", testConfig(), arbor.NewLogger())
	require.NotNil(t, s.Transport())

	a, b := s.HTTP(), s.HTTP()
	assert.Same(t, s.Transport(), a.GetClient().Transport)
	assert.Same(t, s.Transport(), b.GetClient().Transport)

	srv := echoServer(t)
	for range 2 {
		c := colly.NewCollector()
		s.Configure(c)
		require.NoError(t, c.Visit(srv.URL+"/search"))
	}
	assert.Same(t, s.Transport(), a.GetClient().Transport)
}
