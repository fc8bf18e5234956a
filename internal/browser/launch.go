package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/config"
)

// Launcher starts a browser engine. Tests substitute a fake.
type Launcher func(ctx context.Context) (Engine, error)

// NewLauncher returns a Launcher for the configured backend.
func NewLauncher(cfg config.BrowserConfig, logger arbor.ILogger) Launcher {
	return func(ctx context.Context) (Engine, error) {
		return Launch(ctx, cfg, logger)
	}
}

// Launch starts the browser named by cfg.Engine.
func Launch(ctx context.Context, cfg config.BrowserConfig, logger arbor.ILogger) (Engine, error) {
	switch strings.ToLower(cfg.Engine) {
	case "", "playwright":
		return NewPlaywright(cfg, logger)
	case "chromedp", "chrome":
		return NewChromedp(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown browser engine %q", cfg.Engine)
	}
}
