package browser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/browser"
	"github.com/Pascal-automation/uwpork-scrapping/internal/browser/browsertest"
	"github.com/Pascal-automation/uwpork-scrapping/internal/config"
)

const challengeHTML = `<html><head><title>Just a moment...</title></head>
<body><div id="challenge-stage"><input type="checkbox"></div>
<script src="https://challenges.cloudflare.com/turnstile/v0/api.js"></script></body></html>`

func TestInterstitialSolver(t *testing.T) {
	ctx := context.Background()
	solver := browser.NewInterstitialSolver(config.ChallengeConfig{Attempts: 3}, arbor.NewLogger())

	t.Run("no challenge", func(t *testing.T) {
		page := &browsertest.FakePage{HTML: "<html><title>Log in</title></html>"}
		solved, err := solver.Solve(ctx, &browsertest.FakeContext{}, page)
		require.NoError(t, err)
		assert.False(t, solved)
		assert.Zero(t, page.Count("Click"))
	})

	t.Run("cleared after click", func(t *testing.T) {
		page := &browsertest.FakePage{HTML: challengeHTML}
		page.ClickFunc = func(context.Context, string) error {
			page.HTML = "<html><title>Log in</title></html>"
			return nil
		}
		solved, err := solver.Solve(ctx, &browsertest.FakeContext{}, page)
		require.NoError(t, err)
		assert.True(t, solved)
		assert.Equal(t, 1, page.Count("Click"))
	})

	t.Run("never clears", func(t *testing.T) {
		page := &browsertest.FakePage{HTML: challengeHTML}
		solved, err := solver.Solve(ctx, &browsertest.FakeContext{}, page)
		assert.False(t, solved)
		assert.ErrorIs(t, err, browser.ErrChallengeUnresolved)
		// one click per attempt, first selector succeeds
		assert.Equal(t, 3, page.Count("Click"))
	})
}
