package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pascal-automation/uwpork-scrapping/internal/config"
)

func TestNewConsoleOnly(t *testing.T) {
	logger := New(config.LogConfig{})
	require.NotNil(t, logger)
	logger.Info().Msg("console logger ready")
}

func TestNewCreatesLogDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger := New(config.LogConfig{Level: "debug", File: filepath.Join(dir, "crawler.log")})
	require.NotNil(t, logger)
	logger.Debug().Str("component", "test").Msg("file logger ready")

	assert.DirExists(t, dir)
}
