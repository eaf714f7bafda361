package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.True(t, cfg.SafeCopyMode)
	assert.Equal(t, 200*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 1500*time.Millisecond, cfg.PromptCooldown())
	assert.Equal(t, 60*time.Second, cfg.AllowWindow())
	assert.Equal(t, 24*time.Hour, cfg.HistoryTTL())
	assert.False(t, cfg.AutoClearHighRisk)
	assert.Empty(t, cfg.AllowedApps)
	assert.Empty(t, cfg.BlockedApps)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
safe_copy_mode: true
allowed_apps:
  - Visual Studio Code
  - password-manager
blocked_apps:
  - Slack
  - Teams
ignore_patterns:
  - "EXAMPLE*"
auto_clear_high_risk: true
auto_clear_delay_seconds: 30
poll_interval_ms: 500
custom_patterns:
  - label: internal-token
    regex: "itok_[a-f0-9]{32}"
  - label: legacy-token
    regex: "ltok_[a-f0-9]{16}"
`)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"Visual Studio Code", "password-manager"}, cfg.AllowedApps)
	assert.Equal(t, []string{"Slack", "Teams"}, cfg.BlockedApps)
	assert.True(t, cfg.AutoClearHighRisk)
	assert.Equal(t, 30*time.Second, cfg.AllowWindow())
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval())
	// File order survives: position in the list encodes priority.
	require.Len(t, cfg.CustomPatterns, 2)
	assert.Equal(t, CustomPattern{Label: "internal-token", Regex: "itok_[a-f0-9]{32}"}, cfg.CustomPatterns[0])
	assert.Equal(t, CustomPattern{Label: "legacy-token", Regex: "ltok_[a-f0-9]{16}"}, cfg.CustomPatterns[1])

	policy := cfg.AppPolicy()
	assert.True(t, policy.SafeCopyMode)
	assert.Equal(t, []string{"EXAMPLE*"}, policy.IgnorePatterns)
}

func TestLoadRejectsBadCustomPattern(t *testing.T) {
	path := writeConfig(t, `
custom_patterns:
  - label: broken
    regex: "[unclosed"
`)

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid custom pattern")
}

func TestLoadRejectsBadIgnoreGlob(t *testing.T) {
	path := writeConfig(t, `
ignore_patterns:
  - "[oops"
`)

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ignore pattern")
}

func TestLoadRejectsNonPositiveIntervals(t *testing.T) {
	path := writeConfig(t, "poll_interval_ms: 0\n")

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval_ms")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "safe_copy_mode: [unterminated\n")

	_, err := NewLoader(path).Load()
	assert.Error(t, err)
}
