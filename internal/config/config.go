// Package config loads and validates the guard configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/eliteGoblin/clipguard/internal/domain"
)

// Config is the full configuration surface. The guard consumes it; it
// is only mutated by explicit user configuration actions.
type Config struct {
	SafeCopyMode          bool            `mapstructure:"safe_copy_mode"`
	AllowedApps           []string        `mapstructure:"allowed_apps"`
	BlockedApps           []string        `mapstructure:"blocked_apps"`
	IgnorePatterns        []string        `mapstructure:"ignore_patterns"`
	AutoClearHighRisk     bool            `mapstructure:"auto_clear_high_risk"`
	AutoClearDelaySeconds int             `mapstructure:"auto_clear_delay_seconds"`
	PollIntervalMs        int             `mapstructure:"poll_interval_ms"`
	PromptCooldownMs      int             `mapstructure:"prompt_cooldown_ms"`
	HistoryTTLHours       int             `mapstructure:"history_ttl_hours"`
	CustomPatterns        []CustomPattern `mapstructure:"custom_patterns"`
	DataDir               string          `mapstructure:"data_dir"`
	LogFile               string          `mapstructure:"log_file"`
}

// CustomPattern is one user-defined detection rule. The list keeps
// its file order; position encodes match priority.
type CustomPattern struct {
	Label string `mapstructure:"label"`
	Regex string `mapstructure:"regex"`
}

// Loader wraps the viper instance so the config file can be watched
// for live reload.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader over the given config path. An empty
// path falls back to ~/.clipguard/config.yaml; a missing file is not
// an error (defaults apply).
func NewLoader(path string) *Loader {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigDir())
	}

	v.SetEnvPrefix("CLIPGUARD")
	v.AutomaticEnv()

	return &Loader{v: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("safe_copy_mode", true)
	v.SetDefault("auto_clear_delay_seconds", 60)
	v.SetDefault("poll_interval_ms", 200)
	v.SetDefault("prompt_cooldown_ms", 1500)
	v.SetDefault("history_ttl_hours", 24)
	v.SetDefault("data_dir", filepath.Join(defaultConfigDir(), "data"))
	v.SetDefault("log_file", "/var/tmp/clipguard.log")
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".clipguard")
}

// Load reads, unmarshals, and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file means defaults; anything else (bad
		// YAML, unreadable file) is a real configuration error.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch re-reads the config file on change and invokes onChange with
// the freshly validated result. Invalid edits are reported and the
// previous configuration stays in effect.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		var cfg Config
		if err := l.v.Unmarshal(&cfg); err != nil {
			onError(fmt.Errorf("config reload failed: %w", err))
			return
		}
		if err := cfg.Validate(); err != nil {
			onError(fmt.Errorf("config reload rejected: %w", err))
			return
		}
		onChange(&cfg)
	})
	l.v.WatchConfig()
}

// Validate rejects malformed custom patterns and ignore globs at load
// time. A bad expression is a configuration error, never silently
// ignored.
func (c *Config) Validate() error {
	for _, p := range c.CustomPatterns {
		if _, err := regexp.Compile(p.Regex); err != nil {
			return fmt.Errorf("invalid custom pattern %q: %w", p.Label, err)
		}
	}
	for _, glob := range c.IgnorePatterns {
		if _, err := filepath.Match(glob, "probe"); err != nil {
			return fmt.Errorf("invalid ignore pattern %q: %w", glob, err)
		}
	}
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive, got %d", c.PollIntervalMs)
	}
	if c.AutoClearDelaySeconds <= 0 {
		return fmt.Errorf("auto_clear_delay_seconds must be positive, got %d", c.AutoClearDelaySeconds)
	}
	return nil
}

// AppPolicy converts the policy fields for the evaluator.
func (c *Config) AppPolicy() domain.AppPolicy {
	return domain.AppPolicy{
		AllowedApps:    c.AllowedApps,
		BlockedApps:    c.BlockedApps,
		IgnorePatterns: c.IgnorePatterns,
		SafeCopyMode:   c.SafeCopyMode,
	}
}

// PollInterval returns the clipboard poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// PromptCooldown returns the minimum gap between prompts.
func (c *Config) PromptCooldown() time.Duration {
	return time.Duration(c.PromptCooldownMs) * time.Millisecond
}

// AllowWindow returns the temporary-allow window duration.
func (c *Config) AllowWindow() time.Duration {
	return time.Duration(c.AutoClearDelaySeconds) * time.Second
}

// HistoryTTL returns how long history entries live.
func (c *Config) HistoryTTL() time.Duration {
	return time.Duration(c.HistoryTTLHours) * time.Hour
}
