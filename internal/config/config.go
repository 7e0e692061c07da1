// Package config provides configuration loading for the service and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds the settings for a server or one-shot run. All fields are
// optional in the file; missing values fall back to env vars and defaults.
type Config struct {
	// Server
	Port              int `json:"port,omitempty"`
	MaxConcurrentRuns int `json:"max_concurrent_runs,omitempty"`

	// External services
	GeminiAPIKey  string `json:"gemini_api_key,omitempty"`
	JSearchAPIKey string `json:"jsearch_api_key,omitempty"`
	DatabaseURL   string `json:"database_url,omitempty"`

	// Matching behavior
	BatchSize        int      `json:"batch_size,omitempty"`
	MaxListings      int      `json:"max_listings,omitempty"`
	RetryAttempts    int      `json:"retry_attempts,omitempty"`
	RetryDelaySecs   int      `json:"retry_delay_seconds,omitempty"`
	CallTimeoutSecs  int      `json:"call_timeout_seconds,omitempty"`
	RunTimeoutSecs   int      `json:"run_timeout_seconds,omitempty"`
	SkillVocabulary  []string `json:"skill_vocabulary,omitempty"`
	RateWindowMins   int      `json:"rate_window_minutes,omitempty"`
	DisableRateLimit bool     `json:"disable_rate_limit,omitempty"`

	Verbose bool `json:"verbose,omitempty"`
}

// Defaults used when neither file, env, nor flags set a value.
const (
	DefaultPort              = 3001
	DefaultMaxConcurrentRuns = 4
	DefaultRateWindowMins    = 30
)

// Load reads a JSON config file. A missing path yields an empty Config so
// env vars and defaults can fill everything in.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// ApplyEnv fills still-empty fields from environment variables. File values
// win over env; flags are merged later and win over both.
func (c *Config) ApplyEnv() {
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.JSearchAPIKey == "" {
		c.JSearchAPIKey = os.Getenv("JSEARCH_API_KEY")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Port == 0 {
		c.Port = envInt("PORT")
	}
	if c.RateWindowMins == 0 {
		c.RateWindowMins = envInt("RATE_WINDOW_MINUTES")
	}
	if !c.DisableRateLimit && os.Getenv("DISABLE_RATE_LIMIT") == "true" {
		c.DisableRateLimit = true
	}
}

// Validate checks ranges. Required credentials are checked by the commands
// that need them, not here.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("config error: 'batch_size' must be non-negative")
	}
	if c.MaxListings < 0 {
		return fmt.Errorf("config error: 'max_listings' must be non-negative")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("config error: 'retry_attempts' must be non-negative")
	}
	if c.RateWindowMins < 0 {
		return fmt.Errorf("config error: 'rate_window_minutes' must be non-negative")
	}
	return nil
}

// PortOrDefault returns the configured port or the default.
func (c *Config) PortOrDefault() int {
	if c.Port > 0 {
		return c.Port
	}
	return DefaultPort
}

// RateWindow returns the cooldown between runs; zero means disabled.
func (c *Config) RateWindow() time.Duration {
	if c.DisableRateLimit {
		return 0
	}
	mins := c.RateWindowMins
	if mins == 0 {
		mins = DefaultRateWindowMins
	}
	return time.Duration(mins) * time.Minute
}

// RetryDelay returns the configured delay between ranking attempts, or
// zero to let the matching package pick its default.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySecs) * time.Second
}

// CallTimeout returns the per-call reasoning service timeout, or zero to
// let callers pick their default.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSecs) * time.Second
}

// RunTimeout returns the end-to-end deadline for one match run, or zero
// to let the server pick its default.
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutSecs) * time.Second
}

// ConcurrentRunCap returns how many match runs may execute at once.
func (c *Config) ConcurrentRunCap() int {
	if c.MaxConcurrentRuns > 0 {
		return c.MaxConcurrentRuns
	}
	return DefaultMaxConcurrentRuns
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
