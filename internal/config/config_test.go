package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidJSON(t *testing.T) {
	content := `{
		"port": 8080,
		"jsearch_api_key": "key-123",
		"batch_size": 5,
		"max_listings": 20,
		"rate_window_minutes": 10,
		"skill_vocabulary": ["Go", "SQL"],
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "key-123", cfg.JSearchAPIKey)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, 20, cfg.MaxListings)
	assert.Equal(t, []string{"Go", "SQL"}, cfg.SkillVocabulary)
	assert.True(t, cfg.Verbose)
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644)
	require.NoError(t, err)

	cfg, err := Load(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_EmptyPathYieldsEmptyConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Zero(t, cfg.Port)
}

func TestApplyEnv_FileValuesWin(t *testing.T) {
	t.Setenv("JSEARCH_API_KEY", "env-key")
	t.Setenv("PORT", "9000")
	t.Setenv("DISABLE_RATE_LIMIT", "true")

	cfg := &Config{JSearchAPIKey: "file-key"}
	cfg.ApplyEnv()

	assert.Equal(t, "file-key", cfg.JSearchAPIKey)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.DisableRateLimit)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{Port: 8080, BatchSize: 10, MaxListings: 30}},
		{name: "zero values valid", cfg: Config{}},
		{name: "port out of range", cfg: Config{Port: 70000}, wantErr: "port"},
		{name: "negative batch size", cfg: Config{BatchSize: -1}, wantErr: "batch_size"},
		{name: "negative window", cfg: Config{RateWindowMins: -5}, wantErr: "rate_window_minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRateWindow(t *testing.T) {
	assert.Equal(t, 30*time.Minute, (&Config{}).RateWindow())
	assert.Equal(t, 10*time.Minute, (&Config{RateWindowMins: 10}).RateWindow())
	assert.Zero(t, (&Config{DisableRateLimit: true, RateWindowMins: 10}).RateWindow())
}

func TestDerivedDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, DefaultPort, cfg.PortOrDefault())
	assert.Equal(t, DefaultMaxConcurrentRuns, cfg.ConcurrentRunCap())
	assert.Zero(t, cfg.RetryDelay())
	assert.Zero(t, cfg.CallTimeout())

	cfg = &Config{Port: 8088, MaxConcurrentRuns: 2, RetryDelaySecs: 3, CallTimeoutSecs: 45}
	assert.Equal(t, 8088, cfg.PortOrDefault())
	assert.Equal(t, 2, cfg.ConcurrentRunCap())
	assert.Equal(t, 3*time.Second, cfg.RetryDelay())
	assert.Equal(t, 45*time.Second, cfg.CallTimeout())
}
