package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Primary.Env)
	assert.True(t, cfg.Sandbox.Enabled)
	assert.Equal(t, "sandbox", cfg.Sandbox.Name)
	assert.Equal(t, 200*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.False(t, cfg.Rest.Enabled)
	assert.Equal(t, 30*time.Second, cfg.ISO.SendTimeout)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paykit.yaml")
	content := `
primary:
  env: staging
rest:
  enabled: true
  base_url: http://gateway.local
  timeout: 3s
retry:
  max_retries: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PAYKIT_REST__BASE_URL", "https://api.example.com")
	t.Setenv("PAYKIT_LOGGER__FORMAT", "json")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Primary.Env)
	assert.True(t, cfg.Rest.Enabled)
	assert.Equal(t, "https://api.example.com", cfg.Rest.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Rest.Timeout)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{
			Primary: Primary{Env: "test"},
			Sandbox: SandboxConfig{Enabled: true, Name: "sandbox"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "rest without url",
			mutate:  func(c *Config) { c.Rest.Enabled = true },
			wantErr: "rest.base_url",
		},
		{
			name:    "iso without addr",
			mutate:  func(c *Config) { c.ISO.Enabled = true },
			wantErr: "iso.addr",
		},
		{
			name:    "no gateway",
			mutate:  func(c *Config) { c.Sandbox.Enabled = false },
			wantErr: "at least one gateway",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logger.Level = "verbose" },
			wantErr: "Level",
		},
		{
			name:    "missing env",
			mutate:  func(c *Config) { c.Primary.Env = "" },
			wantErr: "Env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoggerConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggerConfig{Level: "warn", Format: "json"}.newLogger(&buf)

	logger.Info("dropped")
	logger.Warn("kept", "gateway", "sandbox")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"msg":"kept"`)
	assert.Contains(t, out, `"gateway":"sandbox"`)
}
