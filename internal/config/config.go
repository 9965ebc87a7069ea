package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const envPrefix = "PAYKIT_"

type Config struct {
	Primary Primary       `koanf:"primary"`
	Logger  LoggerConfig  `koanf:"logger"`
	Retry   RetryConfig   `koanf:"retry"`
	Sandbox SandboxConfig `koanf:"sandbox"`
	Rest    RestConfig    `koanf:"rest"`
	ISO     ISOConfig     `koanf:"iso"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type LoggerConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=text json"`
}

type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxDelay   time.Duration `koanf:"max_delay"`
	MaxRetries int           `koanf:"max_retries" validate:"gte=0,lte=10"`
}

type SandboxConfig struct {
	Enabled bool          `koanf:"enabled"`
	Name    string        `koanf:"name"`
	Latency time.Duration `koanf:"latency"`
}

type RestConfig struct {
	Enabled bool          `koanf:"enabled"`
	Name    string        `koanf:"name"`
	BaseURL string        `koanf:"base_url" validate:"omitempty,url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

type ISOConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Name           string        `koanf:"name"`
	Addr           string        `koanf:"addr"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	SendTimeout    time.Duration `koanf:"send_timeout"`
	TerminalID     string        `koanf:"terminal_id" validate:"omitempty,max=8"`
	MerchantID     string        `koanf:"merchant_id" validate:"omitempty,max=15"`
}

var defaults = map[string]any{
	"primary.env":         "development",
	"logger.level":        "info",
	"logger.format":       "text",
	"retry.base_delay":    "200ms",
	"retry.max_delay":     "5s",
	"retry.max_retries":   3,
	"sandbox.enabled":     true,
	"sandbox.name":        "sandbox",
	"rest.name":           "rest",
	"rest.timeout":        "10s",
	"iso.name":            "iso8583",
	"iso.connect_timeout": "5s",
	"iso.send_timeout":    "30s",
}

// LoadConfig reads defaults, then the optional YAML file at path, then PAYKIT_
// environment variables. A double underscore separates nested keys, so
// PAYKIT_REST__BASE_URL sets rest.base_url.
func LoadConfig(path string) (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		logger.Error("failed to load defaults", "error", err)
		return nil, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			logger.Error("failed to load config file", "path", path, "error", err)
			return nil, err
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	if err := mainConfig.Validate(); err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// Validate checks struct tags and the settings each enabled gateway needs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	var errs []error
	if c.Rest.Enabled && c.Rest.BaseURL == "" {
		errs = append(errs, errors.New("rest.base_url is required when the rest gateway is enabled"))
	}
	if c.ISO.Enabled && c.ISO.Addr == "" {
		errs = append(errs, errors.New("iso.addr is required when the iso8583 gateway is enabled"))
	}
	if !c.Sandbox.Enabled && !c.Rest.Enabled && !c.ISO.Enabled {
		errs = append(errs, errors.New("at least one gateway must be enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid gateway configuration: %w", errors.Join(errs...))
	}
	return nil
}
