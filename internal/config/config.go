// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and SALARY_* environment variables on top.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"time"

	"github.com/okian/salarygauge/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ArtifactPath points at the serialized model bundle (yaml, json, optionally gz/zst).
	ArtifactPath string `koanf:"artifact_path"`

	// RequiredFields lists categorical fields that may not be left at a placeholder.
	RequiredFields []string `koanf:"required_fields"`

	// ClampNegative floors negative model output at zero.
	ClampNegative bool `koanf:"clamp_negative"`

	// CacheSize bounds the prediction cache; zero disables it.
	CacheSize int `koanf:"cache_size"`

	// CacheTTLMS expires cached predictions; zero keeps them until evicted.
	CacheTTLMS int `koanf:"cache_ttl_ms"`

	// PredictRateLimit is the sustained requests/second allowed on prediction
	// endpoints; zero disables limiting.
	PredictRateLimit float64 `koanf:"predict_rate_limit"`

	// PredictBurst is the limiter bucket size.
	PredictBurst int `koanf:"predict_burst"`

	// ShutdownTimeoutMS bounds graceful HTTP shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		ArtifactPath:      "artifacts/salary_model.yaml",
		RequiredFields:    append([]string(nil), model.DefaultRequiredFields...),
		ClampNegative:     true,
		CacheSize:         10_000,
		CacheTTLMS:        0,
		PredictRateLimit:  200,
		PredictBurst:      50,
		ShutdownTimeoutMS: 10_000,
	}
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMS) * time.Millisecond
}

// ShutdownTimeout returns the shutdown timeout as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}
