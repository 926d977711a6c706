package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Source   SourceConfig   `mapstructure:"source"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Detector DetectorConfig `mapstructure:"detector"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig represents the HTTP API server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
}

// SourceConfig represents the upstream sales data source
type SourceConfig struct {
	BaseURL string        `mapstructure:"base_url"` // Sales API base URL
	APIKey  string        `mapstructure:"api_key"`  // Key sent as X-API-Key on outbound requests
	Timeout time.Duration `mapstructure:"timeout"`  // Per-request timeout
}

// ForecastConfig represents the forecasting pipeline configuration
type ForecastConfig struct {
	HorizonWeeks      int     `mapstructure:"horizon_weeks"`       // Number of weekly periods to predict (default: 4)
	AnchorWeekday     string  `mapstructure:"anchor_weekday"`      // Weekday every period starts on (default: monday)
	MinEligibleWeeks  int     `mapstructure:"min_eligible_weeks"`  // Non-zero weeks required before fitting a model (default: 6)
	ModelNoisePct     float64 `mapstructure:"model_noise_pct"`     // Multiplicative noise band on model output (default: 0.025)
	FallbackJitterPct float64 `mapstructure:"fallback_jitter_pct"` // Jitter band on the fallback mean (default: 0.10)
	SeasonalOrder     int     `mapstructure:"seasonal_order"`      // Fourier order of the monthly seasonal component
	Workers           int     `mapstructure:"workers"`             // Concurrent entities per run (default: 8)
	Seed              int64   `mapstructure:"seed"`                // Base RNG seed; 0 means derive from wall clock
}

// DetectorConfig represents the instability screening thresholds
type DetectorConfig struct {
	MaxRatio       float64 `mapstructure:"max_ratio"`       // Forecast max vs history max (default: 5.0)
	SpikeRatio     float64 `mapstructure:"spike_ratio"`     // Forecast max vs median positive history (default: 10.0)
	MeanRatio      float64 `mapstructure:"mean_ratio"`      // Forecast mean vs recent history mean (default: 1.5)
	MinRatio       float64 `mapstructure:"min_ratio"`       // Collapse floor vs recent history mean (default: 0.1)
	ReferenceWeeks int     `mapstructure:"reference_weeks"` // Trailing window for the mean comparisons (default: 3)
	FlatTolerance  float64 `mapstructure:"flat_tolerance"`  // Spread below which a forecast counts as flat
	MinHistoryCV   float64 `mapstructure:"min_history_cv"`  // History variation above which flat output is rejected
}

// CacheConfig represents where generated forecasts are persisted
type CacheConfig struct {
	Dir   string      `mapstructure:"dir"`   // Directory for forecast JSON files
	Redis RedisConfig `mapstructure:"redis"` // Optional Redis mirror for API reads
}

// RedisConfig represents the optional Redis forecast mirror
type RedisConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"` // e.g. redis://localhost:6379/0
	TTL     time.Duration `mapstructure:"ttl"` // Expiry on mirrored entries; 0 means no expiry
}

// QueueConfig represents the run-event queue configuration
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	// Redis-specific options
	RedisDB     int    `mapstructure:"redis_db"`     // Redis database number (default: 0)
	RedisStream string `mapstructure:"redis_stream"` // Redis stream prefix (default: "demandcast")

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"` // Kafka broker addresses
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source config: %w", err)
	}

	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast config: %w", err)
	}

	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("detector config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	return nil
}

// Validate validates source configuration
func (c *SourceConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}

// Validate validates forecast configuration
func (c *ForecastConfig) Validate() error {
	if c.HorizonWeeks < 1 {
		return fmt.Errorf("horizon_weeks must be at least 1")
	}

	if _, err := ParseWeekday(c.AnchorWeekday); err != nil {
		return err
	}

	if c.MinEligibleWeeks < 1 {
		return fmt.Errorf("min_eligible_weeks must be at least 1")
	}

	if c.ModelNoisePct < 0 || c.ModelNoisePct >= 1 {
		return fmt.Errorf("model_noise_pct must be in [0, 1)")
	}

	if c.FallbackJitterPct < 0 || c.FallbackJitterPct >= 1 {
		return fmt.Errorf("fallback_jitter_pct must be in [0, 1)")
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}

	return nil
}

// Validate validates detector configuration
func (c *DetectorConfig) Validate() error {
	if c.MaxRatio <= 1 {
		return fmt.Errorf("max_ratio must be greater than 1")
	}

	if c.MeanRatio <= 1 {
		return fmt.Errorf("mean_ratio must be greater than 1")
	}

	if c.SpikeRatio <= 1 {
		return fmt.Errorf("spike_ratio must be greater than 1")
	}

	if c.MinRatio < 0 || c.MinRatio >= 1 {
		return fmt.Errorf("min_ratio must be in [0, 1)")
	}

	if c.ReferenceWeeks < 1 {
		return fmt.Errorf("reference_weeks must be at least 1")
	}

	return nil
}

// Validate validates cache configuration
func (c *CacheConfig) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir is required")
	}

	if c.Redis.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("redis.url is required when redis is enabled")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
