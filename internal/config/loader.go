package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")               // Current directory
		v.AddConfigPath("./configs")       // Project configs directory
		v.AddConfigPath("./config")        // Alternative config directory
		v.AddConfigPath("/etc/demandcast") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides
	v.SetEnvPrefix("DEMANDCAST")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8000)

	// Source defaults
	v.SetDefault("source.base_url", "http://localhost:8080")
	v.SetDefault("source.timeout", "30s")

	// Forecast defaults
	v.SetDefault("forecast.horizon_weeks", 4)
	v.SetDefault("forecast.anchor_weekday", "monday")
	v.SetDefault("forecast.min_eligible_weeks", 6)
	v.SetDefault("forecast.model_noise_pct", 0.025)
	v.SetDefault("forecast.fallback_jitter_pct", 0.10)
	v.SetDefault("forecast.seasonal_order", 2)
	v.SetDefault("forecast.workers", 8)

	// Detector defaults
	v.SetDefault("detector.max_ratio", 5.0)
	v.SetDefault("detector.spike_ratio", 10.0)
	v.SetDefault("detector.mean_ratio", 1.5)
	v.SetDefault("detector.min_ratio", 0.1)
	v.SetDefault("detector.reference_weeks", 3)
	v.SetDefault("detector.flat_tolerance", 0.5)
	v.SetDefault("detector.min_history_cv", 0.25)

	// Cache defaults
	v.SetDefault("cache.dir", "./cache")
	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.url", "redis://localhost:6379/0")
	v.SetDefault("cache.redis.ttl", "168h")

	// Queue defaults
	v.SetDefault("queue.type", "memory")
	v.SetDefault("queue.url", "nats://localhost:4222")
	v.SetDefault("queue.redis_stream", "demandcast")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 8000,
		},
		Source: SourceConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
		Forecast: ForecastConfig{
			HorizonWeeks:      4,
			AnchorWeekday:     "monday",
			MinEligibleWeeks:  6,
			ModelNoisePct:     0.025,
			FallbackJitterPct: 0.10,
			SeasonalOrder:     2,
			Workers:           8,
		},
		Detector: DetectorConfig{
			MaxRatio:       5.0,
			SpikeRatio:     10.0,
			MeanRatio:      1.5,
			MinRatio:       0.1,
			ReferenceWeeks: 3,
			FlatTolerance:  0.5,
			MinHistoryCV:   0.25,
		},
		Cache: CacheConfig{
			Dir: "./cache",
			Redis: RedisConfig{
				Enabled: false,
				URL:     "redis://localhost:6379/0",
				TTL:     168 * time.Hour,
			},
		},
		Queue: QueueConfig{
			Type:        "memory",
			URL:         "nats://localhost:4222",
			RedisStream: "demandcast",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
