package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnsureDirectories ensures all required directories exist
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Cache.Dir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

// GetCachePath returns the full path for a cached forecast file
func (c *Config) GetCachePath(filename string) string {
	return filepath.Join(c.Cache.Dir, filename)
}

// GetServerAddress returns the HTTP server listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// ParseWeekday maps a weekday name (case-insensitive) to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return time.Sunday, fmt.Errorf("invalid anchor_weekday: %q", name)
}

// Anchor returns the parsed anchor weekday, defaulting to Monday when
// the configured value is invalid.
func (c *ForecastConfig) Anchor() time.Weekday {
	day, err := ParseWeekday(c.AnchorWeekday)
	if err != nil {
		return time.Monday
	}
	return day
}
