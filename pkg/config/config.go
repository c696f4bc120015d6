package config

import (
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sdejongh/treesync/pkg/models"
)

// Config represents the application configuration
type Config struct {
	Sync        SyncConfig        `yaml:"sync"`
	Performance PerformanceConfig `yaml:"performance"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
	Watch       WatchConfig       `yaml:"watch"`
}

// SyncConfig holds sync-related settings
type SyncConfig struct {
	// Exclude lists globs of destination paths that are never replaced or removed
	Exclude []string `yaml:"exclude"`
	// Ignore lists globs skipped when the file list is built by walking the source
	Ignore       []string `yaml:"ignore"`
	Destinations []string `yaml:"destinations"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	MaxWorkers     int   `yaml:"max_workers"`
	BufferSize     int   `yaml:"buffer_size"`
	BandwidthLimit int64 `yaml:"bandwidth_limit"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show progress bars
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Format string `yaml:"format"` // "json" or "text"
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	File   string `yaml:"file"`   // Log file path (empty = stderr)
}

// WatchConfig holds watch mode settings
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Sync: SyncConfig{
			Exclude:      []string{"node_modules", ".git"},
			Ignore:       []string{"node_modules", ".git"},
			Destinations: []string{"./local_modules"},
		},
		Performance: PerformanceConfig{
			MaxWorkers:     16,
			BufferSize:     65536,
			BandwidthLimit: 0,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "warn",
			File:   "",
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Performance.MaxWorkers < 1 {
		return &models.ValidationError{
			Field:   "performance.max_workers",
			Message: "must be at least 1",
		}
	}

	if c.Performance.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	if c.Performance.BandwidthLimit < 0 {
		return &models.ValidationError{
			Field:   "performance.bandwidth_limit",
			Message: "must not be negative",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	if c.Watch.Debounce < 0 {
		return &models.ValidationError{
			Field:   "watch.debounce",
			Message: "must not be negative",
		}
	}

	for _, field := range []struct {
		name  string
		globs []string
	}{
		{"sync.exclude", c.Sync.Exclude},
		{"sync.ignore", c.Sync.Ignore},
	} {
		for _, g := range field.globs {
			if !doublestar.ValidatePattern(g) {
				return &models.ValidationError{
					Field:   field.name,
					Message: "invalid glob pattern: " + g,
				}
			}
		}
	}

	return nil
}
