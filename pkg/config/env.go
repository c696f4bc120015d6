package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

// Environment variables overriding the configuration file
const (
	EnvExclude      = "TREESYNC_EXCLUDE"
	EnvDestinations = "TREESYNC_DESTINATIONS"
	EnvMaxWorkers   = "TREESYNC_MAX_WORKERS"
	EnvLogLevel     = "TREESYNC_LOG_LEVEL"
	EnvBandwidth    = "TREESYNC_BANDWIDTH"
)

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with the TREESYNC_* environment variables and
// validates the result
func ApplyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvExclude); ok {
		cfg.Sync.Exclude = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvDestinations); ok {
		cfg.Sync.Destinations = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvMaxWorkers); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxWorkers, err)
		}
		cfg.Performance.MaxWorkers = n
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := os.LookupEnv(EnvBandwidth); ok {
		bps, err := ParseBandwidth(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvBandwidth, err)
		}
		cfg.Performance.BandwidthLimit = bps
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ParseBandwidth parses a human readable rate such as "10MB" or "512KiB"
// into bytes per second. An empty string or "0" means unlimited.
func ParseBandwidth(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(strings.TrimSuffix(s, "/s"))
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
