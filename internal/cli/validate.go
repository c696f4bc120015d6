package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sdejongh/treesync/internal/platform"
	"github.com/sdejongh/treesync/pkg/config"
	"github.com/sdejongh/treesync/pkg/filelist"
	"github.com/sdejongh/treesync/pkg/models"
	"github.com/sdejongh/treesync/pkg/tree"
)

// validatePaths checks the source and destination directories. The source
// must be an existing directory. A destination may be missing but must not
// be anything other than a directory. No two paths may be equal or nested.
func validatePaths(source string, dests []string) error {
	sourceAbs, err := platform.Abs(source)
	if err != nil {
		return fmt.Errorf("failed to resolve source path: %w", err)
	}

	info, err := os.Lstat(sourceAbs)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("source path does not exist: %s", source)
	} else if err != nil {
		return fmt.Errorf("failed to access source path: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("source path is not a directory: %s", source)
	}

	if len(dests) == 0 {
		return fmt.Errorf("at least one destination is required")
	}

	seen := []string{sourceAbs}
	for _, dest := range dests {
		destAbs, err := platform.Abs(dest)
		if err != nil {
			return fmt.Errorf("failed to resolve destination path: %w", err)
		}

		destInfo, err := os.Lstat(destAbs)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to access destination path: %w", err)
		}
		if err == nil && !destInfo.IsDir() {
			return fmt.Errorf("destination path exists but is not a directory: %s", dest)
		}

		for i, other := range seen {
			what := "another destination"
			if i == 0 {
				what = "the source"
			}
			if platform.SamePath(destAbs, other) {
				return fmt.Errorf("destination %s is the same as %s", dest, what)
			}
			if platform.IsNested(other, destAbs) {
				return fmt.Errorf("destination %s is inside %s", dest, what)
			}
			if platform.IsNested(destAbs, other) {
				return fmt.Errorf("destination %s contains %s", dest, what)
			}
		}
		seen = append(seen, destAbs)
	}

	return nil
}

// loadConfig loads configuration from file or returns default, then applies
// the environment overrides
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if globalFlags.ConfigFile != "" {
		cfg, err = config.LoadFromFile(globalFlags.ConfigFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cmd *cobra.Command, cfg *config.Config) error {
	if len(syncFlags.Dest) > 0 {
		cfg.Sync.Destinations = syncFlags.Dest
	}

	if cmd.Flags().Changed("exclude") {
		cfg.Sync.Exclude = syncFlags.Exclude
	}

	if cmd.Flags().Changed("ignore") {
		cfg.Sync.Ignore = syncFlags.Ignore
	}

	if syncFlags.Parallel > 0 {
		cfg.Performance.MaxWorkers = syncFlags.Parallel
	}

	if syncFlags.Bandwidth != "" {
		bps, err := config.ParseBandwidth(syncFlags.Bandwidth)
		if err != nil {
			return fmt.Errorf("invalid bandwidth limit %q: %w", syncFlags.Bandwidth, err)
		}
		cfg.Performance.BandwidthLimit = bps
	}

	if syncFlags.Output != "" {
		cfg.Output.Format = syncFlags.Output
	}

	if syncFlags.LogFile != "" {
		cfg.Logging.File = syncFlags.LogFile
	}

	if syncFlags.LogFormat != "" {
		cfg.Logging.Format = syncFlags.LogFormat
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	// Per-item log lines and a progress bar do not mix
	if globalFlags.Info || globalFlags.Debug {
		cfg.Output.Progress = false
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// readFileList reads --files-from; nil means list every source file
func readFileList(stdin io.Reader) ([]string, error) {
	if syncFlags.FilesFrom == "" {
		return nil, nil
	}
	files, err := filelist.ReadFile(syncFlags.FilesFrom, stdin)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []string{}
	}
	return files, nil
}

// createSyncOperation creates a sync operation from configuration
func createSyncOperation(cfg *config.Config, files []string, dryRun bool) (*models.SyncOperation, error) {
	if err := tree.ValidateGlobs(cfg.Sync.Exclude); err != nil {
		return nil, err
	}
	if err := tree.ValidateGlobs(cfg.Sync.Ignore); err != nil {
		return nil, err
	}

	operation := &models.SyncOperation{
		ID:              uuid.New().String(),
		SourcePath:      syncFlags.Source,
		DestPaths:       cfg.Sync.Destinations,
		Files:           files,
		ExcludePatterns: cfg.Sync.Exclude,
		IgnorePatterns:  cfg.Sync.Ignore,
		DryRun:          dryRun,
		MaxWorkers:      cfg.Performance.MaxWorkers,
		BandwidthLimit:  cfg.Performance.BandwidthLimit,
		BufferSize:      cfg.Performance.BufferSize,
		CreatedAt:       time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}

	return operation, nil
}
