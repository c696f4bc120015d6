package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sdejongh/treesync/pkg/compare"
	"github.com/sdejongh/treesync/pkg/config"
	"github.com/sdejongh/treesync/pkg/fsops"
	"github.com/sdejongh/treesync/pkg/logging"
	"github.com/sdejongh/treesync/pkg/models"
	"github.com/sdejongh/treesync/pkg/output"
	"github.com/sdejongh/treesync/pkg/ratelimit"
	"github.com/sdejongh/treesync/pkg/sync"
)

// SyncFlags holds sync command flags
type SyncFlags struct {
	Source     string
	Dest       []string
	FilesFrom  string
	Exclude    []string
	Ignore     []string
	DryRun     bool
	Parallel   int
	Bandwidth  string
	Output     string
	DiffReport string
	DiffFormat string
	// Logging flags
	LogFile   string
	LogFormat string
}

var syncFlags SyncFlags

// NewSyncCommand creates the sync command
func NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replace destination trees with the listed source files",
		Long: `Replace the contents of one or more destination directories with an explicit
list of files from the source directory. Destination paths matching an exclude
pattern are never replaced or removed.`,
		RunE: runSync,
	}

	addSyncFlags(cmd)
	cmd.Flags().BoolVar(&syncFlags.DryRun, "dry-run", false, "compare only, don't sync")

	return cmd
}

// addSyncFlags registers the flags shared by sync, compare and watch
func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&syncFlags.Source, "source", "s", "", "source directory path (required)")
	cmd.MarkFlagRequired("source")
	cmd.Flags().StringArrayVarP(&syncFlags.Dest, "dest", "d", nil, "destination directory path, repeatable (default from config: ./local_modules)")
	cmd.Flags().StringVar(&syncFlags.FilesFrom, "files-from", "", "file listing source-relative paths to copy, - for stdin (default: every source file)")
	cmd.Flags().StringArrayVarP(&syncFlags.Exclude, "exclude", "e", nil, "glob of destination paths to leave untouched, repeatable")
	cmd.Flags().StringArrayVar(&syncFlags.Ignore, "ignore", nil, "glob of source paths skipped when listing every source file, repeatable")
	cmd.Flags().IntVarP(&syncFlags.Parallel, "parallel", "p", 0, "maximum concurrent filesystem operations (default: 16)")
	cmd.Flags().StringVarP(&syncFlags.Bandwidth, "bandwidth", "b", "", "bandwidth limit (e.g., \"10MB\", \"512KiB\")")
	cmd.Flags().StringVarP(&syncFlags.Output, "output", "o", "", "output format: human, json")
	cmd.Flags().StringVar(&syncFlags.DiffReport, "diff-report", "", "write differences report to file")
	cmd.Flags().StringVar(&syncFlags.DiffFormat, "diff-format", "human", "differences report format: human, json")

	// Logging flags
	cmd.Flags().StringVar(&syncFlags.LogFile, "log-file", "", "write logs to file instead of stderr")
	cmd.Flags().StringVar(&syncFlags.LogFormat, "log-format", "", "log format: text, json")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	run, err := newSyncRun(cmd, syncFlags.DryRun)
	if err != nil {
		return err
	}
	defer run.Close()

	report, err := run.execute(ctx)
	if report == nil {
		return err
	}
	if err := run.writeDifferences(cmd, report); err != nil {
		return err
	}
	if code := report.Status.ExitCode(); code != 0 {
		return &ExitError{Code: code, Err: err}
	}
	return nil
}

// syncRun holds everything needed to run the engine, possibly many times
type syncRun struct {
	cfg        *config.Config
	operation  *models.SyncOperation
	logger     logging.Logger
	provider   fsops.Provider
	comparator compare.Comparator
	stdout     io.Writer
}

func newSyncRun(cmd *cobra.Command, dryRun bool) (*syncRun, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := applyFlagsToConfig(cmd, cfg); err != nil {
		return nil, err
	}

	files, err := readFileList(cmd.InOrStdin())
	if err != nil {
		return nil, err
	}

	operation, err := createSyncOperation(cfg, files, dryRun)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync operation: %w", err)
	}

	if err := validatePaths(operation.SourcePath, operation.DestPaths); err != nil {
		return nil, err
	}

	logger, err := createLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	provider := fsops.NewLocal(logger, fsops.LocalOptions{
		BufferSize: operation.BufferSize,
		Limiter:    ratelimit.NewLimiter(operation.BandwidthLimit),
	})

	return &syncRun{
		cfg:        cfg,
		operation:  operation,
		logger:     logger,
		provider:   provider,
		comparator: compare.NewTimeSizeComparator(compare.NewBinaryComparator(operation.BufferSize)),
		stdout:     cmd.OutOrStdout(),
	}, nil
}

// execute runs one pass and displays its report
func (r *syncRun) execute(ctx context.Context) (*models.SyncReport, error) {
	formatter, err := output.New(r.cfg.Output.Format, r.cfg.Output.Progress)
	if err != nil {
		return nil, err
	}

	writer := r.stdout
	if r.cfg.Output.Quiet {
		writer = io.Discard
	}
	if err := formatter.Start(writer, r.operation); err != nil {
		return nil, err
	}

	engine := sync.NewEngine(r.provider, r.comparator, formatter, r.logger, r.operation)
	report, runErr := engine.Run(ctx)
	if runErr != nil {
		formatter.Error(runErr)
	}
	if report != nil {
		if err := formatter.Complete(report); err != nil {
			return report, err
		}
	}
	return report, runErr
}

// renewOperation gives the next pass its own operation ID
func (r *syncRun) renewOperation() {
	op := *r.operation
	op.ID = uuid.New().String()
	r.operation = &op
}

// writeDifferences writes the differences report to the --diff-report file,
// or to stdout when only --diff-format was given
func (r *syncRun) writeDifferences(cmd *cobra.Command, report *models.SyncReport) error {
	switch {
	case syncFlags.DiffReport != "":
		if err := output.WriteDifferencesReport(report, syncFlags.DiffReport, syncFlags.DiffFormat); err != nil {
			return fmt.Errorf("failed to write differences report: %w", err)
		}
	case cmd.Flags().Changed("diff-format"):
		if err := output.WriteDifferences(r.stdout, report, syncFlags.DiffFormat); err != nil {
			return fmt.Errorf("failed to write differences report: %w", err)
		}
	}
	return nil
}

// Close releases the logger
func (r *syncRun) Close() error {
	return r.logger.Close()
}

// createLogger creates a logger based on configuration
func createLogger(cfg *config.Config) (logging.Logger, error) {
	format := logging.ParseFormat(cfg.Logging.Format)
	level := globalFlags.logLevel(cfg.Logging.Level)

	if cfg.Logging.File == "" {
		return logging.NewStreamLogger(os.Stderr, format, level), nil
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.Logging.File,
		Format:     format,
		Level:      level,
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	})
}
