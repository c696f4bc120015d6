package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare folders without syncing (dry-run)",
		Long: `Compare the listed source files with each destination and report what a sync
would add, replace and remove, without performing any file operations. This is
equivalent to sync --dry-run.`,
		RunE: runCompare,
	}

	addSyncFlags(cmd)

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	run, err := newSyncRun(cmd, true)
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
