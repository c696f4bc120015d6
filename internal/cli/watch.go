package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/sdejongh/treesync/pkg/watch"
)

var watchDebounce time.Duration

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync, then sync again whenever the source changes",
		Long: `Run a sync, then watch the source directory and run it again after every
burst of changes. Failed runs are reported and watching continues until
interrupted.`,
		RunE: runWatch,
	}

	addSyncFlags(cmd)
	cmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "quiet period before a re-run (default from config: 300ms)")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	run, err := newSyncRun(cmd, false)
	if err != nil {
		return err
	}
	defer run.Close()

	debounce := run.cfg.Watch.Debounce
	if watchDebounce > 0 {
		debounce = watchDebounce
	}

	w := watch.New(watch.Config{
		Root:     run.operation.SourcePath,
		Debounce: debounce,
		Ignore:   run.cfg.Sync.Ignore,
	}, func(ctx context.Context) error {
		run.renewOperation()
		report, err := run.execute(ctx)
		if report != nil {
			if werr := run.writeDifferences(cmd, report); werr != nil {
				return werr
			}
		}
		return err
	}, run.logger)

	return w.Run(ctx)
}
