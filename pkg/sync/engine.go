package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/treesync/pkg/compare"
	"github.com/sdejongh/treesync/pkg/diff"
	"github.com/sdejongh/treesync/pkg/filelist"
	"github.com/sdejongh/treesync/pkg/fsops"
	"github.com/sdejongh/treesync/pkg/fspath"
	"github.com/sdejongh/treesync/pkg/logging"
	"github.com/sdejongh/treesync/pkg/models"
	"github.com/sdejongh/treesync/pkg/output"
	"github.com/sdejongh/treesync/pkg/reconcile"
	"github.com/sdejongh/treesync/pkg/tree"
)

// Engine orchestrates the sync operation
type Engine struct {
	provider   fsops.Provider
	comparator compare.Comparator
	formatter  output.Formatter
	logger     logging.Logger
	operation  *models.SyncOperation
}

// NewEngine creates a new sync engine. Provider calls are bounded by the
// operation's MaxWorkers.
func NewEngine(
	provider fsops.Provider,
	comparator compare.Comparator,
	formatter output.Formatter,
	logger logging.Logger,
	operation *models.SyncOperation,
) *Engine {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Engine{
		provider:   fsops.Throttle(provider, operation.MaxWorkers),
		comparator: comparator,
		formatter:  formatter,
		logger:     logger.WithFields(logging.Fields{"operation_id": operation.ID}),
		operation:  operation,
	}
}

// Run builds the source tree once and then reconciles every destination
// concurrently. A failing destination does not stop the others; all
// destination errors are joined into the returned error.
func (e *Engine) Run(ctx context.Context) (*models.SyncReport, error) {
	op := e.operation
	report := &models.SyncReport{
		OperationID: op.ID,
		SourcePath:  op.SourcePath,
		DryRun:      op.DryRun,
		StartTime:   time.Now(),
	}

	e.logger.Info(ctx, "starting sync operation", logging.Fields{
		"source":       op.SourcePath,
		"destinations": op.DestPaths,
		"max_workers":  op.MaxWorkers,
		"dry_run":      op.DryRun,
	})

	srcRoot, source, err := e.buildSource(ctx)
	if err != nil {
		report.Status = models.StatusFailed
		if ctx.Err() != nil {
			report.Status = models.StatusCancelled
		}
		report.Finalize(time.Now())
		e.logger.Error(ctx, "unable to read source", err, logging.Fields{"source": op.SourcePath})
		return report, err
	}
	report.SourceFiles, report.SourceDirs = source.Count()

	report.Destinations = make([]models.DestinationReport, len(op.DestPaths))
	errs := make([]error, len(op.DestPaths))

	var g errgroup.Group
	for i, dest := range op.DestPaths {
		g.Go(func() error {
			report.Destinations[i], errs[i] = e.syncDestination(ctx, srcRoot, source, dest)
			return nil
		})
	}
	g.Wait()

	report.Finalize(time.Now())
	e.logger.Info(ctx, "sync operation finished", logging.Fields{
		"status":   string(report.Status),
		"duration": report.Duration.String(),
	})

	return report, errors.Join(errs...)
}

func (e *Engine) buildSource(ctx context.Context) (fspath.Path, tree.Contents[tree.SourceInfo], error) {
	srcRoot, err := fspath.New(e.operation.SourcePath, e.provider)
	if err != nil {
		return fspath.Path{}, nil, err
	}

	files := e.operation.Files
	if files == nil {
		e.logger.Info(ctx, "listing source files", logging.Fields{"ignore": e.operation.IgnorePatterns})
		files, err = filelist.Walk(ctx, srcRoot, e.operation.IgnorePatterns)
		if err != nil {
			return fspath.Path{}, nil, err
		}
	}

	source, err := tree.BuildSource(ctx, srcRoot, files, e.logger)
	if err != nil {
		return fspath.Path{}, nil, err
	}
	return srcRoot, source, nil
}

func (e *Engine) syncDestination(ctx context.Context, srcRoot fspath.Path, source tree.Contents[tree.SourceInfo], dest string) (models.DestinationReport, error) {
	start := time.Now()
	rep := models.DestinationReport{DestPath: dest, Status: models.StatusSuccess}

	err := e.reconcileDestination(ctx, srcRoot, source, dest, &rep)
	rep.Duration = time.Since(start)
	if err != nil {
		rep.Status = models.StatusFailed
		if ctx.Err() != nil {
			rep.Status = models.StatusCancelled
		}
		rep.Error = err.Error()
		e.progress(output.ProgressUpdate{Type: output.UpdateDestinationError, Destination: dest, Error: err})
		return rep, fmt.Errorf("%s: %w", dest, err)
	}

	e.progress(output.ProgressUpdate{Type: output.UpdateDestinationComplete, Destination: dest})
	return rep, nil
}

func (e *Engine) reconcileDestination(ctx context.Context, srcRoot fspath.Path, source tree.Contents[tree.SourceInfo], dest string, rep *models.DestinationReport) error {
	dstRoot, err := fspath.New(dest, e.provider)
	if err != nil {
		return err
	}
	rep.DestPath = dstRoot.String()
	log := e.logger.WithFields(logging.Fields{"destination": dstRoot.String()})

	log.Info(ctx, "getting contents of destination directory", nil)
	dst, err := tree.Snapshot(ctx, dstRoot, tree.SnapshotOptions{})
	if err != nil {
		return err
	}
	files, dirs := dst.Count()
	log.Info(ctx, "got contents of destination directory", logging.Fields{
		"files":       files,
		"directories": dirs,
	})

	log.Info(ctx, "excluding paths", logging.Fields{"patterns": e.operation.ExcludePatterns})
	exclusions := tree.Filter(e.operation.ExcludePatterns, dst, "")
	merged, err := tree.ApplyExclusions(source, exclusions)
	if err != nil {
		return err
	}
	if debugEnabled(e.logger) {
		log.Debug(ctx, "merged source tree", logging.Fields{"tree": tree.Print(merged)})
	}

	log.Info(ctx, "diffing source and destination", nil)
	results, err := diff.NewDiffer(e.comparator, log).Diff(ctx, srcRoot, dstRoot, merged, dst)
	if err != nil {
		return err
	}

	groups := diff.Group(results)
	rep.Stats = models.Statistics{
		Added:           groups.Count(diff.Added),
		ChangedContents: groups.Count(diff.ChangedContents),
		ChangedTypes:    groups.Count(diff.ChangedTypes),
		Equal:           groups.Count(diff.Equal),
		Removed:         groups.Count(diff.Removed),
		Excluded:        countPlaceholders(merged),
	}
	for _, res := range results {
		if res.Kind != diff.Equal {
			rep.Differences = append(rep.Differences, models.Difference{Path: res.RelativePath, Kind: string(res.Kind)})
		}
	}

	e.progress(output.ProgressUpdate{Type: output.UpdateDestinationStart, Destination: rep.DestPath, Total: groups.Pending()})

	if e.operation.DryRun {
		log.Info(ctx, "dry run, leaving destination untouched", logging.Fields{"pending": groups.Pending()})
		return nil
	}

	reconciler := reconcile.NewReconciler(e.logger)
	reconciler.SetProgressCallback(func(kind diff.Kind, rel string) {
		e.progress(output.ProgressUpdate{
			Type:        output.UpdateItemComplete,
			Destination: rep.DestPath,
			Kind:        string(kind),
			Path:        rel,
		})
	})
	return reconciler.Apply(ctx, srcRoot, dstRoot, results)
}

func (e *Engine) progress(update output.ProgressUpdate) {
	if e.formatter != nil {
		e.formatter.Progress(update)
	}
}

func countPlaceholders(c tree.Contents[tree.SourceInfo]) int {
	n := 0
	c.Walk(func(_ string, node *tree.Node[tree.SourceInfo]) bool {
		if !node.IsDir() && !node.Info.ShouldReplace {
			n++
		}
		return true
	})
	return n
}

func debugEnabled(logger logging.Logger) bool {
	if l, ok := logger.(interface{ Enabled(logging.Level) bool }); ok {
		return l.Enabled(logging.DebugLevel)
	}
	return false
}
