// Package reconcile applies diff results to a destination tree.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/treesync/pkg/diff"
	"github.com/sdejongh/treesync/pkg/fsops"
	"github.com/sdejongh/treesync/pkg/fspath"
	"github.com/sdejongh/treesync/pkg/logging"
	"github.com/sdejongh/treesync/pkg/tree"
)

// RemovalRetryDelay is how long verified removal waits before its single
// second access check
const RemovalRetryDelay = 100 * time.Millisecond

var (
	// ErrPathStillExists is returned when a removed path is still accessible
	ErrPathStillExists = errors.New("path exists after removal")
	// ErrPendingDelete is returned when a removed path reports a permission
	// error, which usually means another process still holds it open and the
	// path is in a pending-delete state
	ErrPendingDelete = errors.New("path exists but is not accessible; it is likely in a pending-delete state because another process is still using it")
	// ErrUnexpectedAccess is returned for any other access check failure
	ErrUnexpectedAccess = errors.New("unexpected error accessing path after removal")
)

// ProgressFunc is called after each destination operation completes
type ProgressFunc func(kind diff.Kind, relPath string)

// Reconciler applies diff results in four ordered phases
type Reconciler struct {
	logger     logging.Logger
	retryDelay time.Duration
	progress   ProgressFunc
}

// NewReconciler creates a reconciler logging to logger
func NewReconciler(logger logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Reconciler{logger: logger, retryDelay: RemovalRetryDelay}
}

// SetProgressCallback sets the function notified after each operation
func (r *Reconciler) SetProgressCallback(fn ProgressFunc) {
	r.progress = fn
}

// Apply copies added and changed items, replaces items whose type changed
// and removes obsolete items, in that order. Every phase finishes before the
// next one starts; items within a phase run concurrently.
func (r *Reconciler) Apply(ctx context.Context, srcRoot, dstRoot fspath.Path, results []diff.Result) error {
	groups := diff.Group(results)
	log := r.logger.WithFields(logging.Fields{"destination": dstRoot.String()})

	log.Info(ctx, "copying new items", logging.Fields{"count": groups.Count(diff.Added)})
	r.debugList(ctx, log, "copying items", groups[diff.Added])
	if err := r.phase(groups[diff.Added], func(res diff.Result) error {
		return r.copyItem(ctx, srcRoot, dstRoot, res.RelativePath, res.Source)
	}); err != nil {
		return err
	}

	log.Info(ctx, "copying changed items", logging.Fields{"count": groups.Count(diff.ChangedContents)})
	r.debugList(ctx, log, "copying items", groups[diff.ChangedContents])
	if err := r.phase(groups[diff.ChangedContents], func(res diff.Result) error {
		return r.copyItem(ctx, srcRoot, dstRoot, res.RelativePath, res.Source)
	}); err != nil {
		return err
	}

	log.Info(ctx, "replacing items that changed type", logging.Fields{"count": groups.Count(diff.ChangedTypes)})
	r.debugList(ctx, log, "replacing items", groups[diff.ChangedTypes])
	if err := r.phase(groups[diff.ChangedTypes], func(res diff.Result) error {
		if err := r.removeVerified(ctx, dstRoot.Join(res.RelativePath)); err != nil {
			return err
		}
		return r.copyItem(ctx, srcRoot, dstRoot, res.RelativePath, res.Source)
	}); err != nil {
		return err
	}

	log.Info(ctx, "removing items no longer in the source", logging.Fields{"count": groups.Count(diff.Removed)})
	r.debugList(ctx, log, "removing items", groups[diff.Removed])
	return r.phase(groups[diff.Removed], func(res diff.Result) error {
		return r.remove(ctx, dstRoot.Join(res.RelativePath))
	})
}

func (r *Reconciler) debugList(ctx context.Context, log logging.Logger, msg string, results []diff.Result) {
	if len(results) == 0 {
		return
	}
	paths := make([]string, len(results))
	for i, res := range results {
		paths[i] = res.RelativePath
	}
	log.Debug(ctx, msg, logging.Fields{"paths": paths})
}

// phase runs fn for every result concurrently and waits for all of them.
// A failure does not interrupt the items already running.
func (r *Reconciler) phase(results []diff.Result, fn func(diff.Result) error) error {
	var g errgroup.Group
	for _, res := range results {
		g.Go(func() error {
			if err := fn(res); err != nil {
				return err
			}
			r.notify(res.Kind, res.RelativePath)
			return nil
		})
	}
	return g.Wait()
}

func (r *Reconciler) notify(kind diff.Kind, rel string) {
	if r.progress != nil {
		r.progress(kind, rel)
	}
}

// copyItem copies one source node, creating directories and descending into
// their contents. Files not marked for replacement are skipped.
func (r *Reconciler) copyItem(ctx context.Context, srcRoot, dstRoot fspath.Path, rel string, node *tree.Node[tree.SourceInfo]) error {
	if node == nil {
		return fmt.Errorf("no source description for %s", rel)
	}

	if !node.IsDir() {
		if !node.Info.ShouldReplace {
			return nil
		}
		return srcRoot.Join(rel).CopyTo(ctx, dstRoot.Join(rel))
	}

	if err := dstRoot.Join(rel).EnsureDir(ctx); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dstRoot.Join(rel), err)
	}

	var g errgroup.Group
	for name, child := range node.Contents {
		g.Go(func() error {
			return r.copyItem(ctx, srcRoot, dstRoot, path.Join(rel, name), child)
		})
	}
	return g.Wait()
}

// remove is a plain removal: failures are logged and returned without retry
func (r *Reconciler) remove(ctx context.Context, p fspath.Path) error {
	if err := p.Remove(ctx); err != nil {
		r.logger.Error(ctx, "unable to remove item", err, logging.Fields{"path": p.String()})
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}
	return nil
}

// removeVerified removes p and confirms with an access check that it is
// gone, checking once more after the retry delay
func (r *Reconciler) removeVerified(ctx context.Context, p fspath.Path) error {
	if err := r.ensureRemoved(ctx, p); err != nil {
		r.logger.Error(ctx, "unable to remove item", err, logging.Fields{"path": p.String()})
		return err
	}
	return nil
}

func (r *Reconciler) ensureRemoved(ctx context.Context, p fspath.Path) error {
	if err := p.Remove(ctx); err != nil {
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}

	if p.Access(ctx).NotExist() {
		return nil
	}

	time.Sleep(r.retryDelay)

	res := p.Access(ctx)
	switch {
	case res.NotExist():
		return nil
	case res.OK():
		return fmt.Errorf("%w: %s", ErrPathStillExists, p)
	case res.Code == fsops.CodeNotPermitted || res.Code == fsops.CodeAccessDenied:
		return fmt.Errorf("%w: %s (%s)", ErrPendingDelete, p, res.Code)
	default:
		return fmt.Errorf("%w: %s: %s", ErrUnexpectedAccess, p, res.Code)
	}
}
