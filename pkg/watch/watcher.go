// Package watch re-runs a sync whenever the source tree changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sdejongh/treesync/pkg/logging"
	"github.com/sdejongh/treesync/pkg/tree"
)

// DefaultDebounce is the quiet period used when none is configured
const DefaultDebounce = 300 * time.Millisecond

// Config configures a Watcher
type Config struct {
	// Root is the directory watched recursively
	Root string
	// Debounce is the quiet period after the last event before a run starts
	Debounce time.Duration
	// Ignore lists globs, relative to Root, whose events are dropped and
	// whose directories are not watched
	Ignore []string
}

// Watcher runs a function once, then again after every burst of changes
// below a directory
type Watcher struct {
	config Config
	run    func(ctx context.Context) error
	logger logging.Logger
}

// New creates a watcher calling run for every sync
func New(config Config, run func(ctx context.Context) error, logger logging.Logger) *Watcher {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Watcher{
		config: config,
		run:    run,
		logger: logger.WithFields(logging.Fields{"root": config.Root}),
	}
}

// Run performs an initial run and then watches until ctx is cancelled.
// Errors returned by a run are logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.config.Root); err != nil {
		return err
	}

	runner := NewRunner(func() { w.runOnce(ctx) })
	debouncer := NewDebouncer(w.config.Debounce, runner.Request)
	defer debouncer.Stop()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		runner.Loop(ctx.Done())
	}()

	runner.Request()
	w.logger.Info(ctx, "watching for changes", logging.Fields{"debounce": w.config.Debounce.String()})

	for {
		select {
		case <-ctx.Done():
			<-loopDone
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				<-loopDone
				return nil
			}
			if w.handle(ctx, fw, event) {
				debouncer.Trigger()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				<-loopDone
				return nil
			}
			w.logger.Error(ctx, "watcher error", err, nil)
		}
	}
}

// handle reports whether event should trigger a run, watching directories
// created below the root
func (w *Watcher) handle(ctx context.Context, fw *fsnotify.Watcher, event fsnotify.Event) bool {
	rel, err := filepath.Rel(w.config.Root, event.Name)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	if tree.MatchAny(w.config.Ignore, rel) {
		return false
	}
	if event.Op == fsnotify.Chmod {
		return false
	}

	if event.Has(fsnotify.Create) {
		if err := w.addRecursive(fw, event.Name); err != nil {
			w.logger.Warn(ctx, "unable to watch new directory", logging.Fields{"path": event.Name, "error": err.Error()})
		}
	}

	w.logger.Debug(ctx, "change detected", logging.Fields{"path": rel, "op": event.Op.String()})
	return true
}

// addRecursive watches dir and every directory below it that is not ignored.
// A path that is not a directory is ignored.
func (w *Watcher) addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p != w.config.Root {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.config.Root {
			if rel, err := filepath.Rel(w.config.Root, p); err == nil && tree.MatchAny(w.config.Ignore, filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := w.run(ctx); err != nil {
		w.logger.Error(ctx, "sync failed", err, nil)
		return
	}
	w.logger.Info(ctx, "sync finished", logging.Fields{"duration": time.Since(start).String()})
}
