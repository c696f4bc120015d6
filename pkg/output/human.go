package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sdejongh/treesync/pkg/models"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	writer    io.Writer
	startTime time.Time
	mu        sync.Mutex
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, op *models.SyncOperation) error {
	f.writer = writer
	f.startTime = time.Now()

	if writer != nil {
		mode := "Syncing"
		if op.DryRun {
			mode = "Comparing"
		}
		fmt.Fprintf(writer, "%s %s into %d destination(s)\n", mode, op.SourcePath, len(op.DestPaths))
		if op.BandwidthLimit > 0 {
			fmt.Fprintf(writer, "Bandwidth limit: %s/s\n", humanize.IBytes(uint64(op.BandwidthLimit)))
		}
	}

	return nil
}

// Progress reports progress during sync
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	if f.writer == nil {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch update.Type {
	case UpdateDestinationStart:
		fmt.Fprintf(f.writer, "[%s] %d operation(s) pending\n", update.Destination, update.Total)

	case UpdateItemComplete:
		fmt.Fprintf(f.writer, "[%s] ✓ %s %s\n", update.Destination, update.Kind, update.Path)

	case UpdateDestinationError:
		fmt.Fprintf(f.writer, "[%s] ✗ %v\n", update.Destination, update.Error)
	}

	return nil
}

// Complete finalizes output and displays summary
func (f *HumanFormatter) Complete(report *models.SyncReport) error {
	if f.writer == nil {
		f.writer = io.Discard
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	writeSummary(f.writer, report)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	if f.writer != nil {
		fmt.Fprintf(f.writer, "Error: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

func writeSummary(w io.Writer, report *models.SyncReport) {
	verb := "Sync"
	if report.DryRun {
		verb = "Comparison"
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "%s completed in %s\n", verb, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Source: %s (%s files, %s dirs)\n", report.SourcePath,
		humanize.Comma(int64(report.SourceFiles)), humanize.Comma(int64(report.SourceDirs)))

	for _, d := range report.Destinations {
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "Destination: %s\n", d.DestPath)
		fmt.Fprintf(w, "  Added:            %d\n", d.Stats.Added)
		fmt.Fprintf(w, "  Changed contents: %d\n", d.Stats.ChangedContents)
		fmt.Fprintf(w, "  Changed types:    %d\n", d.Stats.ChangedTypes)
		fmt.Fprintf(w, "  Removed:          %d\n", d.Stats.Removed)
		fmt.Fprintf(w, "  Equal:            %d\n", d.Stats.Equal)
		fmt.Fprintf(w, "  Excluded:         %d\n", d.Stats.Excluded)
		fmt.Fprintf(w, "  Duration:         %s\n", d.Duration.Round(time.Millisecond))
		fmt.Fprintf(w, "  Status:           %s\n", d.Status)
		if d.Error != "" {
			fmt.Fprintf(w, "  Error:            %s\n", d.Error)
		}
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Status: %s\n", report.Status)
}
