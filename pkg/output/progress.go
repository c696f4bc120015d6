package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/sdejongh/treesync/pkg/models"
)

const progressTemplate = `{{string . "prefix"}} {{counters . }} {{bar . }} {{percent . }} {{etime . }}`

// ProgressFormatter shows one progress bar over the pending operations of
// every destination
type ProgressFormatter struct {
	writer io.Writer
	op     *models.SyncOperation

	mu     sync.Mutex
	bar    *pb.ProgressBar
	total  int64
	errors []string
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{}
}

// Start initializes the formatter
func (f *ProgressFormatter) Start(writer io.Writer, op *models.SyncOperation) error {
	f.writer = writer
	f.op = op
	if writer == nil {
		return nil
	}

	f.bar = pb.ProgressBarTemplate(progressTemplate).New(0)
	f.bar.SetWriter(writer)
	f.bar.SetRefreshRate(100 * time.Millisecond)
	f.bar.Set("prefix", fmt.Sprintf("%d destination(s)", len(op.DestPaths)))
	f.bar.Start()
	return nil
}

// Progress reports progress during sync
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch update.Type {
	case UpdateDestinationStart:
		f.total += int64(update.Total)
		if f.bar != nil {
			f.bar.SetTotal(f.total)
		}
	case UpdateItemComplete:
		if f.bar != nil {
			f.bar.Increment()
		}
	case UpdateDestinationError:
		f.errors = append(f.errors, fmt.Sprintf("%s: %v", update.Destination, update.Error))
	}
	return nil
}

// Complete stops the bar and displays the summary
func (f *ProgressFormatter) Complete(report *models.SyncReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar != nil {
		f.bar.Finish()
	}
	if f.writer == nil {
		return nil
	}

	writeSummary(f.writer, report)
	if len(f.errors) > 0 {
		fmt.Fprintf(f.writer, "\nErrors:\n")
		for _, e := range f.errors {
			fmt.Fprintf(f.writer, "  %s\n", e)
		}
	}
	return nil
}

// Error reports an error
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, err.Error())
	return nil
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}

// Processed returns the number of completed operations and the number
// announced so far
func (f *ProgressFormatter) Processed() (current, total int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bar == nil {
		return 0, f.total
	}
	return f.bar.Current(), f.total
}
