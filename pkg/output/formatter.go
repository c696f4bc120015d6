package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/treesync/pkg/models"
)

// Progress update types
const (
	UpdateDestinationStart    = "destination_start"
	UpdateItemComplete        = "item_complete"
	UpdateDestinationComplete = "destination_complete"
	UpdateDestinationError    = "destination_error"
)

// ProgressUpdate represents a progress notification during sync
type ProgressUpdate struct {
	Type        string
	Destination string
	Kind        string // diff kind of the applied item
	Path        string // relative path of the applied item
	Total       int    // pending operations, set on destination_start
	Error       error
}

// Formatter defines the interface for output formatting
// Implementations include human-readable, JSON and progress bar formatters.
// Progress may be called concurrently for different destinations.
type Formatter interface {
	// Start initializes the formatter for a new sync operation
	Start(writer io.Writer, op *models.SyncOperation) error

	// Progress reports progress during sync
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays summary
	Complete(report *models.SyncReport) error

	// Error reports an error during sync
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter for format. When progress is set, human output
// uses a progress bar instead of per-item lines.
func New(format string, progress bool) (Formatter, error) {
	switch format {
	case "json":
		return NewJSONFormatter(), nil
	case "human", "":
		if progress {
			return NewProgressFormatter(), nil
		}
		return NewHumanFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
