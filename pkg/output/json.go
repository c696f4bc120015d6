package output

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sdejongh/treesync/pkg/models"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct {
	writer    io.Writer
	startTime time.Time

	mu     sync.Mutex
	events []JSONEvent
}

// JSONEvent represents a single event recorded during the run
type JSONEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type"`
	Destination string    `json:"destination,omitempty"`
	Kind        string    `json:"kind,omitempty"`
	Path        string    `json:"path,omitempty"`
	Total       int       `json:"total,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// JSONReportData represents the final report
type JSONReportData struct {
	OperationID  string                `json:"operation_id"`
	Source       string                `json:"source"`
	DryRun       bool                  `json:"dry_run"`
	Status       string                `json:"status"`
	Duration     string                `json:"duration"`
	DurationMs   int64                 `json:"duration_ms"`
	SourceFiles  int                   `json:"source_files"`
	SourceDirs   int                   `json:"source_dirs"`
	Destinations []JSONDestinationData `json:"destinations"`
	Events       []JSONEvent           `json:"events,omitempty"`
}

// JSONDestinationData represents the outcome for one destination
type JSONDestinationData struct {
	Path        string               `json:"path"`
	Status      string               `json:"status"`
	DurationMs  int64                `json:"duration_ms"`
	Stats       JSONStatsData        `json:"stats"`
	Differences []JSONDifferenceData `json:"differences,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// JSONStatsData represents per-kind counts
type JSONStatsData struct {
	Added           int `json:"added"`
	ChangedContents int `json:"changed_contents"`
	ChangedTypes    int `json:"changed_types"`
	Equal           int `json:"equal"`
	Removed         int `json:"removed"`
	Excluded        int `json:"excluded"`
}

// JSONDifferenceData represents a path that differs
type JSONDifferenceData struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{
		events: make([]JSONEvent, 0),
	}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, op *models.SyncOperation) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.startTime = time.Now()

	f.record(JSONEvent{Type: "start", Total: len(op.DestPaths)})
	return nil
}

// Progress records destination level events. Per item events are left out
// to keep the output small.
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	switch update.Type {
	case UpdateDestinationStart, UpdateDestinationComplete:
		f.record(JSONEvent{Type: update.Type, Destination: update.Destination, Total: update.Total})
	case UpdateDestinationError:
		ev := JSONEvent{Type: update.Type, Destination: update.Destination}
		if update.Error != nil {
			ev.Error = update.Error.Error()
		}
		f.record(ev)
	}
	return nil
}

// Complete writes the report as one JSON document
func (f *JSONFormatter) Complete(report *models.SyncReport) error {
	if f.writer == nil {
		f.writer = io.Discard
	}

	f.mu.Lock()
	data := JSONReportData{
		OperationID: report.OperationID,
		Source:      report.SourcePath,
		DryRun:      report.DryRun,
		Status:      string(report.Status),
		Duration:    report.Duration.Round(time.Millisecond).String(),
		DurationMs:  report.Duration.Milliseconds(),
		SourceFiles: report.SourceFiles,
		SourceDirs:  report.SourceDirs,
		Events:      f.events,
	}
	f.mu.Unlock()

	data.Destinations = make([]JSONDestinationData, 0, len(report.Destinations))
	for _, d := range report.Destinations {
		dd := JSONDestinationData{
			Path:       d.DestPath,
			Status:     string(d.Status),
			DurationMs: d.Duration.Milliseconds(),
			Stats: JSONStatsData{
				Added:           d.Stats.Added,
				ChangedContents: d.Stats.ChangedContents,
				ChangedTypes:    d.Stats.ChangedTypes,
				Equal:           d.Stats.Equal,
				Removed:         d.Stats.Removed,
				Excluded:        d.Stats.Excluded,
			},
			Error: d.Error,
		}
		for _, diff := range d.Differences {
			dd.Differences = append(dd.Differences, JSONDifferenceData{Path: diff.Path, Kind: diff.Kind})
		}
		data.Destinations = append(data.Destinations, dd)
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Error reports an error
func (f *JSONFormatter) Error(err error) error {
	f.record(JSONEvent{Type: "error", Error: err.Error()})
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

func (f *JSONFormatter) record(ev JSONEvent) {
	ev.Timestamp = time.Now()
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
}
