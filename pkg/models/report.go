package models

import (
	"time"
)

// SyncReport represents the results of a sync operation
type SyncReport struct {
	OperationID string
	SourcePath  string
	DryRun      bool

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Source tree size after filtering to the file list
	SourceFiles int
	SourceDirs  int

	Destinations []DestinationReport

	Status SyncStatus
}

// DestinationReport holds the outcome for one destination
type DestinationReport struct {
	DestPath    string
	Stats       Statistics
	Differences []Difference
	Duration    time.Duration
	Status      SyncStatus
	Error       string
}

// Statistics counts diff results per classification
type Statistics struct {
	Added           int
	ChangedContents int
	ChangedTypes    int
	Equal           int
	Removed         int
	Excluded        int // files protected by exclusion globs
}

// Pending returns the number of operations the destination needs
func (s Statistics) Pending() int {
	return s.Added + s.ChangedContents + s.ChangedTypes + s.Removed
}

// Difference is one path that does not match between source and destination
type Difference struct {
	Path string
	Kind string
}

// SyncStatus represents the overall result
type SyncStatus string

const (
	// StatusSuccess indicates all operations completed successfully
	StatusSuccess SyncStatus = "success"
	// StatusPartial indicates some destinations failed
	StatusPartial SyncStatus = "partial"
	// StatusFailed indicates the sync operation failed
	StatusFailed SyncStatus = "failed"
	// StatusCancelled indicates the operation was cancelled
	StatusCancelled SyncStatus = "cancelled"
)

// ExitCode returns the appropriate exit code for the sync status
func (s SyncStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}

// Finalize stamps the end time and derives the overall status from the
// destination statuses
func (r *SyncReport) Finalize(end time.Time) {
	r.EndTime = end
	r.Duration = end.Sub(r.StartTime)

	if r.Status == StatusCancelled || r.Status == StatusFailed {
		return
	}

	var ok, failed int
	for _, d := range r.Destinations {
		switch d.Status {
		case StatusSuccess:
			ok++
		case StatusCancelled:
			r.Status = StatusCancelled
			return
		default:
			failed++
		}
	}

	switch {
	case failed == 0:
		r.Status = StatusSuccess
	case ok == 0:
		r.Status = StatusFailed
	default:
		r.Status = StatusPartial
	}
}

// Totals sums the statistics of every destination
func (r *SyncReport) Totals() Statistics {
	var t Statistics
	for _, d := range r.Destinations {
		t.Added += d.Stats.Added
		t.ChangedContents += d.Stats.ChangedContents
		t.ChangedTypes += d.Stats.ChangedTypes
		t.Equal += d.Stats.Equal
		t.Removed += d.Stats.Removed
		t.Excluded += d.Stats.Excluded
	}
	return t
}
