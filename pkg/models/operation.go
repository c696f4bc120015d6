package models

import (
	"time"
)

// SyncOperation represents one replace pass from a source into destinations
type SyncOperation struct {
	ID         string
	SourcePath string
	DestPaths  []string
	// Files lists the source-relative paths to copy. Nil means every file
	// under the source not matched by IgnorePatterns.
	Files           []string
	ExcludePatterns []string
	IgnorePatterns  []string
	DryRun          bool
	MaxWorkers      int
	BandwidthLimit  int64 // bytes per second, 0 = unlimited
	BufferSize      int
	CreatedAt       time.Time
}

// Validate checks if the operation configuration is valid
func (op *SyncOperation) Validate() error {
	if op.SourcePath == "" {
		return &ValidationError{Field: "SourcePath", Message: "source path is required"}
	}
	if len(op.DestPaths) == 0 {
		return &ValidationError{Field: "DestPaths", Message: "at least one destination path is required"}
	}
	for _, d := range op.DestPaths {
		if d == "" {
			return &ValidationError{Field: "DestPaths", Message: "destination paths must not be empty"}
		}
	}
	if op.MaxWorkers < 1 {
		return &ValidationError{Field: "MaxWorkers", Message: "max workers must be at least 1"}
	}
	if op.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	if op.BandwidthLimit < 0 {
		return &ValidationError{Field: "BandwidthLimit", Message: "bandwidth limit must not be negative"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
