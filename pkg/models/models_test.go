package models

import (
	"errors"
	"testing"
	"time"
)

func validOperation() *SyncOperation {
	return &SyncOperation{
		SourcePath: "/source",
		DestPaths:  []string{"/dest"},
		MaxWorkers: 5,
		BufferSize: 4096,
	}
}

func TestSyncOperationValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(op *SyncOperation)
		wantField string
	}{
		{"Valid", func(op *SyncOperation) {}, ""},
		{"EmptySourcePath", func(op *SyncOperation) { op.SourcePath = "" }, "SourcePath"},
		{"NoDestinations", func(op *SyncOperation) { op.DestPaths = nil }, "DestPaths"},
		{"EmptyDestination", func(op *SyncOperation) { op.DestPaths = []string{"/a", ""} }, "DestPaths"},
		{"ZeroWorkers", func(op *SyncOperation) { op.MaxWorkers = 0 }, "MaxWorkers"},
		{"SmallBufferSize", func(op *SyncOperation) { op.BufferSize = 512 }, "BufferSize"},
		{"NegativeBandwidth", func(op *SyncOperation) { op.BandwidthLimit = -1 }, "BandwidthLimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := validOperation()
			tt.mutate(op)
			err := op.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %s, want %s", ve.Field, tt.wantField)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "TestField", Message: "test message"}
	if err.Error() != "TestField: test message" {
		t.Errorf("Error() = %s", err.Error())
	}
}

func TestSyncStatusExitCode(t *testing.T) {
	tests := []struct {
		status SyncStatus
		want   int
	}{
		{StatusSuccess, 0},
		{StatusPartial, 1},
		{StatusFailed, 2},
		{StatusCancelled, 3},
		{SyncStatus("bogus"), 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSyncReportFinalize(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		statuses []SyncStatus
		want     SyncStatus
	}{
		{"AllSucceeded", []SyncStatus{StatusSuccess, StatusSuccess}, StatusSuccess},
		{"OneFailed", []SyncStatus{StatusSuccess, StatusFailed}, StatusPartial},
		{"AllFailed", []SyncStatus{StatusFailed, StatusFailed}, StatusFailed},
		{"Cancelled", []SyncStatus{StatusSuccess, StatusCancelled}, StatusCancelled},
		{"NoDestinations", nil, StatusSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &SyncReport{StartTime: start}
			for _, s := range tt.statuses {
				r.Destinations = append(r.Destinations, DestinationReport{Status: s})
			}
			r.Finalize(start.Add(3 * time.Second))

			if r.Status != tt.want {
				t.Errorf("Status = %s, want %s", r.Status, tt.want)
			}
			if r.Duration != 3*time.Second {
				t.Errorf("Duration = %v, want 3s", r.Duration)
			}
		})
	}

	t.Run("KeepsFailedStatus", func(t *testing.T) {
		r := &SyncReport{StartTime: start, Status: StatusFailed}
		r.Finalize(start)
		if r.Status != StatusFailed {
			t.Errorf("Status = %s, want failed", r.Status)
		}
	})
}

func TestSyncReportTotals(t *testing.T) {
	r := &SyncReport{Destinations: []DestinationReport{
		{Stats: Statistics{Added: 1, Equal: 2, Removed: 1}},
		{Stats: Statistics{Added: 2, ChangedTypes: 1, Excluded: 4}},
	}}

	got := r.Totals()
	want := Statistics{Added: 3, Equal: 2, Removed: 1, ChangedTypes: 1, Excluded: 4}
	if got != want {
		t.Errorf("Totals() = %+v, want %+v", got, want)
	}
	if got.Pending() != 5 {
		t.Errorf("Pending() = %d, want 5", got.Pending())
	}
}
