package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sdejongh/treesync/pkg/diff"
	"github.com/sdejongh/treesync/pkg/models"
)

var kindLabels = map[diff.Kind]string{
	diff.Added:           "Added",
	diff.ChangedContents: "Changed Contents",
	diff.ChangedTypes:    "Changed Types",
	diff.Removed:         "Removed",
}

// HasDifferences reports whether any destination has a pending difference
func HasDifferences(report *models.SyncReport) bool {
	for _, d := range report.Destinations {
		if len(d.Differences) > 0 {
			return true
		}
	}
	return false
}

// WriteDifferencesReport writes the differences report to a file
// Format can be "human" or "json"
func WriteDifferencesReport(report *models.SyncReport, filepath string, format string) error {
	if !HasDifferences(report) {
		// No differences - don't create empty file
		return nil
	}

	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create differences file: %w", err)
	}
	defer file.Close()

	return WriteDifferences(file, report, format)
}

// WriteDifferences writes the differences report to w
func WriteDifferences(w io.Writer, report *models.SyncReport, format string) error {
	switch format {
	case "json":
		return writeDifferencesJSON(report, w)
	default: // "human"
		return writeDifferencesHuman(report, w)
	}
}

// writeDifferencesHuman writes differences in human-readable format
func writeDifferencesHuman(report *models.SyncReport, w io.Writer) error {
	fmt.Fprintf(w, "Differences Report\n")
	fmt.Fprintf(w, "==================\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Source: %s\n", report.SourcePath)
	fmt.Fprintf(w, "Dry Run: %v\n\n", report.DryRun)

	for _, dest := range report.Destinations {
		if len(dest.Differences) == 0 {
			continue
		}

		fmt.Fprintf(w, "Destination: %s\n", dest.DestPath)
		fmt.Fprintf(w, "Total Differences: %d\n\n", len(dest.Differences))

		byKind := make(map[diff.Kind][]string)
		for _, d := range dest.Differences {
			k := diff.Kind(d.Kind)
			byKind[k] = append(byKind[k], d.Path)
		}

		for _, kind := range diff.Kinds {
			paths := byKind[kind]
			if len(paths) == 0 {
				continue
			}

			label := fmt.Sprintf("%s (%d)", kindLabels[kind], len(paths))
			fmt.Fprintf(w, "%s\n", label)
			fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(label)))
			for _, p := range paths {
				fmt.Fprintf(w, "  %s\n", p)
			}
			fmt.Fprintf(w, "\n")
		}
	}

	return nil
}

// writeDifferencesJSON writes differences in JSON format
func writeDifferencesJSON(report *models.SyncReport, w io.Writer) error {
	type destination struct {
		Path        string               `json:"path"`
		TotalCount  int                  `json:"total_count"`
		Differences []JSONDifferenceData `json:"differences"`
	}

	output := struct {
		Generated    string        `json:"generated"`
		SourcePath   string        `json:"source_path"`
		DryRun       bool          `json:"dry_run"`
		Destinations []destination `json:"destinations"`
	}{
		Generated:  time.Now().Format(time.RFC3339),
		SourcePath: report.SourcePath,
		DryRun:     report.DryRun,
	}

	for _, d := range report.Destinations {
		if len(d.Differences) == 0 {
			continue
		}
		dest := destination{Path: d.DestPath, TotalCount: len(d.Differences)}
		for _, item := range d.Differences {
			dest.Differences = append(dest.Differences, JSONDifferenceData{Path: item.Path, Kind: item.Kind})
		}
		output.Destinations = append(output.Destinations, dest)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
