package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// Stamped by cmd/treesync from its ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the treesync build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeVersion(cmd.OutOrStdout(), short)
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")

	return cmd
}

func writeVersion(w io.Writer, short bool) error {
	if short {
		_, err := fmt.Fprintln(w, Version)
		return err
	}
	_, err := fmt.Fprintf(w, "treesync %s (commit %s, built %s, %s %s/%s)\n",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return err
}
