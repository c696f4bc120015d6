package cli

import (
	"github.com/spf13/cobra"

	"github.com/sdejongh/treesync/pkg/config"
)

// NewRootCommand assembles the treesync command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treesync",
		Short: "Replace directory trees with an explicit list of source files",
		Long: `treesync replaces the contents of one or more destination directories with an
explicit list of files from a source directory, leaving excluded destination
paths (node_modules, .git by default) untouched.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadEnvFile(globalFlags.EnvFile)
		},
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewSyncCommand())
	rootCmd.AddCommand(NewCompareCommand())
	rootCmd.AddCommand(NewWatchCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
