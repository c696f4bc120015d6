package cli

import (
	"github.com/spf13/cobra"

	"github.com/sdejongh/treesync/pkg/logging"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	EnvFile    string
	Info       bool
	Debug      bool
	Quiet      bool
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/treesync/config.yaml)",
	)
	cmd.PersistentFlags().StringVar(
		&globalFlags.EnvFile,
		"env-file",
		".env",
		"file of TREESYNC_* variables loaded before the configuration",
	)
	cmd.PersistentFlags().BoolVar(
		&globalFlags.Info,
		"info",
		false,
		"log progress milestones",
	)
	cmd.PersistentFlags().BoolVar(
		&globalFlags.Debug,
		"debug",
		false,
		"log every item and the merged source tree",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}

// logLevel resolves the effective log level; the most verbose flag wins
func (f *GlobalFlags) logLevel(configured string) logging.Level {
	switch {
	case f.Debug:
		return logging.DebugLevel
	case f.Info:
		return logging.InfoLevel
	case f.Quiet:
		return logging.ErrorLevel
	default:
		return logging.ParseLevel(configured)
	}
}
