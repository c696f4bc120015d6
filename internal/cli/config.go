package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sdejongh/treesync/pkg/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the treesync configuration file.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration, environment overrides included",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			bandwidth := "unlimited"
			if cfg.Performance.BandwidthLimit > 0 {
				bandwidth = humanize.IBytes(uint64(cfg.Performance.BandwidthLimit)) + "/s"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Destinations: %s\n", strings.Join(cfg.Sync.Destinations, ", "))
			fmt.Fprintf(out, "Exclude: %s\n", strings.Join(cfg.Sync.Exclude, ", "))
			fmt.Fprintf(out, "Ignore: %s\n", strings.Join(cfg.Sync.Ignore, ", "))
			fmt.Fprintf(out, "Max Workers: %d\n", cfg.Performance.MaxWorkers)
			fmt.Fprintf(out, "Buffer Size: %s\n", humanize.IBytes(uint64(cfg.Performance.BufferSize)))
			fmt.Fprintf(out, "Bandwidth Limit: %s\n", bandwidth)
			fmt.Fprintf(out, "Output Format: %s\n", cfg.Output.Format)
			fmt.Fprintf(out, "Log Format: %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "Log Level: %s\n", cfg.Logging.Level)
			fmt.Fprintf(out, "Watch Debounce: %s\n", cfg.Watch.Debounce)

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}

			cfg := config.Default()
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}
}
