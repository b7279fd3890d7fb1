// Ubnt-discover finds Ubiquiti devices on the local network and can answer
// their discovery requests itself.
//
// It speaks the vendor's UDP discovery protocol on port 10001: a request is
// sent to the broadcast address and to the multicast group 233.89.188.1 and
// every device that answers within the timeout is listed once.
//
// Usage:
//
//	ubnt-discover [flags]
//	ubnt-discover serve [flags]
//	ubnt-discover browse [flags]
//
// See 'ubnt-discover --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/ubnt-discover/internal/config"
	"github.com/muurk/ubnt-discover/internal/logging"
	"github.com/muurk/ubnt-discover/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	verbose  bool
	logLevel string
)

// registry is loaded before any command runs
var registry *config.Registry

var rootCmd = &cobra.Command{
	Use:   "ubnt-discover",
	Short: "Ubiquiti device discovery tool",
	Long: `Discover Ubiquiti devices on the local network.

Sends a discovery request to 255.255.255.255 and 233.89.188.1 on UDP port
10001, collects replies until the timeout elapses and prints every device
once.

Use 'serve' to answer discovery requests with facts about this host, or
'browse' for an interactive device list.`,
	Example: `  # Scan for 11 seconds and print one line per device
  ubnt-discover

  # EdgeOS style detail output after a 5 second scan
  ubnt-discover -t 5 -m edge

  # Every TLV of every reply, with debug logging on stderr
  ubnt-discover -m everything -v`,
	Version:           version.Get().Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runScan,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error, silent)")

	rootCmd.AddCommand(versionCmd)
}

// setup loads the registry, applies stored preferences to flags the user
// did not set and initializes logging.
func setup(cmd *cobra.Command, args []string) error {
	reg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	registry = reg

	applyPreferences(cmd, reg.Preferences)

	level := logLevel
	if verbose {
		level = "debug"
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}

	path, _ := config.GetConfigPath()
	logging.Debug("configuration loaded", zap.String("path", path))
	return nil
}

// applyPreferences fills unset flags from the registry preferences
func applyPreferences(cmd *cobra.Command, prefs *config.Preferences) {
	if prefs == nil {
		return
	}

	set := func(name, value string) {
		f := cmd.Flags().Lookup(name)
		if f == nil || f.Changed || value == "" {
			return
		}
		_ = f.Value.Set(value)
	}

	set("log-level", prefs.LogLevel)
	set("mode", prefs.DisplayMode)
	if cmd.Name() != "serve" && prefs.Timeout > 0 {
		set("timeout", fmt.Sprint(prefs.Timeout))
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ubnt-discover %s\n", version.Full())
	},
}
