package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/ubnt-discover/internal/config"
	"github.com/muurk/ubnt-discover/internal/discovery"
	"github.com/muurk/ubnt-discover/internal/logging"
	"github.com/muurk/ubnt-discover/internal/protocol"
	"github.com/muurk/ubnt-discover/internal/render"
	"github.com/muurk/ubnt-discover/internal/tui"
)

// Scan flags
var (
	scanTimeout int
	displayMode string
	colorMode   string
)

// Browse flags
var browseTimeout int

func init() {
	rootCmd.Flags().IntVarP(&scanTimeout, "timeout", "t", config.DefaultTimeout, "Seconds to collect replies (must be > 0)")
	rootCmd.Flags().StringVarP(&displayMode, "mode", "m", config.DefaultDisplayMode, "Display mode (oneline, edge, everything, json)")
	rootCmd.Flags().StringVar(&colorMode, "color", "auto", "Colorize output (auto, always, never)")

	browseCmd.Flags().IntVarP(&browseTimeout, "timeout", "t", config.DefaultTimeout, "Seconds to collect replies per scan (must be > 0)")

	rootCmd.AddCommand(browseCmd)
}

// errInvalidTimeout is reported before any socket is opened
var errInvalidTimeout = errors.New("timeout must be a positive number of seconds")

func runScan(cmd *cobra.Command, args []string) error {
	if scanTimeout <= 0 {
		return errInvalidTimeout
	}
	mode, err := render.ParseMode(displayMode)
	if err != nil {
		return err
	}
	color, err := colorEnabled(colorMode, os.Stdout)
	if err != nil {
		return err
	}

	packets, err := scan(cmd.Context(), time.Duration(scanTimeout)*time.Second, logging.GetLogger())
	if err != nil {
		return err
	}

	return render.Write(cmd.OutOrStdout(), mode, packets, render.Options{Color: color})
}

// scan opens the discovery socket, runs one client session and closes it
func scan(ctx context.Context, timeout time.Duration, log *zap.Logger) ([]*protocol.Packet, error) {
	conn, err := discovery.Listen(ctx, discovery.SocketConfig{Log: log})
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	client := discovery.NewClient(conn)
	client.Timeout = timeout
	client.Log = log

	packets, err := client.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return packets, nil
}

// colorEnabled resolves --color against the output file
func colorEnabled(mode string, out *os.File) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		return term.IsTerminal(int(out.Fd())), nil
	default:
		return false, fmt.Errorf("invalid --color %q: must be auto, always or never", mode)
	}
}

// browseCmd shows an interactive device list
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse discovered devices interactively",
	Long: `Scan in the background and show the devices in an interactive list.

Keys: ↑/↓ to move, enter to show every TLV of the selected device,
r to rescan, q to quit.`,
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if browseTimeout <= 0 {
		return errInvalidTimeout
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("browse needs an interactive terminal; use the default scan instead")
	}

	timeout := time.Duration(browseTimeout) * time.Second
	// Log output would tear the screen
	quiet := zap.NewNop()

	return tui.Run(cmd.Context(), func(ctx context.Context) ([]*protocol.Packet, error) {
		return scan(ctx, timeout, quiet)
	}, timeout)
}
