package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/ubnt-discover/internal/config"
	"github.com/muurk/ubnt-discover/internal/discovery"
	"github.com/muurk/ubnt-discover/internal/hostfacts"
	"github.com/muurk/ubnt-discover/internal/logging"
)

// Serve flags
var (
	serveTimeout    int
	bootTime        string
	persistBootTime bool
	advertiseMDNS   bool
	replyRate       float64
	replyBurst      int
	noMulticast     bool
)

func init() {
	serveCmd.Flags().IntVarP(&serveTimeout, "timeout", "t", 0, "Stop after this many seconds (0 = run until interrupted)")
	serveCmd.Flags().StringVar(&bootTime, "boot-time", "", `Uptime reference: "system", unix seconds or RFC3339 (default: now)`)
	serveCmd.Flags().BoolVar(&persistBootTime, "persist-boot-time", false, "Keep the boot time in the config file across restarts")
	serveCmd.Flags().BoolVar(&advertiseMDNS, "mdns", false, "Also advertise the responder over mDNS")
	serveCmd.Flags().Float64Var(&replyRate, "rate", 0, "Maximum replies per second (0 = unlimited)")
	serveCmd.Flags().IntVar(&replyBurst, "burst", 10, "Reply burst allowed above --rate")
	serveCmd.Flags().BoolVar(&noMulticast, "no-multicast", false, "Do not join the 233.89.188.1 multicast group")

	rootCmd.AddCommand(serveCmd)
}

// serveCmd answers discovery requests
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer discovery requests with facts about this host",
	Long: `Listen on UDP port 10001 and answer every discovery request with this
host's uptime, hostname, MAC address, IPv4 address and platform.

The advertised interface is the one holding the default route. Uptime counts
from --boot-time; without it, from the moment serve started. With
--persist-boot-time the reference is stored in the config file and reused on
the next start.`,
	Example: `  # Answer until Ctrl+C
  ubnt-discover serve

  # Report the kernel uptime and stop after one minute
  ubnt-discover serve --boot-time system -t 60

  # Keep uptime counting across restarts, throttle replies
  ubnt-discover serve --persist-boot-time --rate 5 --burst 20`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveTimeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	start := time.Now()
	log := logging.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	facts, err := hostfacts.Lookup(ctx)
	if err != nil {
		return fmt.Errorf("failed to look up host facts: %w", err)
	}
	log.Info("host facts",
		zap.String("hostname", facts.Hostname),
		zap.Stringer("mac", facts.MAC),
		zap.Stringer("ipv4", facts.IPv4),
		zap.String("platform", facts.Platform))

	boot, err := responderBootTime(ctx, registry, start)
	if err != nil {
		return err
	}

	conn, err := discovery.Listen(ctx, discovery.SocketConfig{
		JoinMulticast: !noMulticast,
		Log:           log,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	if advertiseMDNS {
		server, err := discovery.Advertise(facts, discovery.Port)
		if err != nil {
			return err
		}
		defer server.Shutdown()
		log.Info("advertising over mDNS", zap.String("service", discovery.ServiceType))
	}

	responder := discovery.NewResponder(conn, hostfacts.NewBuilder(facts, boot))
	responder.Timeout = time.Duration(serveTimeout) * time.Second
	responder.Limiter = discovery.NewLimiter(replyRate, replyBurst)
	responder.Log = log

	return responder.Serve(ctx)
}

// responderBootTime picks the uptime reference: --boot-time first, then a
// persisted value, then start. With --persist-boot-time the result is saved.
func responderBootTime(ctx context.Context, reg *config.Registry, start time.Time) (time.Time, error) {
	if bootTime == "" && persistBootTime {
		if t, ok := reg.BootTime(); ok {
			logging.Debug("using persisted boot time", zap.Time("boot_time", t))
			return t, nil
		}
	}

	boot, err := hostfacts.ResolveBootTime(ctx, bootTime, start)
	if err != nil {
		return time.Time{}, err
	}

	if persistBootTime {
		reg.SetBootTime(boot)
		if err := reg.Save(); err != nil {
			return time.Time{}, fmt.Errorf("failed to persist boot time: %w", err)
		}
	}
	return boot, nil
}
