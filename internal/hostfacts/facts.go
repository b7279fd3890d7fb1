// Package hostfacts gathers facts about the local host and turns them into
// discovery reply packets.
package hostfacts

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackpal/gateway"
	"github.com/shirou/gopsutil/v4/host"
)

// Facts describes the host as advertised in discovery replies
type Facts struct {
	Hostname string
	MAC      net.HardwareAddr
	IPv4     net.IP
	Platform string
}

// ErrNoInterface is returned when no interface has both a MAC and an IPv4 address
var ErrNoInterface = errors.New("hostfacts: no interface with a MAC and IPv4 address")

// Lookup resolves the host facts. The advertised interface is the one
// holding the default route when it can be found, otherwise the first
// running non-loopback interface with a 6-byte MAC and an IPv4 address.
func Lookup(ctx context.Context) (Facts, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return Facts{}, fmt.Errorf("failed to read host info: %w", err)
	}

	ifaces, err := listInterfaces()
	if err != nil {
		return Facts{}, fmt.Errorf("failed to list interfaces: %w", err)
	}

	// A missing default route is normal on isolated segments.
	preferred, _ := gateway.DiscoverInterface()

	mac, ip, err := pickInterface(ifaces, preferred)
	if err != nil {
		return Facts{}, err
	}

	return Facts{
		Hostname: info.Hostname,
		MAC:      mac,
		IPv4:     ip,
		Platform: platformString(info),
	}, nil
}

// platformString mimics the "<system>-<release>-<machine>-with-<distro>"
// form devices expect in the software tuple.
func platformString(info *host.InfoStat) string {
	parts := []string{info.OS, info.KernelVersion, info.KernelArch}
	s := strings.Join(nonEmpty(parts), "-")
	if info.Platform != "" {
		distro := info.Platform
		if info.PlatformVersion != "" {
			distro += "-" + info.PlatformVersion
		}
		s += "-with-" + distro
	}
	return s
}

func nonEmpty(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// netInterface is the subset of an interface that pickInterface looks at
type netInterface struct {
	Name         string
	Flags        net.Flags
	HardwareAddr net.HardwareAddr
	Addrs        []net.Addr
}

func listInterfaces() ([]netInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]netInterface, 0, len(ifaces))
	for _, ifi := range ifaces {
		addrs, err := ifi.Addrs()
		if err != nil {
			continue
		}
		out = append(out, netInterface{
			Name:         ifi.Name,
			Flags:        ifi.Flags,
			HardwareAddr: ifi.HardwareAddr,
			Addrs:        addrs,
		})
	}
	return out, nil
}

func pickInterface(ifaces []netInterface, preferred net.IP) (net.HardwareAddr, net.IP, error) {
	var fallbackMAC net.HardwareAddr
	var fallbackIP net.IP

	for _, ifi := range ifaces {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagLoopback != 0 || len(ifi.HardwareAddr) != 6 {
			continue
		}
		for _, addr := range ifi.Addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil {
				continue
			}
			if preferred != nil && ip4.Equal(preferred) {
				return ifi.HardwareAddr, ip4, nil
			}
			if fallbackIP == nil {
				fallbackMAC, fallbackIP = ifi.HardwareAddr, ip4
			}
		}
	}

	if fallbackIP == nil {
		return nil, nil, ErrNoInterface
	}
	return fallbackMAC, fallbackIP, nil
}
