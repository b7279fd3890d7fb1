package discovery

import (
	"fmt"

	"github.com/grandcat/zeroconf"

	"github.com/muurk/ubnt-discover/internal/hostfacts"
)

const (
	// ServiceType is the mDNS service type a responder advertises
	ServiceType = "_ubnt-discovery._udp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."
)

// Advertise registers the responder over mDNS so it can be found by tools
// that do not speak the discovery protocol. Call Shutdown on the returned
// server to withdraw the record.
func Advertise(facts hostfacts.Facts, port int) (*zeroconf.Server, error) {
	instance := facts.Hostname
	if instance == "" {
		instance = "ubnt-discover"
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txtRecords(facts), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return server, nil
}

// txtRecords describes the host in "key=value" form
func txtRecords(facts hostfacts.Facts) []string {
	txt := []string{"protocol=1"}
	if len(facts.MAC) > 0 {
		txt = append(txt, "hwaddr="+facts.MAC.String())
	}
	if ip := facts.IPv4.To4(); ip != nil {
		txt = append(txt, "ipv4="+ip.String())
	}
	if facts.Platform != "" {
		txt = append(txt, "platform="+facts.Platform)
	}
	return txt
}
