package discovery

import (
	"fmt"
	"net"
	"strings"

	"github.com/muurk/ubnt-discover/internal/protocol"
)

// Device is a summary of a discovery reply
type Device struct {
	// HWAddr is the MAC address tuple (0x01, or 0x13 on UniFi gear)
	HWAddr string `json:"hwaddr"`

	// IPv4 is taken from the first address tuple
	IPv4 string `json:"ipv4"`

	// Addresses holds every address tuple, rendered
	Addresses []string `json:"addresses,omitempty"`

	Hostname string `json:"hostname"`
	Model    string `json:"model,omitempty"`
	Firmware string `json:"firmware,omitempty"`
	Uptime   string `json:"uptime,omitempty"`

	// Packet is the reply the summary was built from
	Packet *protocol.Packet `json:"-"`
}

// NewDevice summarizes a reply packet. Missing tuples leave fields empty.
func NewDevice(p *protocol.Packet) *Device {
	d := &Device{Packet: p}
	for _, t := range p.TLVs {
		switch t.Type {
		case protocol.TypeHostname:
			d.Hostname = t.ValueString()
		case protocol.TypeModel:
			d.Model = t.ValueString()
		case protocol.TypeModelUniFi:
			if d.Model == "" {
				d.Model = t.ValueString()
			}
		case protocol.TypeMAC:
			d.HWAddr = t.ValueString()
		case protocol.TypeMACUniFi:
			if d.HWAddr == "" {
				d.HWAddr = t.ValueString()
			}
		case protocol.TypeAddress:
			d.Addresses = append(d.Addresses, t.ValueString())
			if d.IPv4 == "" {
				d.IPv4 = addressIPv4(t.Value)
			}
		case protocol.TypeSoftware:
			d.Firmware = t.ValueString()
		case protocol.TypeUptime:
			d.Uptime = t.ValueString()
		}
	}
	return d
}

// NewDevices summarizes each packet
func NewDevices(packets []*protocol.Packet) []*Device {
	devices := make([]*Device, 0, len(packets))
	for _, p := range packets {
		devices = append(devices, NewDevice(p))
	}
	return devices
}

func addressIPv4(v []byte) string {
	if len(v) < 10 {
		return ""
	}
	return net.IP(v[6:10]).String()
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	var b strings.Builder
	name := d.Hostname
	if name == "" {
		name = "(unnamed)"
	}
	b.WriteString(name)
	if d.Model != "" {
		fmt.Fprintf(&b, " [%s]", d.Model)
	}
	if d.IPv4 != "" {
		b.WriteString(" at " + d.IPv4)
	}
	if d.HWAddr != "" {
		b.WriteString(" (" + d.HWAddr + ")")
	}
	return b.String()
}
