package discovery

import (
	"encoding/json"
	"net"
	"strings"
	"testing"

	"github.com/muurk/ubnt-discover/internal/hostfacts"
	"github.com/muurk/ubnt-discover/internal/protocol"
)

func TestNewDevice(t *testing.T) {
	mac := net.HardwareAddr{0x24, 0xa4, 0x3c, 0x01, 0x02, 0x03}
	p := protocol.NewPacket().
		Add(protocol.TypeMAC, mac).
		Add(protocol.TypeAddress, append(append([]byte{}, mac...), 192, 168, 1, 20)).
		Add(protocol.TypeAddress, append(append([]byte{}, mac...), 10, 0, 0, 1)).
		Add(protocol.TypeHostname, []byte("ubnt")).
		Add(protocol.TypeModel, []byte("ER-X")).
		Add(protocol.TypeSoftware, []byte("EdgeRouter.ER-e50.v2.0.9")).
		Add(protocol.TypeUptime, []byte{0, 0, 0x0e, 0x10})

	d := NewDevice(p)

	tests := []struct {
		field string
		got   string
		want  string
	}{
		{"HWAddr", d.HWAddr, "24:A4:3C:01:02:03"},
		{"IPv4", d.IPv4, "192.168.1.20"},
		{"Hostname", d.Hostname, "ubnt"},
		{"Model", d.Model, "ER-X"},
		{"Firmware", d.Firmware, "EdgeRouter.ER-e50.v2.0.9"},
		{"Uptime", d.Uptime, "3600 seconds"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, tt.got, tt.want)
		}
	}

	wantAddrs := []string{
		"hwaddr: 24:A4:3C:01:02:03, ipv4: 192.168.1.20",
		"hwaddr: 24:A4:3C:01:02:03, ipv4: 10.0.0.1",
	}
	if len(d.Addresses) != len(wantAddrs) {
		t.Fatalf("Addresses = %v", d.Addresses)
	}
	for i := range wantAddrs {
		if d.Addresses[i] != wantAddrs[i] {
			t.Errorf("Addresses[%d] = %q, want %q", i, d.Addresses[i], wantAddrs[i])
		}
	}
	if d.Packet != p {
		t.Error("Packet not kept")
	}
}

func TestNewDeviceUniFiFallbacks(t *testing.T) {
	p := protocol.NewPacket().
		Add(protocol.TypeMACUniFi, []byte{1, 2, 3, 4, 5, 6}).
		Add(protocol.TypeModelUniFi, []byte("U6-Lite")).
		Add(protocol.TypeAddress, []byte{1, 2, 3}) // too short

	d := NewDevice(p)
	if d.HWAddr != "01:02:03:04:05:06" {
		t.Errorf("HWAddr = %q", d.HWAddr)
	}
	if d.Model != "U6-Lite" {
		t.Errorf("Model = %q", d.Model)
	}
	if d.IPv4 != "" {
		t.Errorf("IPv4 = %q, want empty for a short address", d.IPv4)
	}
	if len(d.Addresses) != 1 || !strings.HasPrefix(d.Addresses[0], "invalid (3 bytes)") {
		t.Errorf("Addresses = %v", d.Addresses)
	}
}

func TestDeviceString(t *testing.T) {
	tests := []struct {
		name string
		d    Device
		want string
	}{
		{"full", Device{Hostname: "gw", Model: "ER-X", IPv4: "10.0.0.1", HWAddr: "AA:BB:CC:DD:EE:FF"}, "gw [ER-X] at 10.0.0.1 (AA:BB:CC:DD:EE:FF)"},
		{"bare", Device{}, "(unnamed)"},
		{"no model", Device{Hostname: "ap", IPv4: "10.0.0.2"}, "ap at 10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeviceJSONOmitsPacket(t *testing.T) {
	d := NewDevice(devicePacket(macA, "10.0.0.1", "a"))
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(b), "Packet") || strings.Contains(string(b), "TLVs") {
		t.Errorf("JSON leaks the packet: %s", b)
	}
	if !strings.Contains(string(b), `"ipv4":"10.0.0.1"`) {
		t.Errorf("JSON = %s", b)
	}
}

func TestTxtRecords(t *testing.T) {
	facts := hostfacts.Facts{
		Hostname: "host",
		MAC:      net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01},
		IPv4:     net.ParseIP("192.168.1.5"),
		Platform: "linux-6.1",
	}
	want := []string{"protocol=1", "hwaddr=de:ad:be:ef:00:01", "ipv4=192.168.1.5", "platform=linux-6.1"}

	got := txtRecords(facts)
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("txtRecords() = %v, want %v", got, want)
	}

	if got := txtRecords(hostfacts.Facts{}); len(got) != 1 {
		t.Errorf("txtRecords(empty) = %v, want only the protocol record", got)
	}
}
