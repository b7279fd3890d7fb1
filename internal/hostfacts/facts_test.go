package hostfacts

import (
	"errors"
	"net"
	"testing"

	"github.com/shirou/gopsutil/v4/host"
)

func ipnet(s string) *net.IPNet {
	ip, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	n.IP = ip
	return n
}

func TestPickInterface(t *testing.T) {
	lo := netInterface{
		Name:  "lo",
		Flags: net.FlagUp | net.FlagLoopback,
		Addrs: []net.Addr{ipnet("127.0.0.1/8")},
	}
	eth0 := netInterface{
		Name:         "eth0",
		Flags:        net.FlagUp,
		HardwareAddr: net.HardwareAddr{0, 1, 2, 3, 4, 5},
		Addrs:        []net.Addr{ipnet("fe80::1/64"), ipnet("10.0.0.5/24")},
	}
	wlan0 := netInterface{
		Name:         "wlan0",
		Flags:        net.FlagUp,
		HardwareAddr: net.HardwareAddr{6, 7, 8, 9, 10, 11},
		Addrs:        []net.Addr{ipnet("192.168.1.20/24")},
	}
	down := netInterface{
		Name:         "eth1",
		HardwareAddr: net.HardwareAddr{1, 1, 1, 1, 1, 1},
		Addrs:        []net.Addr{ipnet("172.16.0.1/16")},
	}
	tun := netInterface{
		Name:  "tun0",
		Flags: net.FlagUp,
		Addrs: []net.Addr{ipnet("10.8.0.1/24")},
	}

	tests := []struct {
		name      string
		ifaces    []netInterface
		preferred net.IP
		wantMAC   string
		wantIP    string
		wantErr   error
	}{
		{"first usable", []netInterface{lo, down, tun, eth0, wlan0}, nil, "00:01:02:03:04:05", "10.0.0.5", nil},
		{"default route wins", []netInterface{eth0, wlan0}, net.ParseIP("192.168.1.20"), "06:07:08:09:0a:0b", "192.168.1.20", nil},
		{"unknown preferred falls back", []netInterface{eth0}, net.ParseIP("1.2.3.4"), "00:01:02:03:04:05", "10.0.0.5", nil},
		{"nothing usable", []netInterface{lo, down, tun}, nil, "", "", ErrNoInterface},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mac, ip, err := pickInterface(tt.ifaces, tt.preferred)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("pickInterface() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if mac.String() != tt.wantMAC {
				t.Errorf("mac = %s, want %s", mac, tt.wantMAC)
			}
			if ip.String() != tt.wantIP {
				t.Errorf("ip = %s, want %s", ip, tt.wantIP)
			}
		})
	}
}

func TestPlatformString(t *testing.T) {
	tests := []struct {
		name string
		info host.InfoStat
		want string
	}{
		{
			name: "linux distro",
			info: host.InfoStat{OS: "linux", KernelVersion: "6.1.0", KernelArch: "x86_64", Platform: "debian", PlatformVersion: "12"},
			want: "linux-6.1.0-x86_64-with-debian-12",
		},
		{
			name: "no distro",
			info: host.InfoStat{OS: "freebsd", KernelVersion: "14.0", KernelArch: "amd64"},
			want: "freebsd-14.0-amd64",
		},
		{
			name: "missing kernel",
			info: host.InfoStat{OS: "plan9", Platform: "9front"},
			want: "plan9-with-9front",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := platformString(&tt.info); got != tt.want {
				t.Errorf("platformString() = %q, want %q", got, tt.want)
			}
		})
	}
}
