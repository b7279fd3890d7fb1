package hostfacts

import (
	"encoding/binary"
	"math"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/muurk/ubnt-discover/internal/protocol"
)

// Builder assembles reply packets from a fixed set of facts. Only the uptime
// changes between replies.
type Builder struct {
	Facts    Facts
	BootTime time.Time

	// Now is used to compute the uptime; defaults to time.Now
	Now func() time.Time
}

// NewBuilder returns a builder reporting uptime relative to bootTime
func NewBuilder(facts Facts, bootTime time.Time) *Builder {
	return &Builder{
		Facts:    facts,
		BootTime: bootTime,
		Now:      time.Now,
	}
}

// Uptime returns the whole seconds since BootTime, clamped to the uint32 range
func (b *Builder) Uptime() uint32 {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	secs := now().Sub(b.BootTime) / time.Second
	switch {
	case secs < 0:
		return 0
	case secs > math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(secs)
}

// Build returns a version 1, opcode 0 reply carrying, in order: uptime,
// hostname, MAC, MAC+IPv4 and platform.
func (b *Builder) Build() *protocol.Packet {
	// Lookup guarantees both; zero bytes keep the layout fixed if not.
	mac := make([]byte, 6)
	copy(mac, b.Facts.MAC)
	ip := make([]byte, 4)
	copy(ip, b.Facts.IPv4.To4())

	address := make([]byte, 0, 10)
	address = append(address, mac...)
	address = append(address, ip...)

	return protocol.NewPacket().
		Add(protocol.TypeUptime, binary.BigEndian.AppendUint32(nil, b.Uptime())).
		Add(protocol.TypeHostname, EncodeLatin1(b.Facts.Hostname)).
		Add(protocol.TypeMAC, mac).
		Add(protocol.TypeAddress, address).
		Add(protocol.TypeSoftware, EncodeLatin1(b.Facts.Platform))
}

// EncodeLatin1 encodes s as ISO-8859-1, replacing unsupported characters
func EncodeLatin1(s string) []byte {
	enc := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	b, err := enc.Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return b
}
