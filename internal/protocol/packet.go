package protocol

import (
	"encoding/binary"
	"strconv"
	"strings"
)

// Protocol constants
const (
	// HeaderSize is the size of the version, opcode and length header
	HeaderSize = 4

	// Version1 is the only protocol version in use
	Version1 = 1

	// OpcodeRequest is used by discovery requests and device announcements
	OpcodeRequest = 0
	// OpcodeResponseAlt is an alternate response opcode seen from some devices
	OpcodeResponseAlt = 6
)

// Packet is a single discovery datagram
type Packet struct {
	Version uint8
	Opcode  uint8
	TLVs    []Tuple
}

// NewPacket returns an empty version 1 request packet
func NewPacket() *Packet {
	return &Packet{
		Version: Version1,
		Opcode:  OpcodeRequest,
	}
}

// Decode parses a received datagram. The returned packet does not share
// memory with b.
func Decode(b []byte) (*Packet, error) {
	if len(b) < HeaderSize {
		return nil, decodeErrorf(KindHeaderTooShort,
			"%d bytes vs %d bytes minimum", len(b), HeaderSize)
	}

	pkt := &Packet{
		Version: b[0],
		Opcode:  b[1],
	}
	length := int(binary.BigEndian.Uint16(b[2:4]))
	if length+HeaderSize != len(b) {
		return nil, decodeErrorf(KindLengthMismatch,
			"%d bytes expected vs %d received", length+HeaderSize, len(b))
	}

	payload := b[HeaderSize:]
	for len(payload) >= TLVHeaderSize {
		t, n, err := DecodeTuple(payload)
		if err != nil {
			return nil, err
		}
		pkt.TLVs = append(pkt.TLVs, t)
		payload = payload[n:]
	}
	if len(payload) > 0 {
		return nil, decodeErrorf(KindTrailingBytes,
			"%d bytes left behind TLVs", len(payload))
	}

	return pkt, nil
}

// Add appends a tuple and returns the packet for chaining
func (p *Packet) Add(typ uint8, value []byte) *Packet {
	p.TLVs = append(p.TLVs, Tuple{Type: typ, Value: value})
	return p
}

// PayloadSize returns the encoded size of all tuples
func (p *Packet) PayloadSize() int {
	n := 0
	for _, t := range p.TLVs {
		n += t.Size()
	}
	return n
}

// Encode returns the wire form of the packet
func (p *Packet) Encode() []byte {
	size := p.PayloadSize()
	b := make([]byte, 0, HeaderSize+size)
	b = append(b, p.Version, p.Opcode)
	b = binary.BigEndian.AppendUint16(b, uint16(size))
	for _, t := range p.TLVs {
		b = t.AppendTo(b)
	}
	return b
}

// Find returns the first tuple of the given type
func (p *Packet) Find(typ uint8) (Tuple, bool) {
	for _, t := range p.TLVs {
		if t.Type == typ {
			return t, true
		}
	}
	return Tuple{}, false
}

// Identifier returns the rendering of the first address (0x02) tuple. It is
// the key used to tell devices apart; ok is false when the packet carries no
// address tuple.
func (p *Packet) Identifier() (id string, ok bool) {
	t, ok := p.Find(TypeAddress)
	if !ok {
		return "", false
	}
	return t.String(), true
}

// IsRequest reports whether the packet is a version 1 discovery request
func (p *Packet) IsRequest() bool {
	return p.Version == Version1 && p.Opcode == OpcodeRequest
}

// IsResponse reports whether the packet looks like a device reply: a known
// response opcode and more than two tuples.
func (p *Packet) IsResponse() bool {
	return (p.Opcode == OpcodeRequest || p.Opcode == OpcodeResponseAlt) && len(p.TLVs) > 2
}

// String returns a multi-line dump of the header and every tuple
func (p *Packet) String() string {
	var b strings.Builder
	b.WriteString("Version: " + strconv.Itoa(int(p.Version)) + "\n")
	b.WriteString("Opcode: " + strconv.Itoa(int(p.Opcode)) + "\n")
	for _, t := range p.TLVs {
		b.WriteString(t.String())
		b.WriteByte('\n')
	}
	return b.String()
}
