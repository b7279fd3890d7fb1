package protocol

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"

	"golang.org/x/text/encoding/charmap"
)

// TLVHeaderSize is the size of the type and length prefix of every tuple
const TLVHeaderSize = 3

// TLV type codes (best guess, collected from device captures)
const (
	TypeMAC             = 0x01
	TypeAddress         = 0x02 // 6-byte MAC followed by IPv4
	TypeSoftware        = 0x03
	TypeUsername        = 0x06
	TypeSalt            = 0x07
	TypeChallenge       = 0x08
	TypeUptime          = 0x0a
	TypeHostname        = 0x0b
	TypeModel           = 0x0c
	TypeESSID           = 0x0d
	TypeWMode           = 0x0e
	TypeCounter         = 0x12
	TypeMACUniFi        = 0x13
	TypeModelUniFi      = 0x15
	TypeFirmware        = 0x16
	TypeUnknownUniFi17  = 0x17
	TypeUnknownUniFi18  = 0x18
	TypeDHCPEnabled     = 0x19
	TypeUnknownUniFi1A  = 0x1a
	TypeMinFirmware     = 0x1b
	addressValueMinSize = 10
)

// labels maps type codes to descriptive labels. Types missing here render
// as "unknown".
var labels = map[uint8]string{
	TypeMAC:            "MAC address",
	TypeAddress:        "address",
	TypeSoftware:       "software",
	TypeUsername:       "username",
	TypeSalt:           "salt",
	TypeChallenge:      "challenge",
	TypeUptime:         "uptime",
	TypeHostname:       "hostname",
	TypeModel:          "model name",
	TypeESSID:          "essid",
	TypeWMode:          "wmode",
	TypeCounter:        "counter",
	TypeMACUniFi:       "MAC address (UniFi)",
	TypeModelUniFi:     "model name (UniFi)",
	TypeFirmware:       "firmware revision",
	TypeUnknownUniFi17: "unknown (UniFi)",
	TypeUnknownUniFi18: "unknown (UniFi)",
	TypeDHCPEnabled:    "DHCP enabled (UniFi)",
	TypeUnknownUniFi1A: "unknown (UniFi)",
	TypeMinFirmware:    "min firmware (UniFi)",
}

// valueKind selects how a tuple value is turned into text
type valueKind int

const (
	kindRaw valueKind = iota
	kindText
	kindMAC
	kindAddress
	kindSeconds
	kindUint32
	kindBool
)

var valueKinds = map[uint8]valueKind{
	TypeSoftware:       kindText,
	TypeHostname:       kindText,
	TypeModel:          kindText,
	TypeModelUniFi:     kindText,
	TypeFirmware:       kindText,
	TypeMinFirmware:    kindText,
	TypeMAC:            kindMAC,
	TypeMACUniFi:       kindMAC,
	TypeAddress:        kindAddress,
	TypeUptime:         kindSeconds,
	TypeCounter:        kindUint32,
	TypeUnknownUniFi17: kindBool,
	TypeUnknownUniFi18: kindBool,
	TypeDHCPEnabled:    kindBool,
	TypeUnknownUniFi1A: kindBool,
}

// Label returns the descriptive label for a type code followed by the
// numeric code, e.g. "hostname (11)".
func Label(typ uint8) string {
	name, ok := labels[typ]
	if !ok {
		name = "unknown"
	}
	return name + " (" + strconv.Itoa(int(typ)) + ")"
}

// Tuple is a single TLV record. The encoded length is always len(Value).
type Tuple struct {
	Type  uint8
	Value []byte
}

// DecodeTuple reads one tuple from the start of b and returns it together
// with the number of bytes consumed. The value is copied out of b.
func DecodeTuple(b []byte) (Tuple, int, error) {
	if len(b) < TLVHeaderSize {
		return Tuple{}, 0, decodeErrorf(KindTruncatedTLV,
			"need %d header bytes, %d left", TLVHeaderSize, len(b))
	}
	typ := b[0]
	length := int(binary.BigEndian.Uint16(b[1:3]))
	rest := b[TLVHeaderSize:]
	if len(rest) < length {
		return Tuple{}, 0, decodeErrorf(KindTruncatedTLV,
			"TLV %d expected %d bytes, %d left", typ, length, len(rest))
	}

	value := make([]byte, length)
	copy(value, rest[:length])
	return Tuple{Type: typ, Value: value}, TLVHeaderSize + length, nil
}

// Size returns the encoded size of the tuple in bytes
func (t Tuple) Size() int {
	return TLVHeaderSize + len(t.Value)
}

// AppendTo appends the wire form of the tuple to b. Values longer than
// 65535 bytes produce a corrupt length prefix.
func (t Tuple) AppendTo(b []byte) []byte {
	b = append(b, t.Type)
	b = binary.BigEndian.AppendUint16(b, uint16(len(t.Value)))
	return append(b, t.Value...)
}

// Encode returns the wire form of the tuple
func (t Tuple) Encode() []byte {
	return t.AppendTo(make([]byte, 0, t.Size()))
}

// FormatValue renders the value according to its type. Fixed-size types
// with the wrong length return ErrValueLength.
func (t Tuple) FormatValue() (string, error) {
	v := t.Value
	switch valueKinds[t.Type] {
	case kindText:
		return Latin1String(v), nil
	case kindMAC:
		if len(v) != 6 {
			return "", fmt.Errorf("%w: type %d wants 6 bytes, got %d", ErrValueLength, t.Type, len(v))
		}
		return formatMAC(v), nil
	case kindAddress:
		if len(v) < addressValueMinSize {
			return "", fmt.Errorf("%w: type %d wants at least %d bytes, got %d",
				ErrValueLength, t.Type, addressValueMinSize, len(v))
		}
		return fmt.Sprintf("hwaddr: %s, ipv4: %d.%d.%d.%d", formatMAC(v[:6]), v[6], v[7], v[8], v[9]), nil
	case kindSeconds, kindUint32:
		if len(v) != 4 {
			return "", fmt.Errorf("%w: type %d wants 4 bytes, got %d", ErrValueLength, t.Type, len(v))
		}
		n := strconv.FormatUint(uint64(binary.BigEndian.Uint32(v)), 10)
		if valueKinds[t.Type] == kindSeconds {
			return n + " seconds", nil
		}
		return n, nil
	case kindBool:
		return strconv.FormatBool(isBigEndianOne(v)), nil
	default:
		return hex.EncodeToString(v), nil
	}
}

// ValueString renders the value, falling back to a hex dump when the value
// does not fit its type.
func (t Tuple) ValueString() string {
	s, err := t.FormatValue()
	if err != nil {
		return fmt.Sprintf("invalid (%d bytes): %s", len(t.Value), hex.EncodeToString(t.Value))
	}
	return s
}

// String renders the tuple as "<label> (<type>): <value>"
func (t Tuple) String() string {
	return Label(t.Type) + ": " + t.ValueString()
}

// Latin1String decodes ISO-8859-1 bytes. Every byte maps to one rune, so
// this never fails.
func Latin1String(b []byte) string {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

func formatMAC(b []byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3], b[4], b[5])
}

// isBigEndianOne reports whether b, read as a big-endian unsigned integer of
// any width, equals 1.
func isBigEndianOne(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b[:len(b)-1] {
		if c != 0 {
			return false
		}
	}
	return b[len(b)-1] == 1
}
