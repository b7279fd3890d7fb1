// Package protocol implements the Ubiquiti discovery protocol wire format.
//
// Discovery messages are single UDP datagrams exchanged on port 10001. Every
// datagram is a Packet: a 4-byte header followed by a sequence of TLV tuples.
//
// # Wire Format
//
// All integers are big-endian (network byte order):
//
//	Packet:  version:u8  opcode:u8  length:u16  tlv_payload[length]
//	TLV:     type:u8      length:u16            value[length]
//
// The packet length field counts the encoded TLV payload only, so a valid
// datagram is always exactly length+4 bytes long.
//
// # Opcodes
//
//   - 0: discovery request, or an announcement/reply from a device
//   - 6: alternate response sent by some firmware
//
// # Usage Example - Decoding
//
//	pkt, err := protocol.Decode(datagram)
//	if err != nil {
//	    switch protocol.KindOf(err) {
//	    case protocol.KindLengthMismatch:
//	        // datagram was cut or padded in transit
//	    }
//	    return err
//	}
//	if id, ok := pkt.Identifier(); ok {
//	    fmt.Println(id)
//	}
//
// # Usage Example - Encoding
//
//	req := protocol.NewPacket()
//	conn.WriteTo(req.Encode(), dst)
//
// # TLV Types
//
// A fixed table maps type codes to labels (see Label). Types outside the
// table are legal: they decode normally and render as hex.
//
// # Error Handling
//
// Decode failures are returned as *DecodeError values carrying an ErrorKind.
// Use errors.Is with the sentinel errors (ErrHeaderTooShort, ...) or KindOf
// to branch on the failure.
//
// # Thread Safety
//
// All functions are stateless. Packets and tuples are plain values and are
// not synchronised.
package protocol
