package discovery

import "github.com/muurk/ubnt-discover/internal/protocol"

// resultSet collects packets keeping the first arrival per identifier.
// Packets without an address tuple share a single identity.
type resultSet struct {
	seen      map[string]struct{}
	seenNoID  bool
	collected []*protocol.Packet
}

func newResultSet() *resultSet {
	return &resultSet{seen: make(map[string]struct{})}
}

// add reports whether p was kept
func (s *resultSet) add(p *protocol.Packet) bool {
	id, ok := p.Identifier()
	if !ok {
		if s.seenNoID {
			return false
		}
		s.seenNoID = true
	} else {
		if _, dup := s.seen[id]; dup {
			return false
		}
		s.seen[id] = struct{}{}
	}
	s.collected = append(s.collected, p)
	return true
}

func (s *resultSet) packets() []*protocol.Packet {
	return s.collected
}

// Dedupe returns packets with duplicate identifiers removed, keeping the
// first occurrence of each and preserving order.
func Dedupe(packets []*protocol.Packet) []*protocol.Packet {
	s := newResultSet()
	for _, p := range packets {
		s.add(p)
	}
	return s.packets()
}
