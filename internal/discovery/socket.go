package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"

	"github.com/muurk/ubnt-discover/internal/logging"
)

const (
	// Port is the well-known discovery port
	Port = 10001

	// maxDatagramSize fits any UDP payload
	maxDatagramSize = 65536
)

var (
	// BroadcastIP is the limited broadcast address requests are sent to
	BroadcastIP = net.IPv4bcast

	// MulticastGroup is the group devices listen on besides broadcast
	MulticastGroup = net.IPv4(233, 89, 188, 1)
)

// DefaultDestinations returns the broadcast and multicast request targets
func DefaultDestinations() []net.Addr {
	return []net.Addr{
		&net.UDPAddr{IP: BroadcastIP, Port: Port},
		&net.UDPAddr{IP: MulticastGroup, Port: Port},
	}
}

// SocketConfig controls how the shared discovery socket is opened
type SocketConfig struct {
	// Address to bind; defaults to ":10001"
	Address string

	// JoinMulticast joins MulticastGroup on every multicast-capable interface
	JoinMulticast bool

	Log *zap.Logger
}

// Listen opens the UDP socket used by a session. Go enables SO_BROADCAST on
// UDP sockets, so the result can send to BroadcastIP directly.
func Listen(ctx context.Context, cfg SocketConfig) (net.PacketConn, error) {
	log := cfg.Log
	if log == nil {
		log = logging.GetLogger()
	}

	addr := cfg.Address
	if addr == "" {
		addr = ":" + strconv.Itoa(Port)
	}

	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	log.Debug("socket bound", zap.Stringer("addr", conn.LocalAddr()))

	if cfg.JoinMulticast {
		joined, err := joinGroup(conn, MulticastGroup, log)
		if err != nil {
			// Broadcast still works without the group
			log.Warn("failed to join multicast group",
				zap.Stringer("group", MulticastGroup), zap.Error(err))
		} else {
			log.Debug("joined multicast group",
				zap.Stringer("group", MulticastGroup), zap.Int("interfaces", joined))
		}
	}

	return conn, nil
}

func joinGroup(conn net.PacketConn, group net.IP, log *zap.Logger) (int, error) {
	intfs, err := net.Interfaces()
	if err != nil {
		return 0, err
	}

	pconn := ipv4.NewPacketConn(conn)
	gaddr := &net.UDPAddr{IP: group}
	joined := 0
	for i := range intfs {
		intf := &intfs[i]
		if intf.Flags&net.FlagUp == 0 || intf.Flags&net.FlagMulticast == 0 {
			continue
		}
		if err := pconn.JoinGroup(intf, gaddr); err != nil {
			log.Debug("multicast join failed", zap.String("interface", intf.Name), zap.Error(err))
			continue
		}
		joined++
	}

	if joined == 0 {
		return 0, errors.New("no multicast interfaces available")
	}
	return joined, nil
}

// aLongTimeAgo is a deadline in the past, used to wake up a blocked read
var aLongTimeAgo = time.Unix(1, 0)

// interruptOnDone unblocks reads on conn once ctx is done. The returned
// function stops the watch.
func interruptOnDone(ctx context.Context, conn net.PacketConn) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(aLongTimeAgo)
	})
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
