package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/ubnt-discover/internal/logging"
	"github.com/muurk/ubnt-discover/internal/protocol"
)

// DefaultScanTimeout is how long a scan collects replies by default
const DefaultScanTimeout = 11 * time.Second

// ErrInvalidTimeout is returned by Scan when the timeout is not positive
var ErrInvalidTimeout = errors.New("discovery: scan timeout must be greater than zero")

// Client sends a discovery request and collects the replies. A Client owns
// its socket for the duration of a scan and is not safe for concurrent use.
type Client struct {
	conn net.PacketConn

	// Timeout bounds the collection phase; zero is invalid
	Timeout time.Duration

	// Destinations receive the request; defaults to DefaultDestinations()
	Destinations []net.Addr

	Log *zap.Logger
}

// NewClient creates a client on conn with default settings
func NewClient(conn net.PacketConn) *Client {
	return &Client{
		conn:         conn,
		Timeout:      DefaultScanTimeout,
		Destinations: DefaultDestinations(),
		Log:          logging.GetLogger(),
	}
}

// Scan sends one request to every destination, then collects responses
// until the timeout elapses. The returned packets are deduplicated by
// identifier in order of first arrival.
//
// If ctx is cancelled the packets collected so far are returned together
// with ctx.Err().
func (c *Client) Scan(ctx context.Context) ([]*protocol.Packet, error) {
	if c.Timeout <= 0 {
		return nil, ErrInvalidTimeout
	}
	log := c.logger()

	if err := c.sendRequest(log); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.Timeout)
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}
	defer c.conn.SetReadDeadline(time.Time{})

	stop := interruptOnDone(ctx, c.conn)
	defer stop()

	results := newResultSet()
	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := c.conn.ReadFrom(buf)
		if err != nil {
			if isTimeout(err) {
				log.Debug("timeout reached")
				break
			}
			if errors.Is(err, net.ErrClosed) {
				return results.packets(), fmt.Errorf("receive failed: %w", err)
			}
			log.Debug("could not receive incoming packet", zap.Error(err))
		} else {
			c.handle(log, results, buf[:n], from)
		}

		if !time.Now().Before(deadline) {
			log.Debug("timeout reached")
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return results.packets(), err
	}
	return results.packets(), nil
}

func (c *Client) sendRequest(log *zap.Logger) error {
	dests := c.Destinations
	if len(dests) == 0 {
		dests = DefaultDestinations()
	}

	req := protocol.NewPacket().Encode()
	var lastErr error
	sent := 0
	for _, dst := range dests {
		if _, err := c.conn.WriteTo(req, dst); err != nil {
			log.Warn("failed to send discovery request", zap.Stringer("to", dst), zap.Error(err))
			lastErr = err
			continue
		}
		log.Debug("sent discovery request", zap.Stringer("to", dst))
		sent++
	}

	if sent == 0 {
		return fmt.Errorf("failed to send discovery request: %w", lastErr)
	}
	return nil
}

func (c *Client) handle(log *zap.Logger, results *resultSet, data []byte, from net.Addr) {
	log.Debug("incoming packet", zap.Stringer("from", from), zap.Int("length", len(data)))

	pkt, err := protocol.Decode(data)
	if err != nil {
		log.Warn("malformed packet", zap.Stringer("from", from), zap.Error(err))
		logging.LogRawBytes(log, "malformed packet", data)
		return
	}

	log.Debug("received packet",
		zap.Uint8("version", pkt.Version), zap.Uint8("opcode", pkt.Opcode))
	if !pkt.IsResponse() {
		log.Debug("received non discovery response packet", zap.String("packet", pkt.String()))
		return
	}

	if !results.add(pkt) {
		log.Debug("found duplicate announcement", zap.Stringer("from", from))
	}
}

func (c *Client) logger() *zap.Logger {
	if c.Log == nil {
		return logging.GetLogger()
	}
	return c.Log
}
