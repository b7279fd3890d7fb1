package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/muurk/ubnt-discover/internal/hostfacts"
	"github.com/muurk/ubnt-discover/internal/logging"
	"github.com/muurk/ubnt-discover/internal/protocol"
)

// Responder answers discovery requests with host facts
type Responder struct {
	conn    net.PacketConn
	builder *hostfacts.Builder

	// Timeout stops Serve after the given duration; zero runs until ctx ends
	Timeout time.Duration

	// Limiter throttles replies; nil replies to every request
	Limiter *rate.Limiter

	Log *zap.Logger
}

// NewResponder creates a responder replying on conn with packets from builder
func NewResponder(conn net.PacketConn, builder *hostfacts.Builder) *Responder {
	return &Responder{
		conn:    conn,
		builder: builder,
		Log:     logging.GetLogger(),
	}
}

// NewLimiter returns a limiter for perSecond replies with the given burst,
// or nil when perSecond is zero or negative.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Serve answers requests until the timeout elapses or ctx is cancelled,
// both of which return nil. Any other receive or send failure is returned.
func (r *Responder) Serve(ctx context.Context) error {
	log := r.Log
	if log == nil {
		log = logging.GetLogger()
	}

	var deadline time.Time
	if r.Timeout > 0 {
		deadline = time.Now().Add(r.Timeout)
	}
	if err := r.conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}
	defer r.conn.SetReadDeadline(time.Time{})

	stop := interruptOnDone(ctx, r.conn)
	defer stop()

	log.Info("responder listening",
		zap.Stringer("addr", r.conn.LocalAddr()), zap.Duration("timeout", r.Timeout))

	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := r.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("responder interrupted")
				return nil
			}
			if isTimeout(err) {
				log.Info("responder timeout reached")
				return nil
			}
			return fmt.Errorf("receive failed: %w", err)
		}

		if err := r.handle(log, buf[:n], from); err != nil {
			return err
		}
	}
}

func (r *Responder) handle(log *zap.Logger, data []byte, from net.Addr) error {
	pkt, err := protocol.Decode(data)
	if err != nil {
		log.Warn("malformed packet", zap.Stringer("from", from), zap.Error(err))
		logging.LogRawBytes(log, "malformed packet", data)
		return nil
	}

	if !pkt.IsRequest() {
		log.Debug("ignoring non-request packet", zap.Stringer("from", from),
			zap.Uint8("version", pkt.Version), zap.Uint8("opcode", pkt.Opcode))
		return nil
	}

	if r.Limiter != nil && !r.Limiter.Allow() {
		log.Debug("reply rate limited", zap.Stringer("to", from))
		return nil
	}

	reply := r.builder.Build().Encode()
	if _, err := r.conn.WriteTo(reply, from); err != nil {
		return fmt.Errorf("failed to reply to %s: %w", from, err)
	}
	log.Debug("sent reply", zap.Stringer("to", from), zap.Int("length", len(reply)))
	return nil
}
