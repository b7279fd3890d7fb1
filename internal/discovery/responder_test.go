package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/muurk/ubnt-discover/internal/hostfacts"
	"github.com/muurk/ubnt-discover/internal/protocol"
)

func testBuilder() *hostfacts.Builder {
	facts := hostfacts.Facts{
		Hostname: "responder",
		MAC:      net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		IPv4:     net.ParseIP("192.0.2.10"),
		Platform: "linux-test",
	}
	return hostfacts.NewBuilder(facts, time.Now().Add(-time.Minute))
}

type serveResult struct {
	err error
}

func startResponder(t *testing.T, ctx context.Context, r *Responder) <-chan serveResult {
	t.Helper()
	done := make(chan serveResult, 1)
	go func() {
		done <- serveResult{err: r.Serve(ctx)}
	}()
	return done
}

// readReply waits up to wait for one datagram on conn
func readReply(conn net.PacketConn, wait time.Duration) ([]byte, bool) {
	buf := make([]byte, 1500)
	conn.SetReadDeadline(time.Now().Add(wait))
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		return nil, false
	}
	return buf[:n], true
}

func TestResponderReplies(t *testing.T) {
	respConn := listenLoopback(t)
	peer := listenLoopback(t)

	r := NewResponder(respConn, testBuilder())
	r.Log = zap.NewNop()

	ctx, cancel := context.WithCancel(context.Background())
	done := startResponder(t, ctx, r)

	// Malformed and non-request datagrams get no reply
	peer.WriteTo([]byte{0x01, 0x00, 0x00}, respConn.LocalAddr())
	peer.WriteTo([]byte{0x02, 0x00, 0x00, 0x00}, respConn.LocalAddr())
	peer.WriteTo([]byte{0x01, 0x06, 0x00, 0x00}, respConn.LocalAddr())
	peer.WriteTo(protocol.NewPacket().Encode(), respConn.LocalAddr())

	data, ok := readReply(peer, 2*time.Second)
	if !ok {
		t.Fatal("no reply received")
	}
	reply, err := protocol.Decode(data)
	if err != nil {
		t.Fatalf("Decode(reply) error = %v", err)
	}

	wantTypes := []uint8{
		protocol.TypeUptime,
		protocol.TypeHostname,
		protocol.TypeMAC,
		protocol.TypeAddress,
		protocol.TypeSoftware,
	}
	if len(reply.TLVs) != len(wantTypes) {
		t.Fatalf("reply has %d TLVs, want %d", len(reply.TLVs), len(wantTypes))
	}
	for i, typ := range wantTypes {
		if reply.TLVs[i].Type != typ {
			t.Errorf("TLV %d type = 0x%02x, want 0x%02x", i, reply.TLVs[i].Type, typ)
		}
	}
	if !reply.IsRequest() {
		t.Error("reply should carry version 1, opcode 0")
	}

	if extra, ok := readReply(peer, 200*time.Millisecond); ok {
		t.Errorf("unexpected second reply: % x", extra)
	}

	cancel()
	select {
	case res := <-done:
		if res.err != nil {
			t.Errorf("Serve() after cancel error = %v, want nil", res.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestResponderTimeout(t *testing.T) {
	r := NewResponder(listenLoopback(t), testBuilder())
	r.Log = zap.NewNop()
	r.Timeout = 150 * time.Millisecond

	start := time.Now()
	if err := r.Serve(context.Background()); err != nil {
		t.Fatalf("Serve() error = %v, want nil", err)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("Serve() returned after %v, before the timeout", elapsed)
	}
}

func TestResponderSocketFault(t *testing.T) {
	conn := listenLoopback(t)
	r := NewResponder(conn, testBuilder())
	r.Log = zap.NewNop()

	done := startResponder(t, context.Background(), r)
	time.Sleep(50 * time.Millisecond)
	conn.Close()

	select {
	case res := <-done:
		if res.err == nil {
			t.Error("Serve() on a closed socket should fail")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after the socket closed")
	}
}

func TestResponderRateLimit(t *testing.T) {
	respConn := listenLoopback(t)
	peer := listenLoopback(t)

	r := NewResponder(respConn, testBuilder())
	r.Log = zap.NewNop()
	r.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startResponder(t, ctx, r)

	req := protocol.NewPacket().Encode()
	peer.WriteTo(req, respConn.LocalAddr())
	peer.WriteTo(req, respConn.LocalAddr())

	if _, ok := readReply(peer, 2*time.Second); !ok {
		t.Fatal("first request got no reply")
	}
	if _, ok := readReply(peer, 200*time.Millisecond); ok {
		t.Error("second request should have been rate limited")
	}
}

func TestNewLimiter(t *testing.T) {
	if NewLimiter(0, 10) != nil {
		t.Error("NewLimiter(0) should be unlimited")
	}
	l := NewLimiter(5, 0)
	if l == nil {
		t.Fatal("NewLimiter(5) = nil")
	}
	if l.Limit() != 5 || l.Burst() != 1 {
		t.Errorf("limit = %v burst = %d, want 5 and 1", l.Limit(), l.Burst())
	}
}

func TestClientAgainstResponder(t *testing.T) {
	respConn := listenLoopback(t)
	clientConn := listenLoopback(t)

	r := NewResponder(respConn, testBuilder())
	r.Log = zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startResponder(t, ctx, r)

	c := newTestClient(clientConn, respConn.LocalAddr(), 300*time.Millisecond, zap.NewNop())
	packets, err := c.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("Scan() returned %d packets, want 1", len(packets))
	}

	d := NewDevice(packets[0])
	if d.Hostname != "responder" || d.IPv4 != "192.0.2.10" || d.HWAddr != "02:00:00:00:00:01" {
		t.Errorf("device = %+v", d)
	}
}
