package session

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
)

var errBrokenPipe = errors.New("broken pipe")

// failingConn passes writes through until broken is set, then fails them.
type failingConn struct {
	net.Conn
	broken   atomic.Bool
	failOnce sync.Once
	failed   chan struct{}
}

func (c *failingConn) Write(p []byte) (int, error) {
	if c.broken.Load() {
		c.failOnce.Do(func() { close(c.failed) })
		return 0, errBrokenPipe
	}
	return c.Conn.Write(p)
}

// failingDialer hands out failingConns and remembers the last one.
type failingDialer struct {
	mu   sync.Mutex
	conn *failingConn
}

func (d *failingDialer) dialOptions() *websocket.DialOptions {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			var nd net.Dialer
			raw, err := nd.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			fc := &failingConn{Conn: raw, failed: make(chan struct{})}
			d.mu.Lock()
			d.conn = fc
			d.mu.Unlock()
			return fc, nil
		},
	}
	return &websocket.DialOptions{HTTPClient: &http.Client{Transport: transport}}
}

func (d *failingDialer) last(t *testing.T) *failingConn {
	t.Helper()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		t.Fatalf("no connection was dialed")
	}
	return d.conn
}

func TestKeepaliveWriteFailureEndsRun(t *testing.T) {
	fs := newFakeServer(t)
	cfg := testConfig(fs.url())
	cfg.KeepaliveInterval = 50 * time.Millisecond

	dialer := &failingDialer{}
	s, _, _, done := startSession(t, fs, cfg, WithDialOptions(dialer.dialOptions()))
	dialer.last(t).broken.Store(true)

	select {
	case err := <-done:
		if !errors.Is(err, ErrKeepalive) {
			t.Fatalf("expected ErrKeepalive, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("run did not return after keepalive write failed")
	}
	if s.State() != StateClosed {
		t.Fatalf("expected closed, got %v", s.State())
	}
}

func TestFailedReplyDoesNotEndRun(t *testing.T) {
	fs := newFakeServer(t)
	dialer := &failingDialer{}
	_, server, _, done := startSession(t, fs, testConfig(fs.url()), WithDialOptions(dialer.dialOptions()))

	conn := dialer.last(t)
	conn.broken.Store(true)

	fs.send(t, server, `{"cmd":"onlineAdd","nick":"alice","trip":"","level":100}`)
	fs.send(t, server, `{"cmd":"chat","nick":"alice","text":"::users"}`)

	select {
	case <-conn.failed:
	case <-time.After(2 * time.Second):
		t.Fatalf("reply was never attempted")
	}

	select {
	case err := <-done:
		t.Fatalf("run ended after a failed reply: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	server.CloseNow()

	select {
	case err := <-done:
		if errors.Is(err, ErrKeepalive) {
			t.Fatalf("expected a read-side termination, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("run did not return after peer went away")
	}
}
