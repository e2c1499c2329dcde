package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

// fakeServer is a minimal chat server: it records every frame a client
// writes and lets the test push frames back.
type fakeServer struct {
	srv    *httptest.Server
	frames chan map[string]any
	conns  chan *websocket.Conn
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	fs := &fakeServer{
		frames: make(chan map[string]any, 4096),
		conns:  make(chan *websocket.Conn, 1),
	}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.CloseNow()

		fs.conns <- conn
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			var frame map[string]any
			if err := json.Unmarshal(data, &frame); err != nil {
				frame = map[string]any{"cmd": "<invalid>", "raw": string(data)}
			}
			fs.frames <- frame
		}
	}))
	t.Cleanup(fs.srv.Close)

	return fs
}

func (fs *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(fs.srv.URL, "http")
}

// accept waits for the server side of the next client connection.
func (fs *fakeServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()

	select {
	case conn := <-fs.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatalf("client never connected")
		return nil
	}
}

func (fs *fakeServer) send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

// mustFrame returns the next frame with the given cmd, skipping others.
// Frames that are not valid JSON fail the test.
func (fs *fakeServer) mustFrame(t *testing.T, cmd string) map[string]any {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case frame := <-fs.frames:
			if frame["cmd"] == "<invalid>" {
				t.Fatalf("corrupted frame on the wire: %v", frame["raw"])
			}
			if frame["cmd"] == cmd {
				return frame
			}
		case <-deadline:
			t.Fatalf("expected frame with cmd %q not received", cmd)
			return nil
		}
	}
}

func testConfig(server string) Config {
	return Config{
		Server:            server,
		Channel:           "lounge",
		Nick:              "bot",
		KeepaliveInterval: time.Hour,
	}
}

// startSession connects, joins and runs a session against fs.
func startSession(t *testing.T, fs *fakeServer, cfg Config, opts ...Option) (*Session, *websocket.Conn, context.CancelFunc, <-chan error) {
	t.Helper()

	logger := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())

	s, err := Connect(ctx, cfg, &logger, opts...)
	if err != nil {
		cancel()
		t.Fatalf("connect: %v", err)
	}
	server := fs.accept(t)

	if err := s.Join(ctx); err != nil {
		cancel()
		t.Fatalf("join: %v", err)
	}
	fs.mustFrame(t, "join")

	// done is closed after the result is sent so both the test and the
	// cleanup can wait on it.
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("session did not stop")
		}
	})

	return s, server, cancel, done
}
