package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/hackchat-bot/internal/core"
	"github.com/vovakirdan/hackchat-bot/internal/proto"
	"github.com/vovakirdan/hackchat-bot/internal/store"
	"github.com/vovakirdan/hackchat-bot/internal/utils"
)

const (
	// DefaultKeepaliveInterval is how often a ping is sent when Config leaves it unset.
	DefaultKeepaliveInterval = 60 * time.Second

	defaultReadLimit = 1 << 20
)

// Config describes one logical connection to one channel.
type Config struct {
	Server            string
	Channel           string
	Nick              string
	Password          string
	KeepaliveInterval time.Duration
	Match             core.MatchPolicy
	DedupeRoster      bool
}

// Recorder receives every chat and whisper line. Failures are logged only.
type Recorder interface {
	SaveEntry(ctx context.Context, entry *store.Entry) error
}

// Option customises a Session.
type Option func(*Session)

// WithRecorder attaches a transcript recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithDialOptions overrides the WebSocket dial options.
func WithDialOptions(opts *websocket.DialOptions) Option {
	return func(s *Session) {
		s.dialOpts = opts
	}
}

// Session owns the socket to a chat server, the channel roster and the
// loops that keep both current.
type Session struct {
	id       string
	cfg      Config
	log      zerolog.Logger
	registry *core.Registry
	recorder Recorder
	dialOpts *websocket.DialOptions

	state atomic.Int32
	conn  *websocket.Conn

	// writeMu is the exclusive writer: held for exactly one frame.
	writeMu sync.Mutex

	selfMu sync.RWMutex
	self   string
}

// Connect dials cfg.Server and returns a connected session. A failure is
// returned as *ConnectError and is not retried.
func Connect(ctx context.Context, cfg Config, logger *zerolog.Logger, opts ...Option) (*Session, error) {
	if cfg.KeepaliveInterval <= 0 {
		cfg.KeepaliveInterval = DefaultKeepaliveInterval
	}

	s := &Session{
		id:       utils.NewID(),
		cfg:      cfg,
		registry: core.NewRegistry(cfg.Match, cfg.DedupeRoster),
	}
	for _, opt := range opts {
		opt(s)
	}

	base := zerolog.Nop()
	if logger != nil {
		base = *logger
	}
	s.log = base.With().
		Str("session_id", s.id).
		Str("channel", cfg.Channel).
		Str("nick", cfg.Nick).
		Logger()

	conn, _, err := websocket.Dial(ctx, cfg.Server, s.dialOpts)
	if err != nil {
		return nil, &ConnectError{Server: cfg.Server, Err: err}
	}
	conn.SetReadLimit(defaultReadLimit)

	s.conn = conn
	s.state.Store(int32(StateConnected))
	s.log.Info().Str("server", cfg.Server).Msg("connected")

	return s, nil
}

// ID returns the identifier used to correlate this session's log lines.
func (s *Session) ID() string { return s.id }

// Channel returns the target channel.
func (s *Session) Channel() string { return s.cfg.Channel }

// Nick returns the display name used to join.
func (s *Session) Nick() string { return s.cfg.Nick }

// State returns the current lifecycle stage.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Self returns the nick the server flagged as ours in the last full roster.
func (s *Session) Self() string {
	s.selfMu.RLock()
	defer s.selfMu.RUnlock()
	return s.self
}

// Users returns a snapshot of the roster in insertion order.
func (s *Session) Users() []core.User {
	return s.registry.Snapshot()
}

// Join sends the channel join handshake. It must be called exactly once,
// after Connect and before Run.
func (s *Session) Join(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateConnected), int32(StateJoined)) {
		switch s.State() {
		case StateJoined:
			return ErrAlreadyJoined
		case StateClosed:
			return ErrClosed
		default:
			return ErrNotConnected
		}
	}

	if err := s.write(ctx, proto.OutboundCmdJoin, proto.Join(s.cfg.Channel, s.cfg.Nick, s.cfg.Password)); err != nil {
		return err
	}
	s.log.Info().Msg("join sent")
	return nil
}

// SendChat posts text to the channel. Callers on the chat reply path may
// ignore the error; it is already logged.
func (s *Session) SendChat(ctx context.Context, text string) error {
	if st := s.State(); st != StateJoined {
		if st == StateClosed {
			return ErrClosed
		}
		return ErrNotJoined
	}
	if err := s.write(ctx, proto.OutboundCmdChat, proto.Chat(text)); err != nil {
		s.log.Debug().Err(err).Str("text", text).Msg("chat send failed")
		return err
	}
	return nil
}

// write sends one frame while holding the exclusive writer.
func (s *Session) write(ctx context.Context, cmd string, v any) error {
	if s.conn == nil {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	err := wsjson.Write(ctx, s.conn, v)
	s.writeMu.Unlock()

	if err != nil {
		return &SendError{Cmd: cmd, Err: err}
	}
	return nil
}

// Close marks the session closed and closes the socket. Run calls it on the
// way out; it is only needed directly for a session that never ran.
func (s *Session) Close() error {
	prev := State(s.state.Swap(int32(StateClosed)))
	if prev == StateClosed || s.conn == nil {
		return nil
	}
	return s.conn.Close(websocket.StatusNormalClosure, "bye")
}

type loopResult struct {
	loop string
	err  error
}

// Run races the read loop, the keepalive loop and ctx. Whichever finishes
// first stops the other two; Run returns only after both loops have exited
// and the socket is closed.
//
// It returns nil on cancellation or a clean close by the peer, an error
// wrapping ErrKeepalive when a ping could not be written, and the read error
// for any other termination.
func (s *Session) Run(ctx context.Context) error {
	if st := s.State(); st != StateJoined {
		if st == StateClosed {
			return ErrClosed
		}
		return ErrNotJoined
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan loopResult, 2)
	go func() {
		results <- loopResult{loop: "read", err: s.readLoop(runCtx)}
	}()
	go func() {
		results <- loopResult{loop: "keepalive", err: s.keepaliveLoop(runCtx)}
	}()

	pending := 2
	var first loopResult
	select {
	case first = <-results:
		pending--
	case <-ctx.Done():
		first = loopResult{loop: "cancel", err: ctx.Err()}
	}

	cancel()
	for ; pending > 0; pending-- {
		<-results
	}

	_ = s.Close()

	err := s.classify(ctx, first)
	if err != nil {
		s.log.Error().Err(err).Str("loop", first.loop).Msg("session ended")
	} else {
		s.log.Info().Str("loop", first.loop).Msg("session ended")
	}
	return err
}

func (s *Session) classify(ctx context.Context, r loopResult) error {
	if ctx.Err() != nil {
		return nil
	}
	switch r.loop {
	case "keepalive":
		return fmt.Errorf("%w: %w", ErrKeepalive, r.err)
	case "read":
		if r.err == nil || errors.Is(r.err, io.EOF) {
			return nil
		}
		switch websocket.CloseStatus(r.err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return nil
		}
		return fmt.Errorf("read: %w", r.err)
	}
	return r.err
}

// readLoop handles frames strictly in arrival order until the socket fails.
func (s *Session) readLoop(ctx context.Context) error {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText || len(data) == 0 {
			continue
		}
		if !utf8.Valid(data) {
			s.log.Debug().Int("bytes", len(data)).Msg("skipping non-utf8 frame")
			continue
		}

		text := string(data)
		in, err := proto.Decode(text)
		if err != nil {
			s.log.Warn().Err(err).Str("frame", text).Msg("failed to decode frame")
			continue
		}
		if in.Kind == proto.KindUnknown {
			s.log.Info().Str("cmd", in.Cmd).Str("frame", text).Msg("unknown message")
			continue
		}

		s.handle(ctx, in)
	}
}

// keepaliveLoop pings on a fixed period. A failed write ends the session.
func (s *Session) keepaliveLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.write(ctx, proto.OutboundCmdPing, proto.Ping()); err != nil {
				return err
			}
			s.log.Debug().Msg("keepalive sent")
		}
	}
}
