package session

import (
	"context"

	"github.com/vovakirdan/hackchat-bot/internal/core"
	"github.com/vovakirdan/hackchat-bot/internal/proto"
	"github.com/vovakirdan/hackchat-bot/internal/store"
)

// handle applies one decoded frame. Only the read loop calls it, so roster
// mutations and command replies observe frames in arrival order.
func (s *Session) handle(ctx context.Context, in proto.Inbound) {
	switch in.Kind {
	case proto.KindChat:
		s.log.Info().Str("from", in.Sender).Str("text", in.Text).Msg("chat")
		s.record(ctx, store.EntryKindChat, in)
		s.dispatch(ctx, in.Text)
	case proto.KindWhisper:
		s.log.Info().Str("from", in.Sender).Str("text", in.Text).Msg("whisper")
		s.record(ctx, store.EntryKindWhisper, in)
		s.dispatch(ctx, in.Text)
	case proto.KindInfo:
		s.log.Info().Str("text", in.Text).Msg("info")
	case proto.KindRosterSet:
		users := make([]core.User, 0, len(in.Users))
		self := ""
		for _, u := range in.Users {
			users = append(users, userFromWire(u))
			if u.IsMe && self == "" {
				self = u.Nick
			}
		}
		s.registry.ReplaceAll(users)
		s.setSelf(self)
		s.log.Info().Int("count", len(users)).Msg("roster replaced")
	case proto.KindRosterAdd:
		u := userFromWire(in.User)
		s.registry.Add(u)
		s.log.Info().Str("user", u.Username).Str("role", u.Level.String()).Msg("joined")
	case proto.KindRosterRemove:
		removed := s.registry.RemoveByUsername(in.User.Nick)
		s.log.Info().Str("user", in.User.Nick).Bool("known", removed).Msg("left")
	}
}

// dispatch runs a command embedded in text, if any, and sends its replies.
// Reply failures are dropped.
func (s *Session) dispatch(ctx context.Context, text string) {
	rest, ok := core.StripPrefix(text)
	if !ok {
		return
	}
	cmd, ok := core.ParseCommand(rest)
	if !ok {
		s.log.Debug().Str("line", rest).Msg("not a command")
		return
	}

	s.log.Info().Str("command", cmd.Name()).Msg("executing command")
	for _, reply := range cmd.Execute(s.registry) {
		_ = s.SendChat(ctx, reply)
	}
}

func (s *Session) record(ctx context.Context, kind store.EntryKind, in proto.Inbound) {
	if s.recorder == nil {
		return
	}
	entry := &store.Entry{
		Channel: s.cfg.Channel,
		Kind:    kind,
		Nick:    in.Sender,
		Text:    in.Text,
	}
	if err := s.recorder.SaveEntry(ctx, entry); err != nil {
		s.log.Warn().Err(err).Msg("failed to record transcript entry")
	}
}

func (s *Session) setSelf(nick string) {
	s.selfMu.Lock()
	s.self = nick
	s.selfMu.Unlock()
}

func userFromWire(u proto.OnlineUser) core.User {
	return core.User{
		Username: u.Nick,
		Trip:     u.Trip,
		Level:    core.Level(u.Level),
	}
}
