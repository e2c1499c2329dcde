package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	InboundCmdChat         = "chat"
	InboundCmdInfo         = "info"
	InboundCmdOnlineSet    = "onlineSet"
	InboundCmdOnlineAdd    = "onlineAdd"
	InboundCmdOnlineRemove = "onlineRemove"

	InfoTypeWhisper = "whisper"
)

// Kind tags a decoded inbound frame.
type Kind int

const (
	// KindUnknown is any cmd this client does not understand. Not an error.
	KindUnknown Kind = iota
	// KindChat is a channel chat line.
	KindChat
	// KindWhisper is a private message delivered through an info frame.
	KindWhisper
	// KindInfo is any other info frame.
	KindInfo
	// KindRosterSet replaces the whole roster.
	KindRosterSet
	// KindRosterAdd announces a user joining.
	KindRosterAdd
	// KindRosterRemove announces a user leaving.
	KindRosterRemove
)

func (k Kind) String() string {
	switch k {
	case KindChat:
		return "chat"
	case KindWhisper:
		return "whisper"
	case KindInfo:
		return "info"
	case KindRosterSet:
		return "roster_set"
	case KindRosterAdd:
		return "roster_add"
	case KindRosterRemove:
		return "roster_remove"
	default:
		return "unknown"
	}
}

// OnlineUser is a roster entry as sent by the server.
type OnlineUser struct {
	Nick  string `json:"nick"`
	IsMe  bool   `json:"isme"`
	Trip  string `json:"trip"`
	Level int    `json:"level"`
}

// Inbound is a decoded server frame. Which fields are set depends on Kind.
type Inbound struct {
	Kind Kind
	// Cmd is the raw cmd tag, kept for logging unknown frames.
	Cmd    string
	Sender string
	Text   string
	Users  []OnlineUser // KindRosterSet
	User   OnlineUser   // KindRosterAdd, KindRosterRemove (Nick only)
}

// ErrDecode is wrapped by every DecodeError.
var ErrDecode = errors.New("decode inbound")

// DecodeError describes a frame that could not be decoded.
type DecodeError struct {
	Cmd string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Cmd == "" {
		return fmt.Sprintf("%s: %v", ErrDecode, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", ErrDecode, e.Cmd, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

type envelope struct {
	Cmd  string `json:"cmd"`
	Type string `json:"type"`
}

type chatData struct {
	Nick *string `json:"nick"`
	Text string `json:"text"`
}

type whisperData struct {
	From json.RawMessage `json:"from"`
	Text string          `json:"text"`
}

type infoData struct {
	Text string `json:"text"`
}

type onlineSetData struct {
	Users []OnlineUser `json:"users"`
}

// Decode parses one text frame. Unrecognised cmd tags decode to KindUnknown.
func Decode(text string) (Inbound, error) {
	data := []byte(text)

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Inbound{}, &DecodeError{Err: err}
	}

	in := Inbound{Cmd: env.Cmd}
	fail := func(err error) (Inbound, error) {
		return Inbound{}, &DecodeError{Cmd: env.Cmd, Err: err}
	}

	switch env.Cmd {
	case InboundCmdChat:
		var d chatData
		if err := json.Unmarshal(data, &d); err != nil {
			return fail(err)
		}
		// An empty nick is allowed; only an absent one is malformed.
		if d.Nick == nil {
			return fail(errors.New("missing nick"))
		}
		in.Kind = KindChat
		in.Sender = *d.Nick
		in.Text = d.Text
	case InboundCmdInfo:
		if env.Type != InfoTypeWhisper {
			var d infoData
			if err := json.Unmarshal(data, &d); err != nil {
				return fail(err)
			}
			in.Kind = KindInfo
			in.Text = d.Text
			return in, nil
		}
		var d whisperData
		if err := json.Unmarshal(data, &d); err != nil {
			return fail(err)
		}
		in.Kind = KindWhisper
		in.Sender = rawString(d.From)
		in.Text = WhisperPayload(d.Text)
	case InboundCmdOnlineSet:
		var d onlineSetData
		if err := json.Unmarshal(data, &d); err != nil {
			return fail(err)
		}
		in.Kind = KindRosterSet
		in.Users = d.Users
	case InboundCmdOnlineAdd, InboundCmdOnlineRemove:
		var u OnlineUser
		if err := json.Unmarshal(data, &u); err != nil {
			return fail(err)
		}
		if u.Nick == "" {
			return fail(errors.New("missing nick"))
		}
		in.Kind = KindRosterAdd
		if env.Cmd == InboundCmdOnlineRemove {
			in.Kind = KindRosterRemove
			u = OnlineUser{Nick: u.Nick}
		}
		in.User = u
	default:
		in.Kind = KindUnknown
	}

	return in, nil
}

// WhisperPayload drops the routing words the server prepends to whisper text
// ("<from> whispered: ...") and returns everything after the first two
// whitespace-delimited tokens, re-joined with single spaces.
func WhisperPayload(text string) string {
	fields := strings.Fields(text)
	if len(fields) <= 2 {
		return ""
	}
	return strings.Join(fields[2:], " ")
}

// rawString accepts either a JSON string or a bare scalar such as a numeric user id.
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
