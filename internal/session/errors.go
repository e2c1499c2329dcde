package session

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected  = errors.New("session not connected")
	ErrAlreadyJoined = errors.New("session already joined")
	ErrNotJoined     = errors.New("session not joined")
	ErrClosed        = errors.New("session closed")
	ErrKeepalive     = errors.New("keepalive failed")
)

// ConnectError reports a failed dial or handshake. It is never retried.
type ConnectError struct {
	Server string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Server, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// SendError reports a failed outbound write.
type SendError struct {
	Cmd string
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send %s: %v", e.Cmd, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}
