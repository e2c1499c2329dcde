package session

// State is the lifecycle stage of a Session.
type State int32

const (
	// StateDisconnected is the zero value; no socket is open.
	StateDisconnected State = iota
	// StateConnected means the WebSocket handshake completed.
	StateConnected
	// StateJoined means the join command has been sent.
	StateJoined
	// StateClosed means Run has returned and the socket is closed.
	StateClosed
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
