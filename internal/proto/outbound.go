package proto

const (
	OutboundCmdJoin = "join"
	OutboundCmdChat = "chat"
	OutboundCmdPing = "ping"
)

// JoinCommand is the channel join handshake.
type JoinCommand struct {
	Cmd      string `json:"cmd"`
	Channel  string `json:"channel"`
	Nick     string `json:"nick"`
	Password string `json:"password"`
}

// ChatCommand posts a line to the joined channel.
type ChatCommand struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text"`
}

// PingCommand keeps an idle connection from being dropped.
type PingCommand struct {
	Cmd string `json:"cmd"`
}

// Join builds a join handshake. An empty password is sent as "".
func Join(channel, nick, password string) JoinCommand {
	return JoinCommand{Cmd: OutboundCmdJoin, Channel: channel, Nick: nick, Password: password}
}

// Chat builds a chat command.
func Chat(text string) ChatCommand {
	return ChatCommand{Cmd: OutboundCmdChat, Text: text}
}

// Ping builds a keepalive command.
func Ping() PingCommand {
	return PingCommand{Cmd: OutboundCmdPing}
}
