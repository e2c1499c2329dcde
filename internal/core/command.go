package core

import (
	"strings"

	"github.com/google/shlex"
)

// CommandPrefix marks a chat line as a bot command.
const CommandPrefix = "::"

// Command is a parsed in-band directive. Execute reads the registry and
// returns the chat replies to send, possibly none.
type Command interface {
	Name() string
	Execute(reg *Registry) []string
}

// UsersCommand lists the current channel membership.
type UsersCommand struct{}

// Name implements Command.
func (UsersCommand) Name() string { return "users" }

// Execute replies with every username, sorted descending. An empty registry
// produces no reply.
func (UsersCommand) Execute(reg *Registry) []string {
	users := reg.SnapshotSorted(ByUsernameDesc)
	if len(users) == 0 {
		return nil
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return []string{"Users: " + strings.Join(names, ", ")}
}

// KickCommand announces that a user would be kicked. It never removes anyone.
type KickCommand struct {
	Target string
}

// Name implements Command.
func (KickCommand) Name() string { return "kick" }

// Execute replies with the stored username when found, the raw target otherwise.
func (c KickCommand) Execute(reg *Registry) []string {
	if u, ok := reg.Find(c.Target); ok {
		return []string{"Would kick " + u.Username}
	}
	return []string{"User not in userlist: " + c.Target}
}

// StripPrefix returns the text after CommandPrefix, or false if the line is
// ordinary chat.
func StripPrefix(text string) (string, bool) {
	return strings.CutPrefix(text, CommandPrefix)
}

// ParseCommand splits line into shell words and maps the first word
// (case-insensitive) to a command. Unknown commands, malformed arguments and
// unbalanced quotes all yield false.
func ParseCommand(line string) (Command, bool) {
	args, err := shlex.Split(line)
	if err != nil || len(args) == 0 {
		return nil, false
	}

	switch strings.ToLower(args[0]) {
	case "users":
		return UsersCommand{}, true
	case "kick":
		return parseKick(args[1:])
	default:
		return nil, false
	}
}

// parseKick accepts exactly one positional target. Flag-like words are
// rejected unless they follow "--".
func parseKick(args []string) (Command, bool) {
	var positional []string
	rest := false
	for _, a := range args {
		if !rest && a == "--" {
			rest = true
			continue
		}
		if !rest && len(a) > 1 && a[0] == '-' {
			return nil, false
		}
		positional = append(positional, a)
	}
	if len(positional) != 1 {
		return nil, false
	}
	return KickCommand{Target: positional[0]}, true
}
