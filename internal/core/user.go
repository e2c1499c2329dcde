package core

// Level is a server-assigned trust level. Higher means more trusted.
type Level int

// Known trust tiers.
const (
	LevelDefault     Level = 100
	LevelTrusted     Level = 500
	LevelChanTrusted Level = 8999
	LevelChanMod     Level = 9999
	LevelChanOwner   Level = 99999
	LevelMod         Level = 999999
	LevelAdmin       Level = 9999999
)

// String names the highest tier the level reaches.
func (l Level) String() string {
	switch {
	case l >= LevelAdmin:
		return "admin"
	case l >= LevelMod:
		return "mod"
	case l >= LevelChanOwner:
		return "channel_owner"
	case l >= LevelChanMod:
		return "channel_mod"
	case l >= LevelChanTrusted:
		return "channel_trusted"
	case l >= LevelTrusted:
		return "trusted"
	case l >= LevelDefault:
		return "default"
	default:
		return "untrusted"
	}
}

// User is a channel participant as seen by the bot.
type User struct {
	Username string
	Trip     string
	Level    Level
}

// HasLevel reports whether the user is at or above the given tier.
func (u User) HasLevel(l Level) bool {
	return u.Level >= l
}
