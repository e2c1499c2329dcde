package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds bot configuration values.
type Config struct {
	Server   string `mapstructure:"server" yaml:"server"`
	Channel  string `mapstructure:"channel" yaml:"channel"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`

	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	KeepaliveInterval time.Duration `mapstructure:"keepalive_interval" yaml:"keepalive_interval"`
	CaseSensitive     bool          `mapstructure:"case_sensitive" yaml:"case_sensitive"`
	DedupeRoster      bool          `mapstructure:"dedupe_roster" yaml:"dedupe_roster"`

	StatusAddr      string        `mapstructure:"status_addr" yaml:"status_addr"`
	StatusToken     string        `mapstructure:"status_token" yaml:"status_token"`
	TranscriptPath  string        `mapstructure:"transcript_path" yaml:"transcript_path"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// ErrInvalid is returned by Validate when required values are missing.
var ErrInvalid = errors.New("invalid config")

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		LogLevel:          "info",
		KeepaliveInterval: 60 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Server != "" {
		c.Server = other.Server
	}
	if other.Channel != "" {
		c.Channel = other.Channel
	}
	if other.Username != "" {
		c.Username = other.Username
	}
	if other.Password != "" {
		c.Password = other.Password
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.KeepaliveInterval != 0 {
		c.KeepaliveInterval = other.KeepaliveInterval
	}
	if other.CaseSensitive {
		c.CaseSensitive = true
	}
	if other.DedupeRoster {
		c.DedupeRoster = true
	}
	if other.StatusAddr != "" {
		c.StatusAddr = other.StatusAddr
	}
	if other.StatusToken != "" {
		c.StatusToken = other.StatusToken
	}
	if other.TranscriptPath != "" {
		c.TranscriptPath = other.TranscriptPath
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}

// Validate reports every missing required value at once.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Server) == "" {
		missing = append(missing, "server")
	}
	if strings.TrimSpace(c.Channel) == "" {
		missing = append(missing, "channel")
	}
	if strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "username")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalid, strings.Join(missing, ", "))
	}
	if c.KeepaliveInterval <= 0 {
		return fmt.Errorf("%w: keepalive_interval must be positive", ErrInvalid)
	}
	return nil
}

// Redacted returns a copy safe to print or log.
func (c Config) Redacted() Config {
	if c.Password != "" {
		c.Password = "<redacted>"
	}
	if c.StatusToken != "" {
		c.StatusToken = "<redacted>"
	}
	return c
}
