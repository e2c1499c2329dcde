package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "HACK"

// Load builds configuration from defaults, optional config file, env vars and flags.
// Precedence: defaults < config file < env vars < flags.
// The config file is optional: a missing file at explicitPath is logged and skipped.
func Load(logger *zerolog.Logger, explicitPath string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("server", cfg.Server)
	v.SetDefault("channel", cfg.Channel)
	v.SetDefault("username", cfg.Username)
	v.SetDefault("password", cfg.Password)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("keepalive_interval", cfg.KeepaliveInterval)
	v.SetDefault("case_sensitive", cfg.CaseSensitive)
	v.SetDefault("dedupe_roster", cfg.DedupeRoster)
	v.SetDefault("status_addr", cfg.StatusAddr)
	v.SetDefault("status_token", cfg.StatusToken)
	v.SetDefault("transcript_path", cfg.TranscriptPath)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return cfg, err
		}
	}

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
				if logger != nil {
					logger.Warn().Str("path", explicitPath).Msg("config file not found, using env and flags")
				}
			} else {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// bindFlags maps kebab-case flag names onto snake_case config keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Name == "config" {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}

// WriteYAML writes the redacted configuration as YAML.
func WriteYAML(w io.Writer, cfg Config) error {
	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = w.Write(data)
	return err
}
