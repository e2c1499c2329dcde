package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/hackchat-bot/internal/app"
	"github.com/vovakirdan/hackchat-bot/internal/config"
	"github.com/vovakirdan/hackchat-bot/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "hackchat-bot",
		Short:         "Channel bot for hack.chat style WebSocket servers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLogger := log.NewWithWriter(cmd.ErrOrStderr(), "info")
			cfg, err := config.Load(bootLogger, configPath, cmd.Flags())
			if err != nil {
				bootLogger.Error().Err(err).Msg("load config")
				return err
			}
			logger := log.New(cfg.LogLevel)

			application, err := app.New(&cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("startup failed")
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info().Str("server", cfg.Server).Str("channel", cfg.Channel).Msg("starting bot")
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("bot exited with error")
				return err
			}
			logger.Info().Msg("bot stopped")
			return nil
		},
	}

	defaults := config.Default()
	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "optional YAML config file")
	flags.String("server", defaults.Server, "chat server WebSocket URL (env HACK_SERVER)")
	flags.String("channel", defaults.Channel, "channel to join (env HACK_CHANNEL)")
	flags.String("username", defaults.Username, "display name (env HACK_USERNAME)")
	flags.String("password", defaults.Password, "optional channel password (env HACK_PASSWORD)")
	flags.String("log-level", defaults.LogLevel, "debug, info, warn or error")
	flags.Duration("keepalive-interval", defaults.KeepaliveInterval, "interval between keepalive pings")
	flags.Bool("case-sensitive", defaults.CaseSensitive, "compare usernames exactly instead of case-insensitively")
	flags.Bool("dedupe-roster", defaults.DedupeRoster, "replace instead of append when a user joins twice")
	flags.String("status-addr", defaults.StatusAddr, "listen address for the status API, empty to disable")
	flags.String("status-token", defaults.StatusToken, "bearer token required by the status API")
	flags.String("transcript-path", defaults.TranscriptPath, "SQLite file for the chat transcript, empty to disable")
	flags.Duration("shutdown-timeout", defaults.ShutdownTimeout, "status server shutdown timeout")

	root.AddCommand(newConfigCmd(&configPath))
	return root
}

func newConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLogger := log.NewWithWriter(cmd.ErrOrStderr(), "warn")
			cfg, err := config.Load(bootLogger, *configPath, cmd.Flags())
			if err != nil {
				bootLogger.Error().Err(err).Msg("load config")
				return err
			}
			return config.WriteYAML(cmd.OutOrStdout(), cfg)
		},
	}
}
