package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/hackchat-bot/internal/config"
	"github.com/vovakirdan/hackchat-bot/internal/core"
	"github.com/vovakirdan/hackchat-bot/internal/session"
	"github.com/vovakirdan/hackchat-bot/internal/store"
	"github.com/vovakirdan/hackchat-bot/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/hackchat-bot/internal/transport/http"
)

// App wires together the session, transcript store and status server.
type App struct {
	cfg   *config.Config
	store store.Store
	log   *zerolog.Logger

	opts []session.Option
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger, opts ...session.Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: logger, opts: opts}

	if cfg.TranscriptPath != "" {
		st, err := sqlite.New(cfg.TranscriptPath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		logger.Info().Str("db_path", cfg.TranscriptPath).Msg("transcript initialized")
		a.store = st
	}

	return a, nil
}

// Run connects, joins and runs the session until it ends or ctx is cancelled.
// Connect and join failures are returned without running anything else.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	opts := append([]session.Option(nil), a.opts...)
	var transcript store.TranscriptStore
	if a.store != nil {
		opts = append(opts, session.WithRecorder(a.store))
		transcript = a.store
	}

	sess, err := session.Connect(ctx, a.sessionConfig(), a.log, opts...)
	if err != nil {
		return err
	}
	if err := sess.Join(ctx); err != nil {
		_ = sess.Close()
		return fmt.Errorf("join: %w", err)
	}

	var server *stdhttp.Server
	if a.cfg.StatusAddr != "" {
		server = transporthttp.NewServer(sess, transcript, a.cfg, a.log)
		go func() {
			a.log.Info().Str("addr", a.cfg.StatusAddr).Msg("status server listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				a.log.Error().Err(err).Msg("status server failed")
			}
		}()
	}

	runErr := sess.Run(ctx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down status server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.log.Warn().Err(err).Msg("status server shutdown")
		}
	}

	return runErr
}

func (a *App) sessionConfig() session.Config {
	match := core.MatchFold
	if a.cfg.CaseSensitive {
		match = core.MatchExact
	}
	return session.Config{
		Server:            a.cfg.Server,
		Channel:           a.cfg.Channel,
		Nick:              a.cfg.Username,
		Password:          a.cfg.Password,
		KeepaliveInterval: a.cfg.KeepaliveInterval,
		Match:             match,
		DedupeRoster:      a.cfg.DedupeRoster,
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
