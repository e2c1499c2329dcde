package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/hackchat-bot/internal/config"
	"github.com/vovakirdan/hackchat-bot/internal/store"
)

const readHeaderTimeout = 5 * time.Second

// NewServer builds the status HTTP server. st may be nil when no transcript
// is configured.
func NewServer(view SessionView, st store.TranscriptStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	handlers := NewStatusHandlers(view, st, logger)
	api := router.Group("/api")
	if cfg.StatusToken != "" {
		api.Use(TokenMiddleware(cfg.StatusToken, logger))
	}
	api.GET("/session", handlers.Session)
	api.GET("/transcript", handlers.Transcript)

	return &stdhttp.Server{
		Addr:              cfg.StatusAddr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
