package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/hackchat-bot/internal/core"
	"github.com/vovakirdan/hackchat-bot/internal/session"
	"github.com/vovakirdan/hackchat-bot/internal/store"
)

const (
	defaultTranscriptLimit = 50
	maxTranscriptLimit     = 500
)

// SessionView is the read-only part of a session the status API exposes.
type SessionView interface {
	ID() string
	State() session.State
	Channel() string
	Nick() string
	Self() string
	Users() []core.User
}

// StatusHandlers provides HTTP handlers for the status endpoints.
type StatusHandlers struct {
	view  SessionView
	store store.TranscriptStore
	log   *zerolog.Logger
}

// NewStatusHandlers creates a new status handlers instance.
func NewStatusHandlers(view SessionView, st store.TranscriptStore, logger *zerolog.Logger) *StatusHandlers {
	return &StatusHandlers{
		view:  view,
		store: st,
		log:   logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse represents a roster entry in API responses.
type UserResponse struct {
	Nick  string `json:"nick"`
	Trip  string `json:"trip,omitempty"`
	Level int    `json:"level"`
	Role  string `json:"role"`
}

// SessionResponse represents the session status body.
type SessionResponse struct {
	ID      string         `json:"id"`
	State   string         `json:"state"`
	Channel string         `json:"channel"`
	Nick    string         `json:"nick"`
	Self    string         `json:"self,omitempty"`
	Users   []UserResponse `json:"users"`
}

// EntryResponse represents a transcript line in API responses.
type EntryResponse struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	Nick      string `json:"nick"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// Session reports connection state and the current roster.
// GET /api/session
func (h *StatusHandlers) Session(c *gin.Context) {
	users := h.view.Users()
	resp := SessionResponse{
		ID:      h.view.ID(),
		State:   h.view.State().String(),
		Channel: h.view.Channel(),
		Nick:    h.view.Nick(),
		Self:    h.view.Self(),
		Users:   make([]UserResponse, 0, len(users)),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, userToResponse(u))
	}

	c.JSON(http.StatusOK, resp)
}

// Transcript returns recent transcript lines for the session's channel.
// GET /api/transcript?limit=50&before=123
func (h *StatusHandlers) Transcript(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "transcript disabled"})
		return
	}

	limit := defaultTranscriptLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxTranscriptLimit)
	}

	var beforeID *int64
	if raw := c.Query("before"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before"})
			return
		}
		beforeID = &id
	}

	entries, err := h.store.ListEntries(c.Request.Context(), h.view.Channel(), limit, beforeID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list transcript")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, entryToResponse(e))
	}
	c.JSON(http.StatusOK, resp)
}
