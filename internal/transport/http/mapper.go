package http

import (
	"time"

	"github.com/vovakirdan/hackchat-bot/internal/core"
	"github.com/vovakirdan/hackchat-bot/internal/store"
)

func userToResponse(u core.User) UserResponse {
	return UserResponse{
		Nick:  u.Username,
		Trip:  u.Trip,
		Level: int(u.Level),
		Role:  u.Level.String(),
	}
}

func entryToResponse(e *store.Entry) EntryResponse {
	return EntryResponse{
		ID:        e.ID,
		Kind:      string(e.Kind),
		Nick:      e.Nick,
		Text:      e.Text,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
