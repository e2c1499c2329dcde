package store

import (
	"context"
	"time"
)

// EntryKind says how a transcript line reached the bot.
type EntryKind string

const (
	EntryKindChat    EntryKind = "chat"
	EntryKindWhisper EntryKind = "whisper"
)

// Entry is one persisted transcript line.
type Entry struct {
	ID        int64
	Channel   string
	Kind      EntryKind
	Nick      string
	Text      string
	CreatedAt time.Time
}

// TranscriptStore handles transcript persistence.
type TranscriptStore interface {
	// SaveEntry persists an entry and sets its ID.
	SaveEntry(ctx context.Context, entry *Entry) error

	// ListEntries retrieves entries of a channel in chronological order.
	// If beforeID is provided, returns entries older than that ID.
	// Limit determines max number of entries to return.
	ListEntries(ctx context.Context, channel string, limit int, beforeID *int64) ([]*Entry, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	TranscriptStore

	// Close closes the underlying database connection.
	Close() error
}
