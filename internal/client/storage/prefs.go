package storage

import (
	"context"
	"time"
)

// PrefsStorage defines interface for storing local client preferences
type PrefsStorage interface {
	// SaveUsername persists the display name used when joining rooms
	SaveUsername(ctx context.Context, username string) error

	// GetUsername retrieves the saved display name
	// Returns ErrPrefNotFound if no name has been saved yet
	GetUsername(ctx context.Context) (string, error)

	// SaveModel persists the selected completion model key
	SaveModel(ctx context.Context, model string) error

	// GetModel retrieves the saved completion model key
	// Returns ErrPrefNotFound if no model has been selected yet
	GetModel(ctx context.Context) (string, error)

	// SaveAutocomplete persists the autocomplete on/off toggle
	SaveAutocomplete(ctx context.Context, enabled bool) error

	// GetAutocomplete retrieves the autocomplete toggle
	// Defaults to true when never saved
	GetAutocomplete(ctx context.Context) (bool, error)

	// SaveRecentRoom records a room the user joined
	SaveRecentRoom(ctx context.Context, room RecentRoom) error

	// GetRecentRooms returns recently joined rooms, newest first
	GetRecentRooms(ctx context.Context, limit int) ([]RecentRoom, error)
}

// RecentRoom описывает комнату, в которую клиент недавно заходил
type RecentRoom struct {
	RoomID   string    `json:"room_id"`
	Language string    `json:"language"`
	JoinedAt time.Time `json:"joined_at"`
}
