package storage

import (
	"context"
	"time"

	"github.com/paircraft/paircraft/internal/models"
)

// RoomStorage defines interface for room persistence
type RoomStorage interface {
	// CreateRoom creates a new room in the storage
	// Returns ErrRoomAlreadyExists if the id is taken
	CreateRoom(ctx context.Context, room *models.Room) error

	// GetRoom retrieves room by ID
	// Returns ErrRoomNotFound if room doesn't exist
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)

	// UpdateRoomCode replaces the room's buffer contents
	// Returns ErrRoomNotFound if room doesn't exist
	UpdateRoomCode(ctx context.Context, roomID, code string) error

	// UpdateRoomLanguage replaces the room's language together with
	// the buffer contents
	// Returns ErrRoomNotFound if room doesn't exist
	UpdateRoomLanguage(ctx context.Context, roomID, language, code string) error

	// DeleteRoom deletes room by ID
	// Returns ErrRoomNotFound if room doesn't exist
	DeleteRoom(ctx context.Context, roomID string) error

	// DeleteRoomsBefore removes rooms not updated since the cutoff.
	// Returns the number of rooms removed.
	DeleteRoomsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
