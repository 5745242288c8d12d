package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paircraft/paircraft/internal/models"
	"github.com/paircraft/paircraft/internal/server/storage"
)

// CreateRoom creates a new room in the storage
func (s *Storage) CreateRoom(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (id, code, language, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		room.ID,
		room.Code,
		room.Language,
		room.CreatedAt,
		room.UpdatedAt,
	)

	if err != nil {
		// Проверяем на duplicate id
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.ErrRoomAlreadyExists
		}
		return fmt.Errorf("failed to insert room: %w", err)
	}

	return nil
}

// GetRoom retrieves room by ID
func (s *Storage) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	query := `
		SELECT id, code, language, created_at, updated_at
		FROM rooms
		WHERE id = ?
	`

	room := &models.Room{}

	err := s.db.QueryRowContext(ctx, query, roomID).Scan(
		&room.ID,
		&room.Code,
		&room.Language,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// UpdateRoomCode replaces the room's buffer contents
func (s *Storage) UpdateRoomCode(ctx context.Context, roomID, code string) error {
	query := `UPDATE rooms SET code = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, code, time.Now().UTC(), roomID)
	if err != nil {
		return fmt.Errorf("failed to update room code: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrRoomNotFound
	}

	return nil
}

// UpdateRoomLanguage replaces the room's language together with the buffer
func (s *Storage) UpdateRoomLanguage(ctx context.Context, roomID, language, code string) error {
	query := `UPDATE rooms SET language = ?, code = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, language, code, time.Now().UTC(), roomID)
	if err != nil {
		return fmt.Errorf("failed to update room language: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrRoomNotFound
	}

	return nil
}

// DeleteRoom deletes room by ID
func (s *Storage) DeleteRoom(ctx context.Context, roomID string) error {
	query := `DELETE FROM rooms WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, roomID)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrRoomNotFound
	}

	return nil
}

// DeleteRoomsBefore removes rooms not updated since the cutoff
func (s *Storage) DeleteRoomsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM rooms WHERE updated_at < ?`

	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale rooms: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
