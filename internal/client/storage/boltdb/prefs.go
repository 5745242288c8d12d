package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/paircraft/paircraft/internal/client/storage"
)

const (
	keyUsername     = "username"
	keyModel        = "model"
	keyAutocomplete = "autocomplete"
)

// SaveUsername persists the display name used when joining rooms
func (s *Storage) SaveUsername(ctx context.Context, username string) error {
	return s.putPref(keyUsername, []byte(username))
}

// GetUsername retrieves the saved display name
func (s *Storage) GetUsername(ctx context.Context) (string, error) {
	data, err := s.getPref(keyUsername)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveModel persists the selected completion model key
func (s *Storage) SaveModel(ctx context.Context, model string) error {
	return s.putPref(keyModel, []byte(model))
}

// GetModel retrieves the saved completion model key
func (s *Storage) GetModel(ctx context.Context) (string, error) {
	data, err := s.getPref(keyModel)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveAutocomplete persists the autocomplete on/off toggle
func (s *Storage) SaveAutocomplete(ctx context.Context, enabled bool) error {
	value := []byte{0}
	if enabled {
		value[0] = 1
	}
	return s.putPref(keyAutocomplete, value)
}

// GetAutocomplete retrieves the autocomplete toggle
// Defaults to true when never saved
func (s *Storage) GetAutocomplete(ctx context.Context) (bool, error) {
	data, err := s.getPref(keyAutocomplete)
	if err != nil {
		if err == storage.ErrPrefNotFound {
			// Подсказки включены по умолчанию
			return true, nil
		}
		return false, err
	}
	return len(data) == 1 && data[0] == 1, nil
}

// SaveRecentRoom records a room the user joined.
// Ключ — время захода, поэтому курсор bucket возвращает комнаты
// в хронологическом порядке.
func (s *Storage) SaveRecentRoom(ctx context.Context, room storage.RecentRoom) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRooms)
		if bucket == nil {
			return fmt.Errorf("recent_rooms bucket not found")
		}

		// Сериализуем данные в JSON
		data, err := json.Marshal(room)
		if err != nil {
			return fmt.Errorf("failed to marshal recent room: %w", err)
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, uint64(room.JoinedAt.UnixNano()))

		if err := bucket.Put(key, data); err != nil {
			return fmt.Errorf("failed to save recent room: %w", err)
		}

		return nil
	})
}

// GetRecentRooms returns recently joined rooms, newest first
func (s *Storage) GetRecentRooms(ctx context.Context, limit int) ([]storage.RecentRoom, error) {
	var rooms []storage.RecentRoom

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRooms)
		if bucket == nil {
			return fmt.Errorf("recent_rooms bucket not found")
		}

		// Обходим с конца: самые новые ключи — самые большие
		c := bucket.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(rooms) >= limit {
				break
			}

			var room storage.RecentRoom
			if err := json.Unmarshal(v, &room); err != nil {
				return fmt.Errorf("failed to unmarshal recent room: %w", err)
			}
			rooms = append(rooms, room)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return rooms, nil
}

// putPref сохраняет одно значение настройки
func (s *Storage) putPref(key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPrefs)
		if bucket == nil {
			return fmt.Errorf("prefs bucket not found")
		}

		if err := bucket.Put([]byte(key), value); err != nil {
			return fmt.Errorf("failed to save pref %s: %w", key, err)
		}

		return nil
	})
}

// getPref читает одно значение настройки
func (s *Storage) getPref(key string) ([]byte, error) {
	var data []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPrefs)
		if bucket == nil {
			return fmt.Errorf("prefs bucket not found")
		}

		value := bucket.Get([]byte(key))
		if value == nil {
			return storage.ErrPrefNotFound
		}

		// Копируем: данные bbolt валидны только внутри транзакции
		data = make([]byte, len(value))
		copy(data, value)

		return nil
	})

	if err != nil {
		return nil, err
	}

	return data, nil
}
