package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/paircraft/paircraft/internal/client/storage"
)

// createTestStorage создает временное BoltDB хранилище и инициализирует buckets
func createTestStorage(t *testing.T) (*Storage, func()) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "prefs_test.db")

	ctx := context.Background()
	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		require.NoError(t, store.Close())
		require.NoError(t, os.RemoveAll(tmpDir))
	}

	return store, cleanup
}

func TestSaveAndGetUsername(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	// Изначально имя не сохранено
	_, err := store.GetUsername(ctx)
	assert.ErrorIs(t, err, storage.ErrPrefNotFound)

	// Сохраняем и читаем
	require.NoError(t, store.SaveUsername(ctx, "alice"))

	name, err := store.GetUsername(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	// Повторное сохранение перезаписывает
	require.NoError(t, store.SaveUsername(ctx, "bob"))
	name, err = store.GetUsername(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", name)
}

func TestSaveAndGetModel(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetModel(ctx)
	assert.ErrorIs(t, err, storage.ErrPrefNotFound)

	require.NoError(t, store.SaveModel(ctx, "deepseek"))

	model, err := store.GetModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "deepseek", model)
}

func TestAutocomplete_DefaultEnabled(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	// Без сохраненного значения подсказки включены
	enabled, err := store.GetAutocomplete(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, store.SaveAutocomplete(ctx, false))
	enabled, err = store.GetAutocomplete(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, store.SaveAutocomplete(ctx, true))
	enabled, err = store.GetAutocomplete(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestRecentRooms(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	// Пустое хранилище — пустой список
	rooms, err := store.GetRecentRooms(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	base := time.Unix(1700000000, 0).UTC()
	for i, id := range []string{"room-a", "room-b", "room-c"} {
		err := store.SaveRecentRoom(ctx, storage.RecentRoom{
			RoomID:   id,
			Language: "python",
			JoinedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	// Новые комнаты идут первыми
	rooms, err = store.GetRecentRooms(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, "room-c", rooms[0].RoomID)
	assert.Equal(t, "room-a", rooms[2].RoomID)

	// Лимит усекает список
	rooms, err = store.GetRecentRooms(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "room-c", rooms[0].RoomID)
	assert.Equal(t, "room-b", rooms[1].RoomID)
}

func TestGetPref_BucketMissing(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	// Удаляем bucket prefs напрямую
	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket(bucketPrefs)
	})
	require.NoError(t, err)

	_, err = store.GetUsername(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "prefs bucket not found")

	err = store.SaveUsername(ctx, "alice")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "prefs bucket not found")
}
