package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paircraft/paircraft/internal/models"
	"github.com/paircraft/paircraft/internal/server/ai"
	"github.com/paircraft/paircraft/internal/server/runner"
	"github.com/paircraft/paircraft/internal/server/storage"
	"github.com/paircraft/paircraft/pkg/api"
)

// setupTestLogger создает логгер, не засоряющий вывод тестов
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memRoomStorage — in-memory реализация RoomStorage для тестов
type memRoomStorage struct {
	mu    sync.Mutex
	rooms map[string]*models.Room
}

func newMemRoomStorage() *memRoomStorage {
	return &memRoomStorage{rooms: make(map[string]*models.Room)}
}

func (m *memRoomStorage) CreateRoom(ctx context.Context, room *models.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.ID]; ok {
		return storage.ErrRoomAlreadyExists
	}
	cp := *room
	m.rooms[room.ID] = &cp
	return nil
}

func (m *memRoomStorage) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, storage.ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

func (m *memRoomStorage) UpdateRoomCode(ctx context.Context, roomID, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return storage.ErrRoomNotFound
	}
	room.Code = code
	room.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memRoomStorage) UpdateRoomLanguage(ctx context.Context, roomID, language, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return storage.ErrRoomNotFound
	}
	room.Language = language
	room.Code = code
	room.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memRoomStorage) DeleteRoom(ctx context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; !ok {
		return storage.ErrRoomNotFound
	}
	delete(m.rooms, roomID)
	return nil
}

func (m *memRoomStorage) DeleteRoomsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// fakeProvider — управляемая заглушка AI провайдера
type fakeProvider struct {
	suggestion string
	err        error
}

func (f *fakeProvider) Complete(ctx context.Context, req api.CompletionRequest) (string, error) {
	return f.suggestion, f.err
}

func (f *fakeProvider) Models() []api.Model {
	return ai.Catalog
}

// fakeRunner — управляемая заглушка execution service
type fakeRunner struct {
	resp *api.RunCodeResponse
	err  error
}

func (f *fakeRunner) Run(ctx context.Context, language, code string) (*api.RunCodeResponse, error) {
	return f.resp, f.err
}

func newTestHandler(store storage.RoomStorage, provider ai.Provider, codeRunner CodeRunner) *RoomsHandler {
	return NewRoomsHandler(setupTestLogger(), store, provider, codeRunner)
}

func seedRoom(t *testing.T, store *memRoomStorage, id string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, store.CreateRoom(context.Background(), &models.Room{
		ID:        id,
		Code:      "print('hello')",
		Language:  "python",
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

const testRoomID = "b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5"

func TestRoomsHandler_CreateRoom(t *testing.T) {
	store := newMemRoomStorage()
	handler := newTestHandler(store, &fakeProvider{}, &fakeRunner{})

	body, _ := json.Marshal(api.CreateRoomRequest{Language: "go"})
	req := httptest.NewRequest(http.MethodPost, "/rooms", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateRoom(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp api.CreateRoomResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.RoomID)

	// Комната создается со стартовым кодом выбранного языка
	room, err := store.GetRoom(context.Background(), resp.RoomID)
	require.NoError(t, err)
	assert.Equal(t, "go", room.Language)
	assert.Contains(t, room.Code, "package main")
}

func TestRoomsHandler_CreateRoom_UnknownLanguageFallsBack(t *testing.T) {
	store := newMemRoomStorage()
	handler := newTestHandler(store, &fakeProvider{}, &fakeRunner{})

	body, _ := json.Marshal(api.CreateRoomRequest{Language: "cobol"})
	req := httptest.NewRequest(http.MethodPost, "/rooms", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateRoom(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp api.CreateRoomResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	room, err := store.GetRoom(context.Background(), resp.RoomID)
	require.NoError(t, err)
	assert.Equal(t, "python", room.Language)
}

func TestRoomsHandler_GetRoom(t *testing.T) {
	store := newMemRoomStorage()
	seedRoom(t, store, testRoomID)
	handler := newTestHandler(store, &fakeProvider{}, &fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/rooms/"+testRoomID, nil)
	req.SetPathValue("id", testRoomID)
	w := httptest.NewRecorder()

	handler.GetRoom(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.RoomResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, testRoomID, resp.ID)
	assert.Equal(t, "print('hello')", resp.Code)
	assert.Equal(t, "python", resp.Language)
}

func TestRoomsHandler_GetRoom_NotFound(t *testing.T) {
	store := newMemRoomStorage()
	handler := newTestHandler(store, &fakeProvider{}, &fakeRunner{})

	id := "11111111-2222-3333-4444-555555555555"
	req := httptest.NewRequest(http.MethodGet, "/rooms/"+id, nil)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()

	handler.GetRoom(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoomsHandler_GetRoom_InvalidID(t *testing.T) {
	store := newMemRoomStorage()
	handler := newTestHandler(store, &fakeProvider{}, &fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/rooms/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	w := httptest.NewRecorder()

	handler.GetRoom(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoomsHandler_RunCode(t *testing.T) {
	store := newMemRoomStorage()
	seedRoom(t, store, testRoomID)
	handler := newTestHandler(store, &fakeProvider{}, &fakeRunner{
		resp: &api.RunCodeResponse{Output: "42\n", ExecutionTime: 0.02},
	})

	body, _ := json.Marshal(api.RunCodeRequest{Code: "print(42)", Language: "python"})
	req := httptest.NewRequest(http.MethodPost, "/rooms/"+testRoomID+"/run", bytes.NewReader(body))
	req.SetPathValue("id", testRoomID)
	w := httptest.NewRecorder()

	handler.RunCode(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.RunCodeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "42\n", resp.Output)
}

func TestRoomsHandler_RunCode_NotConfigured(t *testing.T) {
	store := newMemRoomStorage()
	seedRoom(t, store, testRoomID)
	handler := newTestHandler(store, &fakeProvider{}, &fakeRunner{err: runner.ErrNotConfigured})

	body, _ := json.Marshal(api.RunCodeRequest{Code: "print(42)", Language: "python"})
	req := httptest.NewRequest(http.MethodPost, "/rooms/"+testRoomID+"/run", bytes.NewReader(body))
	req.SetPathValue("id", testRoomID)
	w := httptest.NewRecorder()

	handler.RunCode(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRoomsHandler_Autocomplete(t *testing.T) {
	store := newMemRoomStorage()
	handler := newTestHandler(store, &fakeProvider{suggestion: "n):"}, &fakeRunner{})

	body, _ := json.Marshal(api.CompletionRequest{
		Code:           "def fib(",
		CursorPosition: 8,
		Language:       "python",
		Model:          "auto",
	})
	req := httptest.NewRequest(http.MethodPost, "/rooms/autocomplete", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Autocomplete(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.CompletionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "n):", resp.Suggestion)
	assert.Equal(t, 8, resp.Position)
}

// TestRoomsHandler_Autocomplete_ProviderError проверяет деградацию:
// сбой провайдера — 200 с пустой подсказкой, а не ошибка
func TestRoomsHandler_Autocomplete_ProviderError(t *testing.T) {
	store := newMemRoomStorage()
	handler := newTestHandler(store, &fakeProvider{err: errors.New("provider down")}, &fakeRunner{})

	body, _ := json.Marshal(api.CompletionRequest{Code: "def fib(", CursorPosition: 8})
	req := httptest.NewRequest(http.MethodPost, "/rooms/autocomplete", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Autocomplete(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.CompletionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Empty(t, resp.Suggestion)
}

func TestRoomsHandler_ListModels(t *testing.T) {
	store := newMemRoomStorage()
	handler := newTestHandler(store, &fakeProvider{}, &fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/rooms/models", nil)
	w := httptest.NewRecorder()

	handler.ListModels(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.ModelsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotEmpty(t, resp.Models)
	assert.Equal(t, "auto", resp.Models[0].Key)
}
