package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/paircraft/paircraft/internal/langs"
	"github.com/paircraft/paircraft/internal/models"
	"github.com/paircraft/paircraft/internal/server/ai"
	"github.com/paircraft/paircraft/internal/server/runner"
	"github.com/paircraft/paircraft/internal/server/storage"
	"github.com/paircraft/paircraft/internal/validation"
	"github.com/paircraft/paircraft/pkg/api"
)

// CodeRunner выполняет код комнаты. Реализуется runner.Client.
type CodeRunner interface {
	Run(ctx context.Context, language, code string) (*api.RunCodeResponse, error)
}

// RoomsHandler обрабатывает REST запросы комнат
type RoomsHandler struct {
	logger      *slog.Logger
	roomStorage storage.RoomStorage
	provider    ai.Provider
	runner      CodeRunner
}

// NewRoomsHandler создает новый handler для комнат
func NewRoomsHandler(logger *slog.Logger, roomStorage storage.RoomStorage, provider ai.Provider, codeRunner CodeRunner) *RoomsHandler {
	return &RoomsHandler{
		logger:      logger,
		roomStorage: roomStorage,
		provider:    provider,
		runner:      codeRunner,
	}
}

// CreateRoom обрабатывает POST /rooms
// Создает комнату со стартовым фрагментом кода выбранного языка
func (h *RoomsHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Парсим request body
	var req api.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode create room request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	language := langs.Normalize(req.Language)

	now := time.Now().UTC()
	room := &models.Room{
		ID:        uuid.New().String(),
		Code:      langs.StarterCode(language),
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.roomStorage.CreateRoom(ctx, room); err != nil {
		h.logger.ErrorContext(ctx, "failed to create room", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "room created",
		slog.String("room_id", room.ID),
		slog.String("language", language))

	h.sendJSON(w, api.CreateRoomResponse{RoomID: room.ID}, http.StatusCreated)
}

// GetRoom обрабатывает GET /rooms/{id}
func (h *RoomsHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roomID := r.PathValue("id")
	if err := validation.ValidateRoomID(roomID); err != nil {
		h.sendError(w, "invalid room id", http.StatusBadRequest)
		return
	}

	room, err := h.roomStorage.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, storage.ErrRoomNotFound) {
			h.sendError(w, "room not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get room", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, api.RoomResponse{
		ID:        room.ID,
		Code:      room.Code,
		Language:  room.Language,
		CreatedAt: room.CreatedAt.Format(time.RFC3339),
	}, http.StatusOK)
}

// RunCode обрабатывает POST /rooms/{id}/run
// Проксирует выполнение кода во внешний execution service
func (h *RoomsHandler) RunCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roomID := r.PathValue("id")
	if err := validation.ValidateRoomID(roomID); err != nil {
		h.sendError(w, "invalid room id", http.StatusBadRequest)
		return
	}

	var req api.RunCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Комната должна существовать
	if _, err := h.roomStorage.GetRoom(ctx, roomID); err != nil {
		if errors.Is(err, storage.ErrRoomNotFound) {
			h.sendError(w, "room not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get room", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	result, err := h.runner.Run(ctx, req.Language, req.Code)
	if err != nil {
		if errors.Is(err, runner.ErrNotConfigured) {
			h.sendError(w, "code execution is not available", http.StatusServiceUnavailable)
			return
		}
		h.logger.ErrorContext(ctx, "code execution failed", slog.Any("error", err))
		h.sendError(w, "execution service failed", http.StatusBadGateway)
		return
	}

	h.sendJSON(w, result, http.StatusOK)
}

// Autocomplete обрабатывает POST /rooms/autocomplete
// Сбой провайдера деградирует до пустой подсказки: для клиента
// подсказка — улучшение, а не обязательная возможность
func (h *RoomsHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Code == "" {
		h.sendJSON(w, api.CompletionResponse{}, http.StatusOK)
		return
	}

	suggestion, err := h.provider.Complete(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "completion provider failed", slog.Any("error", err))
		h.sendJSON(w, api.CompletionResponse{}, http.StatusOK)
		return
	}

	h.sendJSON(w, api.CompletionResponse{
		Suggestion: suggestion,
		Position:   req.CursorPosition,
	}, http.StatusOK)
}

// ListModels обрабатывает GET /rooms/models
func (h *RoomsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, api.ModelsResponse{Models: h.provider.Models()}, http.StatusOK)
}

// sendJSON отправляет JSON ответ
func (h *RoomsHandler) sendJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h *RoomsHandler) sendError(w http.ResponseWriter, message string, status int) {
	h.sendJSON(w, api.ErrorResponse{Error: message}, status)
}
