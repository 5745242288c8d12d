package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paircraft/paircraft/pkg/api"
)

// ClientAPI определяет операции room service, доступные клиенту
type ClientAPI interface {
	// CreateRoom создает новую комнату с заданным языком
	CreateRoom(ctx context.Context, language string) (*api.CreateRoomResponse, error)

	// GetRoom возвращает текущее состояние комнаты
	GetRoom(ctx context.Context, roomID string) (*api.RoomResponse, error)

	// RunCode выполняет код комнаты во внешнем исполнителе
	RunCode(ctx context.Context, roomID string, req api.RunCodeRequest) (*api.RunCodeResponse, error)

	// Complete запрашивает inline-подсказку
	Complete(ctx context.Context, req api.CompletionRequest) (*api.CompletionResponse, error)

	// ListModels возвращает доступные AI модели
	ListModels(ctx context.Context) (*api.ModelsResponse, error)
}

// Ошибки клиента room service
var (
	// ErrRoomNotFound indicates that the requested room does not exist
	ErrRoomNotFound = errors.New("room not found")

	// ErrRequestFailed indicates a generic room service request failure
	ErrRequestFailed = errors.New("request failed")
)

// defaultModels — встроенный список моделей на случай недоступности сервера
var defaultModels = []api.Model{
	{Key: "auto", Name: "Auto (Best Available)"},
	{Key: "deepseek", Name: "DeepSeek V3"},
	{Key: "claude-haiku", Name: "Claude 3 Haiku"},
	{Key: "gpt-3.5", Name: "GPT-3.5 Turbo"},
	{Key: "gpt-4o-mini", Name: "GPT-4o Mini"},
	{Key: "llama-3", Name: "Llama 3.1 8B"},
	{Key: "gemini", Name: "Gemini 1.5 Flash"},
	{Key: "mistral", Name: "Mistral 7B"},
}

// Client представляет HTTP клиент room service
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var _ ClientAPI = (*Client)(nil)

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateRoom создает новую комнату с заданным языком
func (c *Client) CreateRoom(ctx context.Context, language string) (*api.CreateRoomResponse, error) {
	var resp api.CreateRoomResponse
	req := api.CreateRoomRequest{Language: language}
	if err := c.doRequest(ctx, http.MethodPost, "/rooms", req, &resp); err != nil {
		return nil, fmt.Errorf("create room request failed: %w", err)
	}
	return &resp, nil
}

// GetRoom возвращает текущее состояние комнаты.
// Несуществующая комната возвращается как ErrRoomNotFound.
func (c *Client) GetRoom(ctx context.Context, roomID string) (*api.RoomResponse, error) {
	var resp api.RoomResponse
	url := fmt.Sprintf("/rooms/%s", roomID)
	if err := c.doRequest(ctx, http.MethodGet, url, nil, &resp); err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room request failed: %w", err)
	}
	return &resp, nil
}

// RunCode выполняет код комнаты во внешнем исполнителе
func (c *Client) RunCode(ctx context.Context, roomID string, req api.RunCodeRequest) (*api.RunCodeResponse, error) {
	var resp api.RunCodeResponse
	url := fmt.Sprintf("/rooms/%s/run", roomID)
	if err := c.doRequest(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, fmt.Errorf("run code request failed: %w", err)
	}
	return &resp, nil
}

// Complete запрашивает inline-подсказку для снимка буфера
func (c *Client) Complete(ctx context.Context, req api.CompletionRequest) (*api.CompletionResponse, error) {
	if req.Model == "" {
		req.Model = "auto"
	}

	var resp api.CompletionResponse
	if err := c.doRequest(ctx, http.MethodPost, "/rooms/autocomplete", req, &resp); err != nil {
		return nil, fmt.Errorf("autocomplete request failed: %w", err)
	}
	return &resp, nil
}

// ListModels возвращает доступные AI модели.
// При сбое или пустом ответе возвращается встроенный список по
// умолчанию — это документированная деградация, а не ошибка.
func (c *Client) ListModels(ctx context.Context) (*api.ModelsResponse, error) {
	var resp api.ModelsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/rooms/models", nil, &resp); err != nil {
		return &api.ModelsResponse{Models: defaultModels}, nil
	}
	if len(resp.Models) == 0 {
		return &api.ModelsResponse{Models: defaultModels}, nil
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode == http.StatusNotFound {
		return ErrRoomNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("%w: server error (%d): %s", ErrRequestFailed, resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
