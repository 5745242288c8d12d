package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/paircraft/paircraft/pkg/api"
)

const completionSystemPrompt = "You are a code completion engine. " +
	"Given a code fragment and a cursor position, return only the text " +
	"that should be inserted at the cursor. Do not explain. Do not use markdown."

// OpenAIProvider вызывает OpenAI-совместимый chat completions endpoint
type OpenAIProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewOpenAIProvider создает провайдер подсказок.
// Пустой apiKey не ошибка: провайдер деградирует до пустых подсказок.
func NewOpenAIProvider(baseURL, apiKey string, logger *slog.Logger) *OpenAIProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Models возвращает каталог доступных моделей
func (p *OpenAIProvider) Models() []api.Model {
	return Catalog
}

// Complete возвращает продолжение кода для позиции курсора
func (p *OpenAIProvider) Complete(ctx context.Context, req api.CompletionRequest) (string, error) {
	// Без ключа подсказки просто выключены
	if p.apiKey == "" {
		return "", nil
	}

	prompt := buildPrompt(req)

	body, err := json.Marshal(chatRequest{
		Model: ResolveModel(req.Model),
		Messages: []chatMessage{
			{Role: "system", Content: completionSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   64,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("chat completion error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", nil
	}

	return sanitizeSuggestion(chatResp.Choices[0].Message.Content), nil
}

// buildPrompt формирует текст запроса: код с маркером позиции курсора
func buildPrompt(req api.CompletionRequest) string {
	code := req.Code
	pos := req.CursorPosition
	if pos < 0 {
		pos = 0
	}
	if pos > len(code) {
		pos = len(code)
	}

	return fmt.Sprintf("Language: %s\n\n%s<CURSOR>%s", req.Language, code[:pos], code[pos:])
}

// sanitizeSuggestion убирает markdown-ограждения, которые модели
// добавляют вопреки инструкции
func sanitizeSuggestion(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Отрезаем метку языка на первой строке
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	return s
}
