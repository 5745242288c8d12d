// Package runner проксирует выполнение кода во внешний execution service.
package runner

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

// ErrNotConfigured indicates that no execution service URL is set
var ErrNotConfigured = errors.New("execution service is not configured")

// Client представляет HTTP клиент execution service
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New создает клиент execution service.
// Пустой baseURL допустим: Run вернет ErrNotConfigured.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type executeRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Run выполняет код во внешнем сервисе
func (c *Client) Run(ctx context.Context, language, code string) (*api.RunCodeResponse, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(executeRequest{Language: language, Code: code})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal execute request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("execution service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result api.RunCodeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode execute response: %w", err)
	}

	return &result, nil
}
