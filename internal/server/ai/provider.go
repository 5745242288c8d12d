// Package ai предоставляет серверный адаптер подсказок кода поверх
// OpenAI-совместимых chat completion API.
package ai

import (
	"context"

	"github.com/paircraft/paircraft/pkg/api"
)

// Provider выполняет один запрос подсказки
type Provider interface {
	// Complete возвращает продолжение кода для позиции курсора.
	// Пустая строка без ошибки означает "подсказки нет".
	Complete(ctx context.Context, req api.CompletionRequest) (string, error)

	// Models возвращает каталог доступных моделей
	Models() []api.Model
}

// Catalog — статический каталог моделей, предлагаемых сервисом.
// Ключ "auto" выбирает лучшую доступную модель на стороне сервера.
var Catalog = []api.Model{
	{Key: "auto", Name: "Auto (Best Available)"},
	{Key: "deepseek", Name: "DeepSeek V3"},
	{Key: "claude-haiku", Name: "Claude 3 Haiku"},
	{Key: "gpt-3.5", Name: "GPT-3.5 Turbo"},
	{Key: "gpt-4o-mini", Name: "GPT-4o Mini"},
	{Key: "llama-3", Name: "Llama 3.1 8B"},
	{Key: "gemini", Name: "Gemini 1.5 Flash"},
	{Key: "mistral", Name: "Mistral 7B"},
}

// modelAliases отображает ключи каталога в имена моделей провайдера
var modelAliases = map[string]string{
	"auto":         "gpt-4o-mini",
	"deepseek":     "deepseek-chat",
	"claude-haiku": "claude-3-haiku-20240307",
	"gpt-3.5":      "gpt-3.5-turbo",
	"gpt-4o-mini":  "gpt-4o-mini",
	"llama-3":      "llama-3.1-8b-instant",
	"gemini":       "gemini-1.5-flash",
	"mistral":      "mistral-7b-instruct",
}

// ResolveModel возвращает имя модели провайдера для ключа каталога
func ResolveModel(key string) string {
	if name, ok := modelAliases[key]; ok {
		return name
	}
	return modelAliases["auto"]
}
