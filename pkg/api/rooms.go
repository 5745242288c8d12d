package api

// CreateRoomRequest представляет запрос на создание новой комнаты
type CreateRoomRequest struct {
	Language string `json:"language"` // язык программирования комнаты
}

// CreateRoomResponse представляет ответ на успешное создание комнаты
type CreateRoomResponse struct {
	RoomID string `json:"roomId"` // идентификатор созданной комнаты
}

// RoomResponse представляет текущее состояние комнаты
type RoomResponse struct {
	ID        string `json:"id"`         // идентификатор комнаты
	Code      string `json:"code"`       // текущее содержимое буфера
	Language  string `json:"language"`   // текущий язык
	CreatedAt string `json:"created_at"` // время создания (RFC3339)
}

// RunCodeRequest представляет запрос на выполнение кода комнаты
type RunCodeRequest struct {
	Code     string `json:"code"`     // исходный код для выполнения
	Language string `json:"language"` // язык программирования
}

// RunCodeResponse представляет результат выполнения кода
type RunCodeResponse struct {
	Output        string  `json:"output"`                  // stdout выполнения
	Error         string  `json:"error,omitempty"`         // stderr или ошибка выполнения
	ExecutionTime float64 `json:"executionTime,omitempty"` // время выполнения в секундах
}

// CompletionRequest представляет запрос на inline-подсказку
type CompletionRequest struct {
	Code           string `json:"code"`            // снимок буфера на момент запроса
	CursorPosition int    `json:"cursorPosition"`  // смещение курсора в снимке
	Language       string `json:"language"`        // язык программирования
	Model          string `json:"model,omitempty"` // выбранная модель, "auto" по умолчанию
}

// CompletionResponse представляет ответ с подсказкой
type CompletionResponse struct {
	Suggestion string `json:"suggestion"` // предложенное продолжение кода
	Position   int    `json:"position"`   // позиция вставки подсказки
}

// Model описывает одну доступную AI модель
type Model struct {
	Key  string `json:"key"`  // машинный ключ модели
	Name string `json:"name"` // человекочитаемое имя
}

// ModelsResponse представляет список доступных моделей
type ModelsResponse struct {
	Models []Model `json:"models"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
