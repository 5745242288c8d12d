package validation

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidateRoomID проверяет, что идентификатор комнаты — корректный UUID.
// Сервер генерирует идентификаторы сам, поэтому любой другой формат
// гарантированно не существует.
func ValidateRoomID(roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room id cannot be empty")
	}

	if _, err := uuid.Parse(roomID); err != nil {
		return fmt.Errorf("room id must be a valid UUID")
	}

	return nil
}
