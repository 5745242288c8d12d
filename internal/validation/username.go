package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// UsernamePattern определяет допустимый формат отображаемого имени
// Латинские буквы (a-z, A-Z), цифры (0-9), нижнее подчеркивание (_), дефис (-)
// Длина: 1-32 символа
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,32}$`)

const (
	// MaxUsernameLen максимальная длина отображаемого имени
	MaxUsernameLen = 32

	// DefaultUsername используется, когда имя не задано
	DefaultUsername = "Anonymous"
)

// NormalizeUsername приводит имя к виду, пригодному для подключения
// к комнате: обрезает пробелы, пустое имя заменяет на DefaultUsername,
// слишком длинное усекает. Валидность символов здесь не проверяется —
// для этого есть ValidateUsername.
func NormalizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return DefaultUsername
	}
	if len(username) > MaxUsernameLen {
		username = username[:MaxUsernameLen]
	}
	return username
}

// ValidateUsername проверяет, что отображаемое имя соответствует требованиям
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), underscores (_) and hyphens (-)")
	}

	return nil
}
