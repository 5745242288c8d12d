// Package config загружает конфигурацию сервера из переменных окружения.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config описывает конфигурацию room service
type Config struct {
	// Addr — адрес HTTP сервера
	Addr string `env:"PAIRCRAFT_ADDR" envDefault:":8000"`

	// DatabasePath — путь к файлу SQLite
	DatabasePath string `env:"PAIRCRAFT_DB_PATH" envDefault:"paircraft.db"`

	// RedisAddr — адрес Redis для мостов между инстансами.
	// Пустое значение отключает мост: комнаты живут в одном процессе.
	RedisAddr string `env:"PAIRCRAFT_REDIS_ADDR"`

	// RedisPassword — пароль Redis
	RedisPassword string `env:"PAIRCRAFT_REDIS_PASSWORD"`

	// RunnerURL — адрес внешнего сервиса выполнения кода.
	// Пустое значение отключает выполнение.
	RunnerURL string `env:"PAIRCRAFT_RUNNER_URL"`

	// AIBaseURL — базовый URL OpenAI-совместимого API подсказок
	AIBaseURL string `env:"PAIRCRAFT_AI_BASE_URL" envDefault:"https://api.openai.com/v1"`

	// AIAPIKey — ключ API подсказок. Пустое значение отключает подсказки.
	AIAPIKey string `env:"PAIRCRAFT_AI_API_KEY"`

	// RoomTTL — время жизни комнаты без правок
	RoomTTL time.Duration `env:"PAIRCRAFT_ROOM_TTL" envDefault:"24h"`

	// LogLevel — уровень логирования (debug, info, warn, error)
	LogLevel string `env:"PAIRCRAFT_LOG_LEVEL" envDefault:"info"`
}

// Load читает конфигурацию из окружения
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
