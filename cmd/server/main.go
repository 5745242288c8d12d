package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paircraft/paircraft/internal/server/ai"
	"github.com/paircraft/paircraft/internal/server/config"
	"github.com/paircraft/paircraft/internal/server/handlers"
	"github.com/paircraft/paircraft/internal/server/hub"
	"github.com/paircraft/paircraft/internal/server/middleware"
	"github.com/paircraft/paircraft/internal/server/runner"
	"github.com/paircraft/paircraft/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Parse flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище комнат
	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	// Мост между инстансами включается только при настроенном Redis
	var bridge hub.Bridge
	var redisBridge *hub.RedisBridge
	if cfg.RedisAddr != "" {
		redisBridge = hub.NewRedisBridge(cfg.RedisAddr, cfg.RedisPassword, logger)
		bridge = redisBridge
	}

	roomHub := hub.New(logger, store, bridge)
	go roomHub.Run()
	defer roomHub.Stop()

	if redisBridge != nil {
		if err := redisBridge.Start(ctx, roomHub); err != nil {
			return fmt.Errorf("failed to start redis bridge: %w", err)
		}
		defer func() {
			if err := redisBridge.Stop(); err != nil {
				logger.Error("failed to stop redis bridge", "error", err)
			}
		}()
	}

	provider := ai.NewOpenAIProvider(cfg.AIBaseURL, cfg.AIAPIKey, logger)
	codeRunner := runner.New(cfg.RunnerURL)

	roomsHandler := handlers.NewRoomsHandler(logger, store, provider, codeRunner)
	healthHandler := handlers.NewHealthHandler(logger, Version)

	// Дорогие эндпоинты получают отдельный лимит
	expensive := middleware.RateLimitMiddleware(30, time.Minute, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("POST /rooms", roomsHandler.CreateRoom)
	mux.HandleFunc("GET /rooms/models", roomsHandler.ListModels)
	mux.Handle("POST /rooms/autocomplete", expensive(http.HandlerFunc(roomsHandler.Autocomplete)))
	mux.HandleFunc("GET /rooms/{id}", roomsHandler.GetRoom)
	mux.Handle("POST /rooms/{id}/run", expensive(http.HandlerFunc(roomsHandler.RunCode)))
	mux.HandleFunc("GET /ws/{roomID}", roomHub.ServeWS)

	handler := middleware.RecoveryMiddleware(logger)(
		middleware.LoggingWithSkip(logger, []string{"/health"})(mux))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Периодическая очистка заброшенных комнат
	go cleanupLoop(ctx, logger, store, cfg.RoomTTL)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

// cleanupLoop удаляет комнаты без правок дольше TTL
func cleanupLoop(ctx context.Context, logger *slog.Logger, store *sqlite.Storage, ttl time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := store.DeleteRoomsBefore(ctx, time.Now().UTC().Add(-ttl))
			if err != nil {
				logger.Error("room cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("stale rooms removed", "count", removed)
			}
		case <-ctx.Done():
			return
		}
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func printVersion() {
	fmt.Printf("PairCraft Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
