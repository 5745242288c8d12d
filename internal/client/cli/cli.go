package cli

import (
	"fmt"
	"log/slog"

	"github.com/paircraft/paircraft/internal/client/api"
	"github.com/paircraft/paircraft/internal/client/iocli"
	"github.com/paircraft/paircraft/internal/client/storage"
)

type Cli struct {
	apiClient api.ClientAPI
	prefs     storage.PrefsStorage
	io        iocli.IO
	wsURL     string
	logger    *slog.Logger
}

func New(apiClient api.ClientAPI, prefs storage.PrefsStorage, io iocli.IO, wsURL string, logger *slog.Logger) *Cli {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cli{
		apiClient: apiClient,
		prefs:     prefs,
		io:        io,
		wsURL:     wsURL,
		logger:    logger,
	}
}

func PrintUsage() {
	fmt.Println("PairCraft Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  paircraft [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version      Show version information")
	fmt.Println("  --server URL   Server URL (default: http://localhost:8000)")
	fmt.Println("  --ws URL       WebSocket URL (default: ws://localhost:8000)")
	fmt.Println("  --db PATH      Path to local database (default: paircraft-client.db)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  create [language]   Create a new room (default language: python)")
	fmt.Println("  join <room-id>      Join a room and edit collaboratively")
	fmt.Println("  run <room-id> [file]  Execute the room's code, or a local file")
	fmt.Println("  models              List available completion models")
	fmt.Println("  name [username]     Set the display name used in rooms")
	fmt.Println("  status              Show saved preferences and recent rooms")
	fmt.Println()
	fmt.Println("Inside a joined room:")
	fmt.Println("  <text>       Append a line to the shared buffer")
	fmt.Println("  :show        Print the current buffer")
	fmt.Println("  :lang <l>    Change the room language")
	fmt.Println("  :run         Execute the current buffer")
	fmt.Println("  :quit        Leave the room")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  paircraft create go")
	fmt.Println("  paircraft join b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5")
	fmt.Println("  paircraft name alice")
	fmt.Println("  paircraft --server https://example.com models")
}
