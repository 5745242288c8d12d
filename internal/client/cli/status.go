package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/paircraft/paircraft/internal/client/storage"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== PairCraft Status ===")
	c.io.Println()

	username, err := c.prefs.GetUsername(ctx)
	switch {
	case err == storage.ErrPrefNotFound:
		c.io.Println("Display name: not set (run 'paircraft name')")
	case err != nil:
		return fmt.Errorf("failed to read username: %w", err)
	default:
		c.io.Printf("Display name: %s\n", username)
	}

	model, err := c.prefs.GetModel(ctx)
	switch {
	case err == storage.ErrPrefNotFound:
		c.io.Println("Model: auto (default)")
	case err != nil:
		return fmt.Errorf("failed to read model: %w", err)
	default:
		c.io.Printf("Model: %s\n", model)
	}

	enabled, err := c.prefs.GetAutocomplete(ctx)
	if err != nil {
		return fmt.Errorf("failed to read autocomplete preference: %w", err)
	}
	if enabled {
		c.io.Println("Autocomplete: on")
	} else {
		c.io.Println("Autocomplete: off")
	}

	rooms, err := c.prefs.GetRecentRooms(ctx, 5)
	if err != nil {
		return fmt.Errorf("failed to read recent rooms: %w", err)
	}

	c.io.Println()
	if len(rooms) == 0 {
		c.io.Println("No recent rooms.")
		return nil
	}

	c.io.Println("Recent rooms:")
	for _, r := range rooms {
		c.io.Printf("  %s  %-10s  %s\n", r.RoomID, r.Language, r.JoinedAt.Format(time.RFC3339))
	}

	return nil
}
