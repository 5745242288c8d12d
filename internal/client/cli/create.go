package cli

import (
	"context"
	"fmt"

	"github.com/paircraft/paircraft/internal/langs"
)

func (c *Cli) runCreate(ctx context.Context, args []string) error {
	language := langs.DefaultLanguage
	if len(args) > 0 {
		language = langs.Normalize(args[0])
	}

	if !langs.IsSupported(language) {
		return fmt.Errorf("unsupported language %q (supported: %v)", language, langs.Supported())
	}

	resp, err := c.apiClient.CreateRoom(ctx, language)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	c.io.Printf("Room created: %s\n", resp.RoomID)
	c.io.Printf("Language: %s\n", language)
	c.io.Println()
	c.io.Printf("Join it with: paircraft join %s\n", resp.RoomID)

	return nil
}
