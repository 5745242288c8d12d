package cli

import (
	"context"
	"fmt"

	"github.com/paircraft/paircraft/internal/validation"
)

func (c *Cli) runName(ctx context.Context, args []string) error {
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		input, err := c.io.ReadInput("Display name: ")
		if err != nil {
			return fmt.Errorf("failed to read name: %w", err)
		}
		username = input
	}

	username = validation.NormalizeUsername(username)
	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}

	if err := c.prefs.SaveUsername(ctx, username); err != nil {
		return fmt.Errorf("failed to save name: %w", err)
	}

	c.io.Printf("Display name saved: %s\n", username)
	return nil
}
