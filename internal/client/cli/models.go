package cli

import (
	"context"
	"fmt"

	"github.com/paircraft/paircraft/internal/client/storage"
)

func (c *Cli) runModels(ctx context.Context, args []string) error {
	// Выбор модели: paircraft models <key>
	if len(args) > 0 {
		return c.selectModel(ctx, args[0])
	}

	resp, err := c.apiClient.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	selected, err := c.prefs.GetModel(ctx)
	if err != nil && err != storage.ErrPrefNotFound {
		return fmt.Errorf("failed to read model preference: %w", err)
	}

	c.io.Println("=== Completion Models ===")
	c.io.Println()
	for _, m := range resp.Models {
		marker := "  "
		if m.Key == selected {
			marker = "* "
		}
		c.io.Printf("%s%-14s %s\n", marker, m.Key, m.Name)
	}
	c.io.Println()
	c.io.Println("Select one with: paircraft models <key>")

	return nil
}

func (c *Cli) selectModel(ctx context.Context, key string) error {
	resp, err := c.apiClient.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	for _, m := range resp.Models {
		if m.Key == key {
			if err := c.prefs.SaveModel(ctx, key); err != nil {
				return fmt.Errorf("failed to save model: %w", err)
			}
			c.io.Printf("Model selected: %s (%s)\n", m.Key, m.Name)
			return nil
		}
	}

	return fmt.Errorf("unknown model %q", key)
}
