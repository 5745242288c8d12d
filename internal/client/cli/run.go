package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/paircraft/paircraft/internal/validation"
	"github.com/paircraft/paircraft/pkg/api"
)

func (c *Cli) runRun(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: paircraft run <room-id> [file]")
	}
	roomID := args[0]

	if err := validation.ValidateRoomID(roomID); err != nil {
		return fmt.Errorf("invalid room id: %w", err)
	}

	room, err := c.apiClient.GetRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	// По умолчанию выполняется буфер комнаты; локальный файл заменяет его
	code := room.Code
	if len(args) > 1 {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		code = string(data)
	}

	resp, err := c.apiClient.RunCode(ctx, roomID, api.RunCodeRequest{
		Code:     code,
		Language: room.Language,
	})
	if err != nil {
		return fmt.Errorf("failed to run code: %w", err)
	}

	if resp.Output != "" {
		c.io.Printf("%s", resp.Output)
	}
	if resp.Error != "" {
		c.io.Printf("stderr: %s\n", resp.Error)
	}
	if resp.ExecutionTime > 0 {
		c.io.Printf("(%.3fs)\n", resp.ExecutionTime)
	}

	return nil
}
