package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/paircraft/paircraft/internal/client/completion"
	"github.com/paircraft/paircraft/internal/client/session"
	"github.com/paircraft/paircraft/internal/client/storage"
	"github.com/paircraft/paircraft/internal/client/transport"
	"github.com/paircraft/paircraft/internal/langs"
	"github.com/paircraft/paircraft/internal/models"
	"github.com/paircraft/paircraft/internal/validation"
	"github.com/paircraft/paircraft/pkg/api"
)

func (c *Cli) runJoin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: paircraft join <room-id>")
	}
	roomID := args[0]

	if err := validation.ValidateRoomID(roomID); err != nil {
		return fmt.Errorf("invalid room id: %w", err)
	}

	room, err := c.apiClient.GetRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	username, err := c.resolveUsername(ctx)
	if err != nil {
		return err
	}

	// Конвейер подсказок настраивается из сохраненных предпочтений
	pipeline := completion.New(completion.Config{
		Completer: c.apiClient,
		OnSuggestion: func(s completion.Suggestion) {
			c.io.Printf("\n[suggestion] %s\n", s.Text)
		},
		Logger: c.logger,
	})
	if model, err := c.prefs.GetModel(ctx); err == nil {
		pipeline.SetModel(model)
	}
	if enabled, err := c.prefs.GetAutocomplete(ctx); err == nil {
		pipeline.SetEnabled(enabled)
	}

	ws := transport.New(transport.Config{
		URL:    c.wsURL,
		Logger: c.logger,
	})

	sess := session.New(session.Config{
		RoomID:   roomID,
		Username: username,
		Room: models.Room{
			ID:       room.ID,
			Code:     room.Code,
			Language: room.Language,
		},
		Transport:  ws,
		Completion: pipeline,
		Logger:     c.logger,
	})

	if err := sess.Open(ctx); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}
	defer sess.Close()

	if err := c.prefs.SaveRecentRoom(ctx, storage.RecentRoom{
		RoomID:   roomID,
		Language: room.Language,
		JoinedAt: time.Now().UTC(),
	}); err != nil {
		c.logger.Warn("failed to record recent room", "error", err)
	}

	c.io.Printf("Joined room %s as %s (language: %s)\n", roomID, username, room.Language)
	c.io.Println("Type to append lines; :show, :lang <l>, :run, :quit")
	c.io.Println()

	// Фоновая печать удаленной активности
	stopWatch := make(chan struct{})
	go c.watchUpdates(sess, stopWatch)
	defer close(stopWatch)

	return c.editLoop(ctx, sess, roomID)
}

// editLoop читает строки пользователя и применяет их как локальные правки
func (c *Cli) editLoop(ctx context.Context, sess *session.Session, roomID string) error {
	for {
		line, err := c.io.ReadInput("> ")
		if err != nil {
			// EOF завершает сессию штатно
			return nil
		}

		switch {
		case line == ":quit":
			return nil

		case line == ":show":
			snap := sess.Snapshot()
			c.io.Printf("--- %s (%d online) ---\n%s\n---\n", snap.Language, snap.UserCount, snap.Code)

		case line == ":run":
			snap := sess.Snapshot()
			resp, err := c.apiClient.RunCode(ctx, roomID, api.RunCodeRequest{
				Code:     snap.Code,
				Language: snap.Language,
			})
			if err != nil {
				c.io.Printf("run failed: %v\n", err)
				continue
			}
			if resp.Output != "" {
				c.io.Printf("%s", resp.Output)
			}
			if resp.Error != "" {
				c.io.Printf("stderr: %s\n", resp.Error)
			}

		case strings.HasPrefix(line, ":lang "):
			language := langs.Normalize(strings.TrimPrefix(line, ":lang "))
			if !langs.IsSupported(language) {
				c.io.Printf("unsupported language %q\n", language)
				continue
			}
			sess.SetLanguage(language, langs.StarterCode(language))
			c.io.Printf("language changed to %s\n", language)

		case line == "":
			continue

		default:
			snap := sess.Snapshot()
			code := snap.Code
			if code != "" && !strings.HasSuffix(code, "\n") {
				code += "\n"
			}
			code += line + "\n"

			sess.SetLocalCode(code)
			lines := strings.Count(code, "\n")
			sess.SetLocalCursor(lines, 1, len(code))
		}
	}
}

// watchUpdates печатает присутствие удаленных участников
func (c *Cli) watchUpdates(sess *session.Session, stop <-chan struct{}) {
	var lastTypers string

	for {
		select {
		case <-sess.Updates():
			snap := sess.Snapshot()

			names := make([]string, 0, len(snap.ActiveTypers))
			for _, p := range snap.ActiveTypers {
				names = append(names, p.Username)
			}
			typers := strings.Join(names, ", ")

			// Печатаем только изменения, чтобы не засорять терминал
			if typers != lastTypers {
				lastTypers = typers
				if typers != "" {
					c.io.Printf("\n[%s typing...]\n", typers)
				}
			}

		case <-stop:
			return
		}
	}
}

// resolveUsername возвращает сохраненное имя или запрашивает новое
func (c *Cli) resolveUsername(ctx context.Context) (string, error) {
	username, err := c.prefs.GetUsername(ctx)
	if err == nil && username != "" {
		return username, nil
	}
	if err != nil && err != storage.ErrPrefNotFound {
		return "", fmt.Errorf("failed to read username: %w", err)
	}

	input, err := c.io.ReadInput("Display name: ")
	if err != nil {
		return "", fmt.Errorf("failed to read name: %w", err)
	}

	username = validation.NormalizeUsername(input)
	if err := validation.ValidateUsername(username); err != nil {
		return "", fmt.Errorf("invalid name: %w", err)
	}

	if err := c.prefs.SaveUsername(ctx, username); err != nil {
		c.logger.Warn("failed to save username", "error", err)
	}

	return username, nil
}
