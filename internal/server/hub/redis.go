package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/paircraft/paircraft/pkg/api"
)

const channelPrefix = "room:"

// envelope оборачивает событие идентификатором инстанса,
// чтобы инстанс не применял собственные публикации повторно
type envelope struct {
	Instance string    `json:"instance"`
	Event    api.Event `json:"event"`
}

// RedisBridge доставляет события комнат между инстансами сервера
// через Redis pub/sub. Каждая комната — отдельный канал.
type RedisBridge struct {
	rdb        *redis.Client
	logger     *slog.Logger
	instanceID string
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewRedisBridge создает мост. Соединение проверяется при Start.
func NewRedisBridge(addr, password string, logger *slog.Logger) *RedisBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBridge{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		logger:     logger,
		instanceID: uuid.New().String(),
		done:       make(chan struct{}),
	}
}

// Publish рассылает событие другим инстансам
func (b *RedisBridge) Publish(ctx context.Context, roomID string, ev api.Event) error {
	payload, err := json.Marshal(envelope{
		Instance: b.instanceID,
		Event:    ev,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err := b.rdb.Publish(ctx, channelPrefix+roomID, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	return nil
}

// Start подключается к Redis и начинает доставлять чужие события в hub
func (b *RedisBridge) Start(ctx context.Context, h *Hub) error {
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	pubsub := b.rdb.PSubscribe(subCtx, channelPrefix+"*")

	go func() {
		defer close(b.done)
		defer func() {
			_ = pubsub.Close()
		}()

		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.deliver(h, msg)
			case <-subCtx.Done():
				return
			}
		}
	}()

	b.logger.Info("redis bridge started", "instance_id", b.instanceID)
	return nil
}

// deliver передает одно сообщение pub/sub в hub
func (b *RedisBridge) deliver(h *Hub, msg *redis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		b.logger.Warn("dropping malformed bridge message", "error", err)
		return
	}

	// Собственные публикации уже разосланы локально
	if env.Instance == b.instanceID {
		return
	}

	roomID := strings.TrimPrefix(msg.Channel, channelPrefix)
	h.DeliverRemote(roomID, env.Event)
}

// Stop останавливает подписку и закрывает соединение
func (b *RedisBridge) Stop() error {
	if b.cancel != nil {
		b.cancel()
		<-b.done
	}
	return b.rdb.Close()
}
