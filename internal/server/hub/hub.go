// Package hub владеет live-каналами комнат: принимает WebSocket
// подключения, упорядочивает входящие события и рассылает их всем
// участникам комнаты. Сервер не выполняет слияние правок: события
// применяются к авторитетной копии в порядке получения, последняя
// запись побеждает.
package hub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/paircraft/paircraft/internal/server/storage"
	"github.com/paircraft/paircraft/internal/validation"
	"github.com/paircraft/paircraft/pkg/api"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Комнаты доступны по непубличному UUID, происхождение не проверяем
		return true
	},
}

// Bridge доставляет события комнат между инстансами сервера.
// Nil-мост означает один инстанс: все участники комнаты локальны.
type Bridge interface {
	// Publish рассылает событие другим инстансам
	Publish(ctx context.Context, roomID string, ev api.Event) error
}

type inboundMessage struct {
	client *Client
	event  api.Event
}

type remoteMessage struct {
	roomID string
	event  api.Event
}

// Hub управляет участниками всех комнат. Состояние комнат принадлежит
// горутине run: регистрация, отключения и события проходят через
// каналы и обрабатываются строго последовательно.
type Hub struct {
	logger *slog.Logger
	store  storage.RoomStorage
	bridge Bridge

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage
	remote     chan remoteMessage
	quit       chan struct{}
	done       chan struct{}

	// rooms принадлежит горутине run
	rooms map[string]map[*Client]bool
}

// New создает hub. Мост bridge может быть nil.
func New(logger *slog.Logger, store storage.RoomStorage, bridge Bridge) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		store:      store,
		bridge:     bridge,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundMessage, 64),
		remote:     make(chan remoteMessage, 64),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]bool),
	}
}

// Run запускает цикл обработки. Блокируется до Stop.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case msg := <-h.inbound:
			h.handleEvent(msg.client, msg.event)

		case msg := <-h.remote:
			// События других инстансов раздаются локальным участникам
			// как есть: владеющий инстанс уже сохранил их в БД
			h.broadcastLocal(msg.roomID, msg.event)

		case <-h.quit:
			h.closeAll()
			return
		}
	}
}

// Stop останавливает цикл и закрывает все соединения
func (h *Hub) Stop() {
	close(h.quit)
	<-h.done
}

// DeliverRemote передает событие, полученное от другого инстанса
func (h *Hub) DeliverRemote(roomID string, ev api.Event) {
	select {
	case h.remote <- remoteMessage{roomID: roomID, event: ev}:
	case <-h.quit:
	}
}

// ServeWS обрабатывает GET /ws/{roomID}?username=...
// Подключение к несуществующей комнате закрывается кодом 4001:
// это отказ политики, клиент не должен переподключаться.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomID")
	username := validation.NormalizeUsername(r.URL.Query().Get("username"))
	if err := validation.ValidateUsername(username); err != nil {
		username = validation.DefaultUsername
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	if err := validation.ValidateRoomID(roomID); err != nil {
		h.rejectConn(conn, "invalid room id")
		return
	}

	if _, err := h.store.GetRoom(r.Context(), roomID); err != nil {
		if errors.Is(err, storage.ErrRoomNotFound) {
			h.rejectConn(conn, "room not found")
			return
		}
		h.logger.Error("failed to check room", "room_id", roomID, "error", err)
		_ = conn.Close()
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan api.Event, sendBufferSize),
		id:       uuid.New().String(),
		username: username,
		roomID:   roomID,
	}

	select {
	case h.register <- client:
	case <-h.quit:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// rejectConn закрывает соединение кодом отказа политики
func (h *Hub) rejectConn(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(api.ClosePolicyRejection, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}

func (h *Hub) handleRegister(client *Client) {
	members := h.rooms[client.roomID]
	if members == nil {
		members = make(map[*Client]bool)
		h.rooms[client.roomID] = members
	}
	members[client] = true

	h.logger.Info("client joined room",
		"room_id", client.roomID,
		"user_id", client.id,
		"username", client.username,
		"members", len(members))

	// Новый участник получает init со своим идентификатором и составом
	client.trySend(api.Event{
		Type:      api.EventInit,
		RoomID:    client.roomID,
		UserID:    client.id,
		Username:  client.username,
		UserCount: api.Int(len(members)),
		Users:     h.roster(client.roomID),
	})

	// Все участники узнают о входе
	joined := api.Event{
		Type:      api.EventUserJoined,
		RoomID:    client.roomID,
		UserID:    client.id,
		Username:  client.username,
		UserCount: api.Int(len(members)),
		Users:     h.roster(client.roomID),
	}
	h.broadcastLocal(client.roomID, joined)
	h.publish(client.roomID, joined)
}

func (h *Hub) handleUnregister(client *Client) {
	members := h.rooms[client.roomID]
	if members == nil || !members[client] {
		return
	}

	delete(members, client)
	close(client.send)
	if len(members) == 0 {
		delete(h.rooms, client.roomID)
	}

	h.logger.Info("client left room",
		"room_id", client.roomID,
		"user_id", client.id,
		"members", len(members))

	left := api.Event{
		Type:      api.EventUserLeft,
		RoomID:    client.roomID,
		UserID:    client.id,
		Username:  client.username,
		UserCount: api.Int(len(members)),
		Users:     h.roster(client.roomID),
	}
	h.broadcastLocal(client.roomID, left)
	h.publish(client.roomID, left)
}

// handleEvent применяет событие участника: сохраняет авторитетную
// копию и рассылает событие всем участникам комнаты, включая
// отправителя. Подавление эха — обязанность клиента.
func (h *Hub) handleEvent(client *Client, ev api.Event) {
	ctx := context.Background()

	ev.RoomID = client.roomID
	ev.UserID = client.id
	if ev.Username == "" {
		ev.Username = client.username
	}

	switch ev.Type {
	case api.EventCodeUpdate:
		if ev.Code == nil {
			return
		}
		if err := h.store.UpdateRoomCode(ctx, client.roomID, *ev.Code); err != nil {
			h.logger.Error("failed to persist code update",
				"room_id", client.roomID, "error", err)
		}

	case api.EventLanguageChange:
		if ev.Language == "" {
			return
		}
		code := ""
		if ev.Code != nil {
			code = *ev.Code
		}
		if err := h.store.UpdateRoomLanguage(ctx, client.roomID, ev.Language, code); err != nil {
			h.logger.Error("failed to persist language change",
				"room_id", client.roomID, "error", err)
		}

	case api.EventCursorPosition:
		// Позиции курсора эфемерны, в БД не сохраняются

	default:
		h.logger.Debug("ignoring unknown event",
			"type", ev.Type, "room_id", client.roomID)
		return
	}

	h.broadcastLocal(client.roomID, ev)
	h.publish(client.roomID, ev)
}

// broadcastLocal рассылает событие локальным участникам комнаты.
// Отстающий участник теряет событие, но не блокирует остальных.
func (h *Hub) broadcastLocal(roomID string, ev api.Event) {
	for client := range h.rooms[roomID] {
		client.trySend(ev)
	}
}

// publish передает событие мосту между инстансами
func (h *Hub) publish(roomID string, ev api.Event) {
	if h.bridge == nil {
		return
	}
	if err := h.bridge.Publish(context.Background(), roomID, ev); err != nil {
		h.logger.Warn("failed to publish event to bridge",
			"room_id", roomID, "error", err)
	}
}

// roster возвращает отсортированный список участников комнаты
func (h *Hub) roster(roomID string) []api.UserInfo {
	members := h.rooms[roomID]
	users := make([]api.UserInfo, 0, len(members))
	for client := range members {
		users = append(users, api.UserInfo{
			UserID:   client.id,
			Username: client.username,
		})
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].UserID < users[j].UserID
	})
	return users
}

func (h *Hub) closeAll() {
	for roomID, members := range h.rooms {
		for client := range members {
			close(client.send)
			_ = client.conn.Close()
		}
		delete(h.rooms, roomID)
	}
}
