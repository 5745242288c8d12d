package hub

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/paircraft/paircraft/pkg/api"
)

const (
	// writeWait — время на одну запись в сокет
	writeWait = 10 * time.Second

	// pongWait — время ожидания pong от клиента
	pongWait = 60 * time.Second

	// pingPeriod должен быть меньше pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize — лимит размера входящего события
	maxMessageSize = 1 << 20

	// sendBufferSize — буфер исходящих событий участника
	sendBufferSize = 256
)

// Client представляет одного участника комнаты
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan api.Event
	id       string
	username string
	roomID   string
}

// trySend ставит событие в очередь участника.
// Переполненный буфер означает безнадежно отстающего участника:
// событие отбрасывается, чтобы не блокировать комнату.
func (c *Client) trySend(ev api.Event) {
	select {
	case c.send <- ev:
	default:
		c.hub.logger.Warn("dropping event for slow client",
			"user_id", c.id, "room_id", c.roomID, "type", ev.Type)
	}
}

// readPump читает события участника и передает их hub.
// Единственная горутина, читающая из этого соединения.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev api.Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("unexpected close",
					"user_id", c.id, "room_id", c.roomID, "error", err)
			}
			return
		}

		select {
		case c.hub.inbound <- inboundMessage{client: c, event: ev}:
		case <-c.hub.quit:
			return
		}
	}
}

// writePump пишет события из очереди в сокет и поддерживает ping.
// Единственная горутина, пишущая в это соединение.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл очередь
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
