// Package transport владеет единственным live-соединением с комнатой:
// подключение, автоматическое переподключение, best-effort отправка и
// доставка входящих событий подписчикам в порядке получения.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"

	"github.com/paircraft/paircraft/pkg/api"
)

// Handler обрабатывает одно входящее событие live-канала.
// Все handlers вызываются последовательно, в порядке регистрации,
// по одному разу на событие.
type Handler func(api.Event)

// HandlerID идентифицирует зарегистрированный handler для отписки.
type HandlerID int

// Config задает параметры транспорта.
// Нулевые значения заменяются умолчаниями в New.
type Config struct {
	// URL — базовый адрес live-канала, например "ws://localhost:8000"
	URL string

	// HandshakeTimeout — максимальное время установки соединения (5s)
	HandshakeTimeout time.Duration

	// ReconnectDelay — базовый интервал линейного backoff (2s)
	ReconnectDelay time.Duration

	// MaxReconnectAttempts — бюджет автоматических переподключений (3)
	MaxReconnectAttempts int

	// Logger для событий транспорта; slog.Default() если не задан
	Logger *slog.Logger
}

// Client поддерживает одно логическое соединение с комнатой.
// Физическим соединением владеет только Client: потребители работают
// исключительно через Connect/Send/OnMessage/Disconnect.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *slog.Logger

	mu          sync.Mutex
	conn        *websocket.Conn
	gen         int // поколение соединения; readLoop устаревшего поколения игнорируется
	roomID      string
	username    string
	connecting  bool
	inflight    chan struct{} // закрывается по завершении текущей попытки Connect
	connectErr  error         // результат последней попытки Connect
	intentional bool          // закрытие вызвано Disconnect
	reconnecting    bool
	reconnectCancel context.CancelFunc

	handlerMu sync.Mutex
	handlers  []registeredHandler
	nextID    HandlerID

	writeMu sync.Mutex
}

type registeredHandler struct {
	id HandlerID
	fn Handler
}

// New создает новый транспорт. Соединение не устанавливается до Connect.
func New(cfg Config) *Client {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 5 * time.Second
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = 2 * time.Second
	}
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		cfg:    cfg,
		logger: cfg.Logger,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}
}

// Connect устанавливает соединение с комнатой.
// Гарантии:
//   - не более одной попытки подключения одновременно; конкурентные вызовы
//     дожидаются завершения текущей попытки и возвращают её результат
//   - повторный Connect к той же комнате при живом соединении — no-op
//   - таймаут рукопожатия возвращается как ErrConnectionTimeout,
//     прочие сбои — как ErrConnectionFailed
func (c *Client) Connect(ctx context.Context, roomID, username string) error {
	c.mu.Lock()

	// Попытка уже идет — присоединяемся к её результату
	if c.connecting {
		ch := c.inflight
		c.mu.Unlock()
		<-ch
		c.mu.Lock()
		err := c.connectErr
		c.mu.Unlock()
		return err
	}

	// Уже подключены к этой же комнате
	if c.conn != nil && c.roomID == roomID {
		c.mu.Unlock()
		return nil
	}

	c.connecting = true
	c.inflight = make(chan struct{})
	c.roomID = roomID
	c.username = username
	c.intentional = false

	// Старое соединение с другой комнатой закрываем; смена поколения
	// не дает его readLoop запустить переподключение
	old := c.conn
	c.conn = nil
	c.gen++
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	wsURL := fmt.Sprintf("%s/ws/%s?username=%s", c.cfg.URL, roomID, url.QueryEscape(username))

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.connectErr = classifyDialError(err)
		c.connecting = false
		close(c.inflight)
		return c.connectErr
	}

	c.conn = conn
	c.gen++
	gen := c.gen
	c.connectErr = nil
	c.connecting = false
	close(c.inflight)

	c.logger.Info("connected to room", "room_id", roomID, "username", username)

	go c.readLoop(conn, gen)

	return nil
}

// Send отправляет событие best-effort: если соединения нет, событие
// молча отбрасывается. Доставка не гарантируется, очереди нет.
func (c *Client) Send(ev api.Event) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error("failed to marshal event", "type", ev.Type, "error", err)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Debug("failed to write event", "type", ev.Type, "error", err)
	}
}

// OnMessage регистрирует handler входящих событий и возвращает
// идентификатор для отписки через RemoveMessageHandler.
func (c *Client) OnMessage(fn Handler) HandlerID {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()

	c.nextID++
	c.handlers = append(c.handlers, registeredHandler{id: c.nextID, fn: fn})
	return c.nextID
}

// RemoveMessageHandler отписывает ранее зарегистрированный handler.
func (c *Client) RemoveMessageHandler(id HandlerID) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()

	for i, h := range c.handlers {
		if h.id == id {
			c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
			return
		}
	}
}

// Disconnect закрывает соединение намеренно: автоматическое
// переподключение подавляется, запланированные попытки отменяются.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.intentional = true
	c.gen++
	conn := c.conn
	c.conn = nil
	c.roomID = ""
	cancel := c.reconnectCancel
	c.reconnectCancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

// IsConnected сообщает, есть ли сейчас живое соединение.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// readLoop читает входящие сообщения одного соединения и раздает их
// handlers. Битое сообщение логируется и отбрасывается — соединение
// и доставка последующих сообщений не прерываются.
func (c *Client) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, gen, err)
			return
		}

		var ev api.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("dropping malformed message", "error", err)
			continue
		}

		c.dispatch(ev)
	}
}

// dispatch вызывает все зарегистрированные handlers по порядку.
// Вызовы идут из единственной горутины readLoop, поэтому порядок
// доставки совпадает с порядком получения.
func (c *Client) dispatch(ev api.Event) {
	c.handlerMu.Lock()
	handlers := make([]registeredHandler, len(c.handlers))
	copy(handlers, c.handlers)
	c.handlerMu.Unlock()

	for _, h := range handlers {
		h.fn(ev)
	}
}

// handleClose обрабатывает завершение readLoop: неожиданный обрыв
// (не Disconnect и не отказ политики) запускает переподключение.
func (c *Client) handleClose(conn *websocket.Conn, gen int, err error) {
	_ = conn.Close()

	c.mu.Lock()
	// Соединение уже заменено или закрыто намеренно
	if gen != c.gen || c.intentional {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	roomID, username := c.roomID, c.username
	c.mu.Unlock()

	if isPolicyRejection(err) {
		c.logger.Warn("connection rejected by server", "room_id", roomID)
		return
	}

	c.logger.Warn("connection lost", "room_id", roomID, "error", err)
	c.scheduleReconnect(roomID, username)
}

// scheduleReconnect запускает цикл переподключения с линейным backoff
// и фиксированным бюджетом попыток. После исчерпания бюджета сессия
// остается отключенной до явного вызова Connect.
func (c *Client) scheduleReconnect(roomID, username string) {
	c.mu.Lock()
	if c.reconnecting || c.intentional {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	ctx, cancel := context.WithCancel(context.Background())
	c.reconnectCancel = cancel
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			c.reconnecting = false
			if c.reconnectCancel != nil {
				c.reconnectCancel = nil
			}
			c.mu.Unlock()
			cancel()
		}()

		lb := newLinearBackoff(c.cfg.ReconnectDelay)

		// Первая пауза тоже линейная: backoff начинается до первой попытки
		select {
		case <-time.After(lb.NextBackOff()):
		case <-ctx.Done():
			return
		}

		attempt := 0
		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			attempt++
			c.logger.Info("reconnecting", "room_id", roomID, "attempt", attempt, "max_attempts", c.cfg.MaxReconnectAttempts)
			return struct{}{}, c.Connect(ctx, roomID, username)
		},
			backoff.WithBackOff(lb),
			backoff.WithMaxTries(uint(c.cfg.MaxReconnectAttempts)),
		)
		if err != nil {
			c.logger.Error("reconnect budget exhausted", "room_id", roomID, "attempts", attempt)
		}
	}()
}

// classifyDialError сводит ошибку установки соединения к таксономии
// транспорта: таймаут или общий сбой.
func classifyDialError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrConnectionTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrConnectionTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
}

// isPolicyRejection распознает закрытие соединения кодом отказа политики.
func isPolicyRejection(err error) bool {
	var ce *websocket.CloseError
	return errors.As(err, &ce) && ce.Code == api.ClosePolicyRejection
}
