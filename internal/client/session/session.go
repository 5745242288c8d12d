// Package session согласует локальные и удаленные правки одного общего
// буфера. Координатор не выполняет слияние: политика разрешения
// конфликтов — последняя обработанная запись побеждает, а порядок
// определяется исключительно порядком доставки транспорта.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paircraft/paircraft/internal/client/transport"
	"github.com/paircraft/paircraft/internal/models"
	"github.com/paircraft/paircraft/pkg/api"
)

// Transport определяет операции live-канала, которые нужны координатору.
// Реализуется transport.Client.
type Transport interface {
	Connect(ctx context.Context, roomID, username string) error
	Send(ev api.Event)
	OnMessage(fn transport.Handler) transport.HandlerID
	RemoveMessageHandler(id transport.HandlerID)
	Disconnect()
	IsConnected() bool
}

// CompletionTrigger получает уведомления о локальных правках для
// конвейера подсказок. Реализуется completion.Pipeline.
type CompletionTrigger interface {
	Trigger(code string, cursorOffset int, language string)
	Cancel()
}

// Config задает параметры сессии.
type Config struct {
	RoomID   string
	Username string
	Room     models.Room // начальное состояние комнаты, полученное по REST

	Transport  Transport
	Completion CompletionTrigger // nil — подсказки выключены
	Logger     *slog.Logger

	// TypingTTL — окно активности печатающего участника (2s)
	TypingTTL time.Duration

	// CursorDebounce — окно коалесценции локальных движений курсора (100ms)
	CursorDebounce time.Duration

	// TickInterval — период ленивой проверки протухания активности (250ms)
	TickInterval time.Duration
}

// Snapshot — консистентный снимок состояния сессии для UI.
type Snapshot struct {
	RoomID       string
	Code         string
	Language     string
	SelfID       string
	SelfName     string
	UserCount    int
	Participants []models.Participant // все известные участники
	ActiveTypers []models.Participant // удаленные участники, печатавшие в пределах TTL
}

// cursorPos — локальная позиция курсора вместе со смещением в буфере.
type cursorPos struct {
	line   int
	column int
	offset int
}

type snapshotReq struct {
	reply chan Snapshot
}

// Session владеет состоянием одной комнаты: буфером, множеством
// участников и значением последней отправленной правки. Все состояние
// принадлежит единственной горутине цикла: внешние вызовы передают
// типизированные события через каналы, поэтому обработка упорядочена
// и не требует блокировок.
type Session struct {
	cfg    Config
	logger *slog.Logger

	localEdits  chan string
	cursorMoves chan cursorPos
	langChanges chan langChange
	inbound     chan api.Event
	snapshots   chan snapshotReq
	quit        chan struct{}
	done        chan struct{}
	updates     chan struct{}

	handlerID transport.HandlerID

	// Состояние ниже принадлежит горутине loop
	code         string
	language     string
	lastSent     string // последняя отправленная нами правка; вход с таким же payload — эхо
	selfID       string
	selfName     string
	userCount    int
	cursorOffset int
	presence     *presenceTracker
}

type langChange struct {
	language string
	code     string
}

// New создает сессию. Соединение не устанавливается до Open.
func New(cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TypingTTL == 0 {
		cfg.TypingTTL = 2 * time.Second
	}
	if cfg.CursorDebounce == 0 {
		cfg.CursorDebounce = 100 * time.Millisecond
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = 250 * time.Millisecond
	}

	return &Session{
		cfg:         cfg,
		logger:      cfg.Logger,
		localEdits:  make(chan string, 16),
		cursorMoves: make(chan cursorPos, 16),
		langChanges: make(chan langChange, 4),
		inbound:     make(chan api.Event, 64),
		snapshots:   make(chan snapshotReq),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		updates:     make(chan struct{}, 1),
		code:        cfg.Room.Code,
		language:    cfg.Room.Language,
		presence:    newPresenceTracker(cfg.TypingTTL),
	}
}

// Open подключает транспорт к комнате и запускает цикл координатора.
func (s *Session) Open(ctx context.Context) error {
	if err := s.cfg.Transport.Connect(ctx, s.cfg.RoomID, s.cfg.Username); err != nil {
		return fmt.Errorf("failed to connect to room %s: %w", s.cfg.RoomID, err)
	}

	s.handlerID = s.cfg.Transport.OnMessage(func(ev api.Event) {
		select {
		case s.inbound <- ev:
		case <-s.quit:
		}
	})

	go s.loop()

	return nil
}

// Close завершает сессию: отписывается от транспорта, отменяет
// незавершенные подсказки, закрывает соединение и останавливает цикл.
func (s *Session) Close() {
	s.cfg.Transport.RemoveMessageHandler(s.handlerID)
	if s.cfg.Completion != nil {
		s.cfg.Completion.Cancel()
	}
	s.cfg.Transport.Disconnect()

	close(s.quit)
	<-s.done
}

// SetLocalCode применяет локальную правку: обновляет буфер,
// рассылает code_update и запускает конвейер подсказок.
func (s *Session) SetLocalCode(code string) {
	select {
	case s.localEdits <- code:
	case <-s.quit:
	}
}

// SetLocalCursor регистрирует движение локального курсора.
// Движения коалесцируются и отправляются не чаще окна debounce.
func (s *Session) SetLocalCursor(line, column, offset int) {
	select {
	case s.cursorMoves <- cursorPos{line: line, column: column, offset: offset}:
	case <-s.quit:
	}
}

// SetLanguage меняет язык комнаты и рассылает language_change.
// Вместе с языком передается новое содержимое буфера.
func (s *Session) SetLanguage(language, code string) {
	select {
	case s.langChanges <- langChange{language: language, code: code}:
	case <-s.quit:
	}
}

// Snapshot возвращает консистентный снимок состояния сессии.
func (s *Session) Snapshot() Snapshot {
	req := snapshotReq{reply: make(chan Snapshot, 1)}
	select {
	case s.snapshots <- req:
		return <-req.reply
	case <-s.done:
		return Snapshot{RoomID: s.cfg.RoomID}
	}
}

// Updates возвращает сигнальный канал изменений состояния.
// Сигналы коалесцируются; потребитель забирает Snapshot сам.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

// loop — единственный владелец состояния сессии. Вся логика
// координатора выполняется здесь, на событиях каналов и таймеров,
// без параллельного исполнения.
func (s *Session) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	var (
		cursorTimer   <-chan time.Time
		pendingCursor *cursorPos
		hadTypers     bool
	)

	for {
		select {
		case code := <-s.localEdits:
			s.handleLocalEdit(code)

		case cp := <-s.cursorMoves:
			// Коалесценция: в окне debounce уходит только последняя позиция
			s.cursorOffset = cp.offset
			pendingCursor = &cp
			if cursorTimer == nil {
				cursorTimer = time.After(s.cfg.CursorDebounce)
			}

		case <-cursorTimer:
			cursorTimer = nil
			if pendingCursor != nil {
				s.sendCursor(*pendingCursor)
				pendingCursor = nil
			}

		case lc := <-s.langChanges:
			s.handleLanguageChange(lc)

		case ev := <-s.inbound:
			s.handleEvent(ev)

		case req := <-s.snapshots:
			req.reply <- s.snapshot()

		case <-ticker.C:
			// Ленивое протухание активных печатающих: уведомляем UI,
			// только когда множество действительно опустело
			hasTypers := len(s.presence.activeTypers(s.selfID)) > 0
			if hadTypers && !hasTypers {
				s.notify()
			}
			hadTypers = hasTypers

		case <-s.quit:
			return
		}
	}
}

// handleLocalEdit обрабатывает локальное нажатие клавиши.
func (s *Session) handleLocalEdit(code string) {
	s.code = code
	s.lastSent = code

	s.cfg.Transport.Send(api.Event{
		Type:     api.EventCodeUpdate,
		Code:     api.Str(code),
		Language: s.language,
	})

	if s.cfg.Completion != nil {
		s.cfg.Completion.Trigger(code, s.cursorOffset, s.language)
	}

	s.notify()
}

// handleLanguageChange обрабатывает локальную смену языка.
func (s *Session) handleLanguageChange(lc langChange) {
	s.language = lc.language
	s.code = lc.code
	s.lastSent = lc.code

	s.cfg.Transport.Send(api.Event{
		Type:     api.EventLanguageChange,
		Language: lc.language,
		Code:     api.Str(lc.code),
	})

	s.notify()
}

// handleEvent применяет одно входящее событие live-канала.
func (s *Session) handleEvent(ev api.Event) {
	switch ev.Type {
	case api.EventInit:
		s.selfID = ev.UserID
		if ev.Username != "" {
			s.selfName = ev.Username
		}
		if ev.UserCount != nil {
			s.userCount = *ev.UserCount
		}
		if ev.Users != nil {
			s.presence.setRoster(ev.Users)
		}
		s.notify()

	case api.EventCodeUpdate:
		if ev.Code == nil {
			return
		}
		code := *ev.Code

		// Подавление эха: вход, байт-в-байт совпадающий с последней
		// отправленной правкой, не применяется и не рассылается повторно
		if code == s.lastSent {
			return
		}

		s.code = code
		if ev.Language != "" {
			s.language = ev.Language
		}
		if ev.UserID != "" && ev.UserID != s.selfID {
			s.presence.markTyping(ev.UserID, ev.Username)
		}
		s.notify()

	case api.EventLanguageChange:
		if ev.Language != "" {
			s.language = ev.Language
		}
		if ev.Code != nil && *ev.Code != s.lastSent {
			s.code = *ev.Code
		}
		s.notify()

	case api.EventCursorPosition:
		if ev.UserID == "" || ev.UserID == s.selfID {
			return
		}
		s.presence.setCursor(ev.UserID, ev.Username, ev.LineNumber, ev.Column)
		s.notify()

	case api.EventUserJoined:
		if ev.UserCount != nil {
			s.userCount = *ev.UserCount
		}
		switch {
		case ev.Users != nil:
			s.presence.setRoster(ev.Users)
		case ev.UserID != "":
			s.presence.upsert(ev.UserID, ev.Username)
		}
		s.notify()

	case api.EventUserLeft:
		if ev.UserCount != nil {
			s.userCount = *ev.UserCount
		}
		if ev.Users != nil {
			s.presence.setRoster(ev.Users)
		} else if ev.UserID != "" {
			s.presence.remove(ev.UserID)
		}
		s.notify()

	default:
		s.logger.Debug("ignoring unknown event", "type", ev.Type)
	}
}

// sendCursor рассылает коалесцированную позицию локального курсора.
func (s *Session) sendCursor(cp cursorPos) {
	s.cfg.Transport.Send(api.Event{
		Type:       api.EventCursorPosition,
		UserID:     s.selfID,
		Username:   s.selfName,
		LineNumber: cp.line,
		Column:     cp.column,
	})
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		RoomID:       s.cfg.RoomID,
		Code:         s.code,
		Language:     s.language,
		SelfID:       s.selfID,
		SelfName:     s.selfName,
		UserCount:    s.userCount,
		Participants: s.presence.all(),
		ActiveTypers: s.presence.activeTypers(s.selfID),
	}
}

// notify сигнализирует потребителю об изменении состояния.
// Сигнал best-effort: отстающий потребитель получит один
// коалесцированный сигнал вместо очереди.
func (s *Session) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
