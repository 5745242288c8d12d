// Package completion управляет жизненным циклом запросов inline-подсказок:
// debounce, обнаружение устаревания и отмена. Конвейер гарантирует, что
// подсказка никогда не будет применена к буферу, который уже изменился.
package completion

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/paircraft/paircraft/pkg/api"
)

// DefaultModel запрашивает лучшую доступную модель.
const DefaultModel = "auto"

// Completer выполняет один запрос подсказки. Реализуется api.Client.
type Completer interface {
	Complete(ctx context.Context, req api.CompletionRequest) (*api.CompletionResponse, error)
}

// Suggestion — принятая подсказка вместе со снимком, для которого
// она была получена.
type Suggestion struct {
	Text     string
	Position int
	Code     string // снимок буфера на момент запроса
}

// Config задает параметры конвейера.
type Config struct {
	Completer Completer

	// OnSuggestion вызывается для каждой принятой (не устаревшей) подсказки
	OnSuggestion func(Suggestion)

	// Debounce — тихий период после последней правки (600ms)
	Debounce time.Duration

	// MinChars — минимум непробельных символов в буфере (3)
	MinChars int

	Logger *slog.Logger
}

// Pipeline порождает не более одного запроса подсказки на связную паузу
// в наборе текста. Каждая попытка получает монотонный порядковый номер;
// сработать может только попытка с наибольшим номером, и только её ответ
// может быть принят. Все более ранние попытки и ответы отбрасываются.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger

	seq     atomic.Int64 // номер последней выданной попытки
	enabled atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	modelMu sync.Mutex
	model   string
}

// New создает конвейер подсказок. Подсказки включены по умолчанию.
func New(cfg Config) *Pipeline {
	if cfg.Debounce == 0 {
		cfg.Debounce = 600 * time.Millisecond
	}
	if cfg.MinChars == 0 {
		cfg.MinChars = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
		ctx:    ctx,
		cancel: cancel,
		model:  DefaultModel,
	}
	p.enabled.Store(true)

	return p
}

// Trigger регистрирует попытку подсказки для нового состояния буфера.
// Каждый вызов делает все предыдущие попытки устаревшими; сетевой запрос
// уйдет только если за время debounce не появится более новая попытка.
func (p *Pipeline) Trigger(code string, cursorOffset int, language string) {
	// Номер растет даже для отброшенных попыток: любое изменение буфера
	// обязано сделать незавершенные запросы устаревшими
	n := p.seq.Add(1)

	if !p.enabled.Load() || p.ctx.Err() != nil {
		return
	}

	if countNonSpace(code) < p.cfg.MinChars {
		return
	}

	go p.attempt(n, code, cursorOffset, language)
}

// attempt ждет тихий период и выполняет запрос, дважды проверяя
// актуальность попытки: перед сетевым вызовом и после ответа.
func (p *Pipeline) attempt(n int64, code string, cursorOffset int, language string) {
	select {
	case <-time.After(p.cfg.Debounce):
	case <-p.ctx.Done():
		return
	}

	// Проверка устаревания до сетевого вызова: сработать может
	// только попытка с наибольшим номером
	if p.seq.Load() != n {
		return
	}

	resp, err := p.cfg.Completer.Complete(p.ctx, api.CompletionRequest{
		Code:           code,
		CursorPosition: cursorOffset,
		Language:       language,
		Model:          p.Model(),
	})
	if err != nil {
		// Подсказка — улучшение, а не обязательная возможность:
		// сбой логируется и не всплывает наружу
		p.logger.Debug("completion request failed", "error", err)
		return
	}

	// Повторная проверка после ответа: даже успешный результат
	// отбрасывается, если его успела обогнать новая попытка
	if p.seq.Load() != n || p.ctx.Err() != nil {
		return
	}

	if resp.Suggestion == "" {
		return
	}

	if p.cfg.OnSuggestion != nil {
		p.cfg.OnSuggestion(Suggestion{
			Text:     resp.Suggestion,
			Position: resp.Position,
			Code:     code,
		})
	}
}

// Cancel навсегда отменяет конвейер: ожидающие попытки не сработают,
// результаты незавершенных запросов станут no-op.
func (p *Pipeline) Cancel() {
	p.seq.Add(1)
	p.cancel()
}

// SetEnabled включает или выключает подсказки.
func (p *Pipeline) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// Enabled сообщает, включены ли подсказки.
func (p *Pipeline) Enabled() bool {
	return p.enabled.Load()
}

// SetModel выбирает модель для последующих запросов.
func (p *Pipeline) SetModel(model string) {
	p.modelMu.Lock()
	defer p.modelMu.Unlock()
	if model == "" {
		model = DefaultModel
	}
	p.model = model
}

// Model возвращает текущую выбранную модель.
func (p *Pipeline) Model() string {
	p.modelMu.Lock()
	defer p.modelMu.Unlock()
	return p.model
}

// countNonSpace возвращает количество непробельных символов.
func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
