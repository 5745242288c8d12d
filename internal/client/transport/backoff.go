package transport

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// linearBackoff реализует backoff.BackOff с линейно растущей паузой:
// номер попытки × базовый интервал. Политика переподключения намеренно
// проще экспоненциальной: бюджет попыток маленький и фиксированный.
type linearBackoff struct {
	interval time.Duration // базовый интервал
	attempt  int           // количество выданных пауз
}

var _ backoff.BackOff = (*linearBackoff)(nil)

func newLinearBackoff(interval time.Duration) *linearBackoff {
	return &linearBackoff{interval: interval}
}

// NextBackOff возвращает паузу перед следующей попыткой.
func (b *linearBackoff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.interval
}

// Reset сбрасывает счетчик попыток.
func (b *linearBackoff) Reset() {
	b.attempt = 0
}
