package models

import "time"

// Room представляет комнату совместного редактирования.
// Сервер владеет авторитетной копией; клиент кэширует её при входе
// и дальше мутирует только через события live-канала.
type Room struct {
	ID        string    `json:"id"`         // идентификатор комнаты (UUID)
	Code      string    `json:"code"`       // текущее содержимое буфера
	Language  string    `json:"language"`   // текущий язык программирования
	CreatedAt time.Time `json:"created_at"` // время создания
	UpdatedAt time.Time `json:"updated_at"` // время последнего изменения буфера
}

// Participant представляет одного подключенного участника комнаты.
// UserID назначается сервером и уникален в пределах подключения.
type Participant struct {
	UserID   string // серверный идентификатор участника
	Username string // отображаемое имя
	Color    string // детерминированный цвет присутствия (hex)
	Line     int    // последняя известная строка курсора
	Column   int    // последняя известная колонка курсора
}
