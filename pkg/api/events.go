package api

// Типы событий live-канала. Каждое сообщение — один самодостаточный
// JSON объект, различаемый по полю "type".
const (
	EventInit           = "init"            // приветствие после подключения
	EventCodeUpdate     = "code_update"     // полная замена буфера
	EventLanguageChange = "language_change" // смена языка комнаты
	EventCursorPosition = "cursor_position" // позиция курсора участника
	EventUserJoined     = "user_joined"     // участник присоединился
	EventUserLeft       = "user_left"       // участник покинул комнату
)

// ClosePolicyRejection — код закрытия соединения при отказе сервера
// (комната не существует или подключение отклонено политикой).
// Клиент не должен пытаться переподключиться после такого закрытия.
const ClosePolicyRejection = 4001

// UserInfo описывает одного участника комнаты
type UserInfo struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Event представляет одно событие live-канала.
// Набор заполненных полей зависит от типа события:
//
//	init            — UserID, Username, UserCount, Users
//	code_update     — Code, Language, UserID (отправитель)
//	language_change — Language, Code
//	cursor_position — UserID, Username, LineNumber, Column
//	user_joined     — UserCount и Users, либо UserID+Username
//	user_left       — UserID, опционально UserCount и Users
type Event struct {
	Type       string     `json:"type"`
	RoomID     string     `json:"roomId,omitempty"`
	UserID     string     `json:"userId,omitempty"`
	Username   string     `json:"username,omitempty"`
	Code       *string    `json:"code,omitempty"`
	Language   string     `json:"language,omitempty"`
	LineNumber int        `json:"lineNumber,omitempty"`
	Column     int        `json:"column,omitempty"`
	UserCount  *int       `json:"userCount,omitempty"`
	Users      []UserInfo `json:"users,omitempty"`
}

// Str возвращает указатель на строку. Удобно для заполнения
// опциональных полей события.
func Str(s string) *string { return &s }

// Int возвращает указатель на int.
func Int(n int) *int { return &n }
