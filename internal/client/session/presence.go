package session

import (
	"hash/fnv"
	"sort"
	"time"

	"github.com/paircraft/paircraft/internal/models"
	"github.com/paircraft/paircraft/pkg/api"
)

// presencePalette — фиксированная палитра цветов присутствия.
// Цвет выбирается хешем от userId, поэтому все клиенты отображают
// одного участника одним цветом без какой-либо координации.
var presencePalette = []string{
	"#e06c75", "#61afef", "#98c379", "#c678dd",
	"#d19a66", "#56b6c2", "#e5c07b", "#f47fd4",
}

// colorFor возвращает детерминированный цвет присутствия для userId.
func colorFor(userID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return presencePalette[h.Sum32()%uint32(len(presencePalette))]
}

// participantState хранит участника вместе с временем его последней
// правки. Запись с TTL вместо таймера на участника: протухание
// проверяется лениво при чтении и на тике цикла.
type participantState struct {
	models.Participant
	lastTypedAt time.Time
}

// presenceTracker ведет множество участников комнаты и их активность.
// Владелец — цикл Session; методы не потокобезопасны.
type presenceTracker struct {
	participants map[string]*participantState
	typingTTL    time.Duration
	now          func() time.Time // подменяется в тестах
}

func newPresenceTracker(typingTTL time.Duration) *presenceTracker {
	return &presenceTracker{
		participants: make(map[string]*participantState),
		typingTTL:    typingTTL,
		now:          time.Now,
	}
}

// upsert добавляет участника, если его еще нет.
func (p *presenceTracker) upsert(userID, username string) *participantState {
	if st, ok := p.participants[userID]; ok {
		if username != "" {
			st.Username = username
		}
		return st
	}

	st := &participantState{
		Participant: models.Participant{
			UserID:   userID,
			Username: username,
			Color:    colorFor(userID),
		},
	}
	p.participants[userID] = st
	return st
}

// setRoster заменяет множество участников серверным списком,
// сохраняя курсоры и активность уже известных.
func (p *presenceTracker) setRoster(users []api.UserInfo) {
	known := make(map[string]bool, len(users))
	for _, u := range users {
		known[u.UserID] = true
		p.upsert(u.UserID, u.Username)
	}
	for id := range p.participants {
		if !known[id] {
			delete(p.participants, id)
		}
	}
}

// remove удаляет участника.
func (p *presenceTracker) remove(userID string) {
	delete(p.participants, userID)
}

// markTyping отмечает участника активно печатающим и сдвигает
// срок протухания. Каждая новая правка продлевает активность.
func (p *presenceTracker) markTyping(userID, username string) {
	st := p.upsert(userID, username)
	st.lastTypedAt = p.now()
}

// setCursor обновляет последнюю известную позицию курсора участника.
func (p *presenceTracker) setCursor(userID, username string, line, column int) {
	st := p.upsert(userID, username)
	st.Line = line
	st.Column = column
}

// isActive сообщает, печатал ли участник в пределах TTL.
func (p *presenceTracker) isActive(st *participantState) bool {
	return !st.lastTypedAt.IsZero() && p.now().Sub(st.lastTypedAt) <= p.typingTTL
}

// activeTypers возвращает участников, печатавших в пределах TTL,
// исключая собственный userId.
func (p *presenceTracker) activeTypers(selfID string) []models.Participant {
	var out []models.Participant
	for id, st := range p.participants {
		if id == selfID {
			continue
		}
		if p.isActive(st) {
			out = append(out, st.Participant)
		}
	}
	sortParticipants(out)
	return out
}

// all возвращает снимок всех участников.
func (p *presenceTracker) all() []models.Participant {
	out := make([]models.Participant, 0, len(p.participants))
	for _, st := range p.participants {
		out = append(out, st.Participant)
	}
	sortParticipants(out)
	return out
}

// count возвращает количество известных участников.
func (p *presenceTracker) count() int {
	return len(p.participants)
}

func sortParticipants(ps []models.Participant) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].UserID < ps[j].UserID })
}
