// Файл: internal/services/access.go
package services

import "strings"

// Decision — результат проверки доступа для входящего действия.
type Decision int

const (
	// Допустить к обработке.
	Allow Decision = iota
	// Молча игнорировать (групповой чат).
	DenySilent
	// Отказать с уведомлением (личка).
	DenyNotice
)

// AccessGate — допуск входящих действий: админы проходят всегда, /start
// проходит всегда (иначе незарегистрированному не пройти регистрацию),
// остальным нужен кэш членства.
type AccessGate struct {
	admins map[int64]bool
	cache  *MembershipCache
}

func NewAccessGate(admins map[int64]bool, cache *MembershipCache) *AccessGate {
	return &AccessGate{admins: admins, cache: cache}
}

func (g *AccessGate) Admit(userID int64, text string, private bool) Decision {
	if g.admins[userID] {
		return Allow
	}
	if strings.HasPrefix(strings.TrimSpace(text), "/start") {
		return Allow
	}
	if g.cache.Contains(userID) {
		return Allow
	}
	if private {
		return DenyNotice
	}
	return DenySilent
}
