// Файл: internal/services/allowed.go
package services

import "sync"

// MembershipCache — множество пользователей с доступом к боту (is_member = TRUE
// в БД). Один общий экземпляр на процесс; все обращения под коротким
// эксклюзивным локом, без I/O под ним.
type MembershipCache struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

func NewMembershipCache() *MembershipCache {
	return &MembershipCache{ids: make(map[int64]struct{})}
}

// Load замещает содержимое кэша (используется при старте).
func (c *MembershipCache) Load(ids []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		c.ids[id] = struct{}{}
	}
}

func (c *MembershipCache) Add(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[userID] = struct{}{}
}

func (c *MembershipCache) Remove(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ids, userID)
}

func (c *MembershipCache) Contains(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ids[userID]
	return ok
}

func (c *MembershipCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}
