// Файл: internal/fsm/memory.go
package fsm

import (
	"context"
	"sync"
)

// MemoryStorage — состояние диалогов в памяти процесса. Вариант по умолчанию.
type MemoryStorage struct {
	mu      sync.Mutex
	records map[int64]Record
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[int64]Record)}
}

func (s *MemoryStorage) Get(_ context.Context, userID int64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[userID], nil
}

func (s *MemoryStorage) Set(_ context.Context, userID int64, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = rec
	return nil
}

func (s *MemoryStorage) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	return nil
}
