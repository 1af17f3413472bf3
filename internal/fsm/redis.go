// Файл: internal/fsm/redis.go
package fsm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	stateKeyPattern = "tg_user_state:%d"
	stateExpiration = 30 * time.Minute
)

// RedisStorage хранит состояние диалогов в Redis: брошенный диалог
// истекает сам, состояние переживает рестарт процесса.
type RedisStorage struct {
	client *redis.Client
}

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

func stateKey(userID int64) string {
	return fmt.Sprintf(stateKeyPattern, userID)
}

func (s *RedisStorage) Get(ctx context.Context, userID int64) (Record, error) {
	raw, err := s.client.Get(ctx, stateKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("ошибка чтения состояния диалога: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		// Непарсимая запись равносильна отсутствию диалога.
		return Record{}, nil
	}
	return rec, nil
}

func (s *RedisStorage) Set(ctx context.Context, userID int64, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, stateKey(userID), data, stateExpiration).Err(); err != nil {
		return fmt.Errorf("ошибка сохранения состояния диалога: %w", err)
	}
	return nil
}

func (s *RedisStorage) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, stateKey(userID)).Err(); err != nil {
		return fmt.Errorf("ошибка сброса состояния диалога: %w", err)
	}
	return nil
}
