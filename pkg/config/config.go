// Файл: pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type TelegramConfig struct {
	BotToken       string  `validate:"required"`
	GeneralChatIDs []int64 `validate:"min=1"`
	// Если WebhookURL пуст — бот работает в режиме long polling.
	WebhookURL string
	ServerPort string
}

type PostgresConfig struct {
	DSN string `validate:"required"`
}

type RedisConfig struct {
	Address  string
	Password string
}

type Config struct {
	Telegram TelegramConfig
	Postgres PostgresConfig
	Redis    RedisConfig

	// Admins — статический набор администраторов из окружения.
	Admins map[int64]bool
	// Users — необязательный явный allow-list; nil означает «не задан».
	Users map[int64]bool

	// WorkTypes — закрытый набор видов работ для создания заданий.
	WorkTypes []string `validate:"min=1"`
	// ThreadsByWorkType — привязки вид работ → thread_id общего чата
	// (стартовые значения; актуальные хранятся в БД).
	ThreadsByWorkType map[string]int64

	RemindEvery time.Duration `validate:"gt=0"`
}

const defaultWorkTypes = "design,montage,shooting"

func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Предупреждение: .env файл не найден или не удалось его загрузить.")
	}

	threads, err := parseThreads(getEnv("THREADS_JSON", "{}"))
	if err != nil {
		return nil, fmt.Errorf("THREADS_JSON: %w", err)
	}

	chatIDs, err := parseInt64List(getEnv("GENERAL_CHAT_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("GENERAL_CHAT_IDS: %w", err)
	}

	admins, err := parseInt64Set(getEnv("ADMINS", ""))
	if err != nil {
		return nil, fmt.Errorf("ADMINS: %w", err)
	}

	users, err := parseInt64Set(getEnv("USERS", ""))
	if err != nil {
		return nil, fmt.Errorf("USERS: %w", err)
	}
	if len(users) == 0 {
		users = nil
	}

	remindMin, err := strconv.Atoi(getEnv("REMIND_EVERY_MIN", "2"))
	if err != nil {
		return nil, fmt.Errorf("REMIND_EVERY_MIN: %w", err)
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			BotToken:       getEnv("BOT_TOKEN", ""),
			GeneralChatIDs: chatIDs,
			WebhookURL:     getEnv("WEBHOOK_URL", ""),
			ServerPort:     getEnv("SERVER_PORT", "8080"),
		},
		Postgres: PostgresConfig{
			DSN: getEnv("DB_DSN", ""),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Admins:            admins,
		Users:             users,
		WorkTypes:         splitList(getEnv("WORK_TYPES", defaultWorkTypes)),
		ThreadsByWorkType: threads,
		RemindEvery:       time.Duration(remindMin) * time.Minute,
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("невалидная конфигурация: %w", err)
	}
	return cfg, nil
}

// GeneralChatID возвращает основной общий чат (первый из списка).
func (c *Config) GeneralChatID() int64 {
	return c.Telegram.GeneralChatIDs[0]
}

func (c *Config) IsAdmin(userID int64) bool {
	return c.Admins[userID]
}

func (c *Config) IsWorkType(s string) bool {
	for _, wt := range c.WorkTypes {
		if wt == s {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt64List(s string) ([]int64, error) {
	var out []int64
	for _, part := range splitList(s) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("не удалось разобрать идентификатор %q: %w", part, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func parseInt64Set(s string) (map[int64]bool, error) {
	ids, err := parseInt64List(s)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// parseThreads разбирает JSON вида {"design": 15, "montage": 16}.
func parseThreads(raw string) (map[string]int64, error) {
	var generic map[string]json.Number
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, err
	}
	threads := make(map[string]int64, len(generic))
	for workType, num := range generic {
		id, err := num.Int64()
		if err != nil {
			return nil, fmt.Errorf("thread_id для %q: %w", workType, err)
		}
		threads[workType] = id
	}
	return threads, nil
}
