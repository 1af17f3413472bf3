// Файл: internal/entities/assignment-entity.go
package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Assignment — задание с общим объёмом, который разбирают исполнители.
// Customer — снимок имени заказчика на момент создания; CustomerID указывает
// в справочник customers и может пережить переименование заказчика.
type Assignment struct {
	ID          int64           `json:"id" db:"id"`
	AuthorID    int64           `json:"author_id" db:"author_id"`
	WorkType    string          `json:"work_type" db:"work_type"`
	DeadlineAt  time.Time       `json:"deadline_at" db:"deadline_at"`
	Project     *string         `json:"project,omitempty" db:"project"`
	CustomerID  *int64          `json:"customer_id,omitempty" db:"customer_id"`
	Customer    *string         `json:"customer,omitempty" db:"customer"`
	TotalVolume decimal.Decimal `json:"total_volume" db:"total_volume"`
	Comment     *string         `json:"comment,omitempty" db:"comment"`
	IsActive    bool            `json:"is_active" db:"is_active"`

	PublishedChatID    *int64 `json:"published_chat_id,omitempty" db:"published_chat_id"`
	PublishedMessageID *int64 `json:"published_message_id,omitempty" db:"published_message_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (a *Assignment) IsPublished() bool {
	return a.PublishedChatID != nil && a.PublishedMessageID != nil
}
