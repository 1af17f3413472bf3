// Файл: internal/fsm/state.go
package fsm

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// State — шаг диалога. Пустое значение — idle (диалог не ведётся).
type State string

const (
	StateIdle State = ""

	// Создание задания: строго линейная последовательность шагов.
	StateWorkType    State = "work_type"
	StateDeadline    State = "deadline"
	StateProject     State = "project"
	StateCustomer    State = "customer"
	StateTotalVolume State = "total_volume"
	StateComment     State = "comment"

	// Взятие объёма: вход по диплинку, один шаг.
	StateClaimVolume State = "claim_volume"
)

// Draft — данные, накопленные за время диалога. Не несёт инвариантов:
// потеря черновика при рестарте допустима, фиксация только в БД.
type Draft struct {
	WorkType     string          `json:"work_type,omitempty"`
	Deadline     time.Time       `json:"deadline,omitempty"`
	Project      string          `json:"project,omitempty"`
	CustomerID   int64           `json:"customer_id,omitempty"`
	CustomerName string          `json:"customer_name,omitempty"`
	TotalVolume  decimal.Decimal `json:"total_volume,omitempty"`

	AssignmentID int64 `json:"assignment_id,omitempty"`
}

type Record struct {
	State State `json:"state"`
	Draft Draft `json:"draft"`
}

// Storage — состояние диалога на пользователя. Set перезаписывает запись
// целиком: начало нового диалога никогда не сливается со старым черновиком.
type Storage interface {
	Get(ctx context.Context, userID int64) (Record, error)
	Set(ctx context.Context, userID int64, rec Record) error
	Clear(ctx context.Context, userID int64) error
}
