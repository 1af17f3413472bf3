// Файл: internal/entities/claim-entity.go
package entities

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "taskbot/pkg/errors"
)

// Claim — взятая исполнителем часть объёма задания.
// Done зарезервирован под будущий сценарий закрытия задач; при создании всегда false.
type Claim struct {
	ID           int64           `json:"id" db:"id"`
	AssignmentID int64           `json:"assignment_id" db:"assignment_id"`
	ExecutorID   int64           `json:"executor_id" db:"executor_id"`
	Volume       decimal.Decimal `json:"volume" db:"volume"`
	Done         bool            `json:"done" db:"done"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// FreeVolume — свободный объём: общий минус сумма незакрытых задач.
func FreeVolume(total, taken decimal.Decimal) decimal.Decimal {
	return total.Sub(taken)
}

// CheckClaim — единственная точка допуска заявки. Вызывается строго внутри
// транзакции, удерживающей блокировку строки задания: total и taken должны
// быть прочитаны под этой блокировкой.
func CheckClaim(assignmentID int64, total, taken, requested decimal.Decimal) error {
	free := FreeVolume(total, taken)
	if requested.Sign() <= 0 || requested.GreaterThan(free) {
		return apperrors.NewClaimRejectedError(assignmentID, requested, free)
	}
	return nil
}
