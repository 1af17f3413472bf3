package errors

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")

	// Доступ
	ErrNotMember     = fmt.Errorf("доступ только для участников общего чата")
	ErrNotRegistered = fmt.Errorf("пользователь не зарегистрирован")

	// Задания
	ErrAlreadyPublished = fmt.Errorf("задание уже опубликовано")
	ErrNotActive        = fmt.Errorf("задание не найдено или уже закрыто")
)

// ClaimRejectedError — отказ леджера: запрошенный объём недопустим.
// Free — свободный объём на момент проверки, показывается пользователю.
type ClaimRejectedError struct {
	AssignmentID int64
	Requested    decimal.Decimal
	Free         decimal.Decimal
}

func (e *ClaimRejectedError) Error() string {
	return fmt.Sprintf("нельзя взять %s по заданию #%d: доступно %s",
		e.Requested.String(), e.AssignmentID, e.Free.String())
}

func NewClaimRejectedError(assignmentID int64, requested, free decimal.Decimal) error {
	return &ClaimRejectedError{AssignmentID: assignmentID, Requested: requested, Free: free}
}

// Ошибки ввода в диалоге: локально восстановимы, не считаются сбоями.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
