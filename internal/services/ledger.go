// Файл: internal/services/ledger.go
package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"taskbot/internal/entities"
	"taskbot/internal/repositories"
	apperrors "taskbot/pkg/errors"
)

// VolumeLedgerService — леджер объёмов. Сериализация конкурирующих заявок —
// обязанность репозитория (блокировка строки задания в транзакции), здесь
// только делегирование и журналирование.
type VolumeLedgerService struct {
	claimRepository repositories.ClaimRepositoryInterface
	logger          *zap.Logger
}

func NewVolumeLedgerService(claimRepository repositories.ClaimRepositoryInterface, logger *zap.Logger) *VolumeLedgerService {
	return &VolumeLedgerService{claimRepository: claimRepository, logger: logger}
}

func (s *VolumeLedgerService) FreeVolume(ctx context.Context, assignmentID int64) (decimal.Decimal, error) {
	return s.claimRepository.FreeVolume(ctx, assignmentID)
}

// TakeClaim пытается взять объём. Отказ леджера — не сбой: журналируется как
// обычное событие и возвращается вызывающему вместе со свободным объёмом.
func (s *VolumeLedgerService) TakeClaim(ctx context.Context, assignmentID int64, executorID int64, volume decimal.Decimal) (int64, error) {
	claimID, err := s.claimRepository.TakeClaim(ctx, assignmentID, executorID, volume)
	if err != nil {
		var rejected *apperrors.ClaimRejectedError
		if errors.As(err, &rejected) {
			s.logger.Info("заявка отклонена леджером",
				zap.Int64("assignment_id", assignmentID),
				zap.Int64("executor_id", executorID),
				zap.String("requested", rejected.Requested.String()),
				zap.String("free", rejected.Free.String()))
		} else {
			s.logger.Error("ошибка взятия объёма",
				zap.Int64("assignment_id", assignmentID),
				zap.Int64("executor_id", executorID),
				zap.Error(err))
		}
		return 0, err
	}
	return claimID, nil
}

func (s *VolumeLedgerService) MyOpenClaims(ctx context.Context, executorID int64) ([]entities.Claim, error) {
	return s.claimRepository.MyOpenClaims(ctx, executorID)
}

// DeleteMyOpenClaim удаляет незакрытую задачу исполнителя; освобождённый объём
// сразу возвращается в свободный.
func (s *VolumeLedgerService) DeleteMyOpenClaim(ctx context.Context, claimID int64, executorID int64) (bool, error) {
	return s.claimRepository.DeleteMyOpenClaim(ctx, claimID, executorID)
}
