// Файл: internal/services/reminder.go
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"taskbot/internal/repositories"
	"taskbot/pkg/telegram"
)

// ReminderService периодически напоминает об опубликованных заданиях с
// ненулевым свободным объёмом.
type ReminderService struct {
	sender               messageSender
	assignmentRepository repositories.AssignmentRepositoryInterface
	ledger               *VolumeLedgerService
	publisher            *PublisherService
	interval             time.Duration
	logger               *zap.Logger
}

func NewReminderService(
	sender messageSender,
	assignmentRepository repositories.AssignmentRepositoryInterface,
	ledger *VolumeLedgerService,
	publisher *PublisherService,
	interval time.Duration,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		sender:               sender,
		assignmentRepository: assignmentRepository,
		ledger:               ledger,
		publisher:            publisher,
		interval:             interval,
		logger:               logger,
	}
}

// Run крутит тикер до отмены контекста. Ошибки одного прохода не
// останавливают следующие.
func (s *ReminderService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("планировщик напоминаний запущен", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("планировщик напоминаний остановлен")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("ошибка прохода напоминаний", zap.Error(err))
			}
		}
	}
}

// RunOnce — один проход: активные задания со ссылкой на публикацию и
// положительным свободным объёмом получают напоминание в свою тему.
func (s *ReminderService) RunOnce(ctx context.Context) error {
	assignments, err := s.assignmentRepository.ListActiveAssignments(ctx)
	if err != nil {
		return err
	}

	for _, a := range assignments {
		if !a.IsPublished() {
			continue
		}

		free, err := s.ledger.FreeVolume(ctx, a.ID)
		if err != nil {
			s.logger.Error("ошибка вычисления свободного объёма",
				zap.Int64("assignment_id", a.ID), zap.Error(err))
			continue
		}
		if free.Sign() <= 0 {
			continue
		}

		text := fmt.Sprintf("🔔 Напоминание по заданию #%d: свободно %s", a.ID, free.String())
		opts := []telegram.MessageOption{
			telegram.WithKeyboard(s.publisher.AssignmentMarkup(a.ID)),
		}
		if threadID := s.publisher.ThreadFor(ctx, a.WorkType); threadID != 0 {
			opts = append(opts, telegram.WithThread(threadID))
		}

		if _, err := s.sender.SendMessage(ctx, *a.PublishedChatID, text, opts...); err != nil {
			s.logger.Error("ошибка отправки напоминания",
				zap.Int64("assignment_id", a.ID), zap.Error(err))
		}
	}
	return nil
}
