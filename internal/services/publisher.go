// Файл: internal/services/publisher.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"taskbot/internal/entities"
	"taskbot/internal/repositories"
	apperrors "taskbot/pkg/errors"
	"taskbot/pkg/telegram"
)

type messageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, options ...telegram.MessageOption) (*telegram.Message, error)
}

// PublisherService публикует задания в общий чат (при наличии привязки — в
// тему нужного вида работ) и отмечает публикацию в БД.
type PublisherService struct {
	sender               messageSender
	assignmentRepository repositories.AssignmentRepositoryInterface
	threadRepository     repositories.ThreadBindingRepositoryInterface
	threadsFallback      map[string]int64
	generalChatID        int64
	logger               *zap.Logger

	mu          sync.RWMutex
	botUsername string
}

func NewPublisherService(
	sender messageSender,
	assignmentRepository repositories.AssignmentRepositoryInterface,
	threadRepository repositories.ThreadBindingRepositoryInterface,
	threadsFallback map[string]int64,
	generalChatID int64,
	logger *zap.Logger,
) *PublisherService {
	return &PublisherService{
		sender:               sender,
		assignmentRepository: assignmentRepository,
		threadRepository:     threadRepository,
		threadsFallback:      threadsFallback,
		generalChatID:        generalChatID,
		logger:               logger,
	}
}

// SetBotUsername задаёт имя бота для диплинков (известно после getMe).
func (s *PublisherService) SetBotUsername(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.botUsername = username
}

// AssignmentMarkup — кнопка с диплинком assign_<id>; по ней claim-диалог
// стартует сразу в шаге ввода объёма.
func (s *PublisherService) AssignmentMarkup(assignmentID int64) [][]telegram.InlineKeyboardButton {
	s.mu.RLock()
	username := s.botUsername
	s.mu.RUnlock()

	return [][]telegram.InlineKeyboardButton{{
		{
			Text: "🧩 Работа с заданием",
			URL:  fmt.Sprintf("https://t.me/%s?start=assign_%d", username, assignmentID),
		},
	}}
}

// ThreadFor — тема для вида работ: привязка из БД, иначе из конфигурации,
// иначе 0 (корень чата).
func (s *PublisherService) ThreadFor(ctx context.Context, workType string) int64 {
	binding, err := s.threadRepository.GetBinding(ctx, workType)
	if err == nil {
		return binding.ThreadID
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("ошибка чтения привязки темы, используем конфигурацию",
			zap.String("work_type", workType), zap.Error(err))
	}
	return s.threadsFallback[workType]
}

// PublishAssignment отправляет объявление и отмечает публикацию. Если отправка
// не удалась, задание остаётся в БД неопубликованным — это видно автору и
// напоминаниям, автолечения нет.
func (s *PublisherService) PublishAssignment(ctx context.Context, a *entities.Assignment) error {
	opts := []telegram.MessageOption{
		telegram.WithHTML(),
		telegram.WithKeyboard(s.AssignmentMarkup(a.ID)),
	}
	if threadID := s.ThreadFor(ctx, a.WorkType); threadID != 0 {
		opts = append(opts, telegram.WithThread(threadID))
	}

	msg, err := s.sender.SendMessage(ctx, s.generalChatID, announcementText(a), opts...)
	if err != nil {
		return fmt.Errorf("ошибка публикации задания %d: %w", a.ID, err)
	}

	if err := s.assignmentRepository.MarkPublished(ctx, a.ID, msg.Chat.ID, int64(msg.MessageID)); err != nil {
		return err
	}

	s.logger.Info("задание опубликовано",
		zap.Int64("assignment_id", a.ID),
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Int("message_id", msg.MessageID))
	return nil
}

func announcementText(a *entities.Assignment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 <b>Задание #%d</b>\n", a.ID)
	fmt.Fprintf(&b, "Вид работ: <b>%s</b>\n", a.WorkType)
	fmt.Fprintf(&b, "Проект: %s | Заказчик: %s\n", orDash(a.Project), orDash(a.Customer))
	fmt.Fprintf(&b, "Объём: <b>%s</b>\n", a.TotalVolume.String())
	fmt.Fprintf(&b, "Срок: %s", a.DeadlineAt.Format("2006-01-02 15:04"))
	if a.Comment != nil && *a.Comment != "" {
		fmt.Fprintf(&b, "\nКомментарий: %s", *a.Comment)
	}
	return b.String()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "—"
	}
	return *s
}
