// Файл: internal/services/user.go
package services

import (
	"context"

	"go.uber.org/zap"

	"taskbot/internal/entities"
	"taskbot/internal/repositories"
	"taskbot/pkg/telegram"
)

// chatMemberChecker — живая проверка членства в общем чате (getChatMember).
type chatMemberChecker interface {
	GetChatMember(ctx context.Context, chatID int64, userID int64) (string, error)
}

type UserService struct {
	userRepository repositories.UserRepositoryInterface
	cache          *MembershipCache
	checker        chatMemberChecker
	admins         map[int64]bool
	generalChatID  int64
	logger         *zap.Logger
}

func NewUserService(
	userRepository repositories.UserRepositoryInterface,
	cache *MembershipCache,
	checker chatMemberChecker,
	admins map[int64]bool,
	generalChatID int64,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepository: userRepository,
		cache:          cache,
		checker:        checker,
		admins:         admins,
		generalChatID:  generalChatID,
		logger:         logger,
	}
}

// Register выполняет регистрацию по /start. Админ проходит без проверки чата;
// обычный пользователь — только если состоит в общем чате. Возвращает true,
// если доступ выдан.
func (s *UserService) Register(ctx context.Context, from telegram.User) (bool, error) {
	user := entities.User{ID: from.ID}
	if from.Username != "" {
		username := from.Username
		user.Username = &username
	}
	if name := from.FullName(); name != "" {
		user.FullName = &name
	}

	if s.admins[from.ID] {
		user.IsAdmin = true
		user.IsMember = true
		if err := s.userRepository.UpsertUser(ctx, user); err != nil {
			return false, err
		}
		s.cache.Add(from.ID)
		return true, nil
	}

	status, err := s.checker.GetChatMember(ctx, s.generalChatID, from.ID)
	if err != nil {
		// Telegram отвечает ошибкой и на «не участник» — трактуем как отказ.
		s.logger.Info("getChatMember: пользователь не подтверждён",
			zap.Int64("user_id", from.ID), zap.Error(err))
		status = ""
	}

	if !telegram.IsMemberStatus(status) {
		user.IsMember = false
		if err := s.userRepository.UpsertUser(ctx, user); err != nil {
			return false, err
		}
		return false, nil
	}

	user.IsMember = true
	if err := s.userRepository.UpsertUser(ctx, user); err != nil {
		return false, err
	}
	s.cache.Add(from.ID)
	s.logger.Info("пользователь зарегистрирован", zap.Int64("user_id", from.ID))
	return true, nil
}
