// Файл: internal/controllers/telegram/commands.go
package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"taskbot/internal/entities"
	"taskbot/pkg/telegram"
)

var (
	bareNumberRe  = regexp.MustCompile(`^\d+$`)
	adminDeleteRe = regexp.MustCompile(`^del\s+(\d+)$`)
	adminCloseRe  = regexp.MustCompile(`^close\s+(\d+)$`)
	adminThreadRe = regexp.MustCompile(`^thread\s+(\S+)\s+(-?\d+)$`)
)

const myItemsToShow = 20

// handleMenu обрабатывает команды главного меню; вызывается только вне
// активного диалога (кнопки запуска диалогов при активном диалоге скрыты).
func (c *Controller) handleMenu(ctx context.Context, log *zap.Logger, msg *telegram.Message, text string) {
	isAdmin := c.cfg.IsAdmin(msg.From.ID)

	switch {
	case text == btnCreateAssignment:
		c.startCreation(ctx, log, msg)

	case text == btnMyAssignments:
		c.listMyAssignments(ctx, log, msg)

	case text == btnMyClaims:
		c.listMyClaims(ctx, log, msg)

	case text == btnDeleteClaim:
		c.send(ctx, log, msg.Chat.ID, "Отправьте ID вашей незакрытой задачи (число).")

	case bareNumberRe.MatchString(text):
		claimID, err := parseID(text)
		if err != nil {
			c.send(ctx, log, msg.Chat.ID, "Не найдено / нет прав.")
			return
		}
		c.deleteMyClaim(ctx, log, msg, claimID)

	case isAdmin && text == btnAdminDeleteAny:
		c.send(ctx, log, msg.Chat.ID, "Введите команду вида: del <assignment_id> — удалить, close <assignment_id> — закрыть.")

	case isAdmin && adminDeleteRe.MatchString(text):
		id, err := parseID(adminDeleteRe.FindStringSubmatch(text)[1])
		if err != nil {
			c.send(ctx, log, msg.Chat.ID, "Не найдено / уже закрыто.")
			return
		}
		c.adminDeleteAssignment(ctx, log, msg, id)

	case isAdmin && adminCloseRe.MatchString(text):
		id, err := parseID(adminCloseRe.FindStringSubmatch(text)[1])
		if err != nil {
			c.send(ctx, log, msg.Chat.ID, "Не найдено / уже закрыто.")
			return
		}
		c.adminCloseAssignment(ctx, log, msg, id)

	case isAdmin && adminThreadRe.MatchString(text):
		m := adminThreadRe.FindStringSubmatch(text)
		threadID, err := parseID(m[2])
		if err != nil {
			c.send(ctx, log, msg.Chat.ID, msgGenericError)
			return
		}
		c.adminBindThread(ctx, log, msg, m[1], threadID)

	case isAdmin && text == btnAdminExport:
		if err := c.exporter.Export(ctx, msg.Chat.ID); err != nil {
			log.Error("ошибка выгрузки", zap.Error(err))
			c.send(ctx, log, msg.Chat.ID, msgGenericError)
		}

	default:
		c.send(ctx, log, msg.Chat.ID, msgChooseAction, c.mainMenuFor(msg.From.ID))
	}
}

func (c *Controller) listMyAssignments(ctx context.Context, log *zap.Logger, msg *telegram.Message) {
	items, err := c.assignmentRepository.MyAssignments(ctx, msg.From.ID)
	if err != nil {
		log.Error("ошибка получения выданных заданий", zap.Error(err))
		c.send(ctx, log, msg.Chat.ID, msgGenericError)
		return
	}
	if len(items) == 0 {
		c.send(ctx, log, msg.Chat.ID, "У вас нет выданных заданий.")
		return
	}

	if len(items) > myItemsToShow {
		items = items[:myItemsToShow]
	}
	lines := make([]string, 0, len(items))
	for _, a := range items {
		lines = append(lines, fmt.Sprintf("#%d %s | объём %s | активное: %s",
			a.ID, a.WorkType, a.TotalVolume.String(), yesNo(a.IsActive)))
	}
	c.send(ctx, log, msg.Chat.ID, strings.Join(lines, "\n"))
}

func (c *Controller) listMyClaims(ctx context.Context, log *zap.Logger, msg *telegram.Message) {
	claims, err := c.ledger.MyOpenClaims(ctx, msg.From.ID)
	if err != nil {
		log.Error("ошибка получения задач", zap.Error(err))
		c.send(ctx, log, msg.Chat.ID, msgGenericError)
		return
	}
	if len(claims) == 0 {
		c.send(ctx, log, msg.Chat.ID, "У вас нет невыполненных задач.")
		return
	}

	lines := make([]string, 0, len(claims))
	for _, claim := range claims {
		lines = append(lines, fmt.Sprintf("#%d: по заданию %d, объём %s",
			claim.ID, claim.AssignmentID, claim.Volume.String()))
	}
	c.send(ctx, log, msg.Chat.ID, strings.Join(lines, "\n"))
}

// deleteMyClaim: удалить можно только свою незакрытую задачу; освобождённый
// объём сразу доступен другим.
func (c *Controller) deleteMyClaim(ctx context.Context, log *zap.Logger, msg *telegram.Message, claimID int64) {
	ok, err := c.ledger.DeleteMyOpenClaim(ctx, claimID, msg.From.ID)
	if err != nil {
		log.Error("ошибка удаления задачи", zap.Int64("claim_id", claimID), zap.Error(err))
		c.send(ctx, log, msg.Chat.ID, msgGenericError)
		return
	}
	if ok {
		c.send(ctx, log, msg.Chat.ID, "Удалено ✅")
	} else {
		c.send(ctx, log, msg.Chat.ID, "Не найдено / нет прав.")
	}
}

func (c *Controller) adminDeleteAssignment(ctx context.Context, log *zap.Logger, msg *telegram.Message, id int64) {
	ok, err := c.assignmentRepository.DeleteAssignment(ctx, id)
	if err != nil {
		log.Error("ошибка удаления задания", zap.Int64("assignment_id", id), zap.Error(err))
		c.send(ctx, log, msg.Chat.ID, msgGenericError)
		return
	}
	if ok {
		c.send(ctx, log, msg.Chat.ID, "Удалено ✅")
	} else {
		c.send(ctx, log, msg.Chat.ID, "Не найдено / уже закрыто.")
	}
}

func (c *Controller) adminCloseAssignment(ctx context.Context, log *zap.Logger, msg *telegram.Message, id int64) {
	ok, err := c.assignmentRepository.DisableAssignment(ctx, id)
	if err != nil {
		log.Error("ошибка закрытия задания", zap.Int64("assignment_id", id), zap.Error(err))
		c.send(ctx, log, msg.Chat.ID, msgGenericError)
		return
	}
	if ok {
		c.send(ctx, log, msg.Chat.ID, "Задание закрыто ✅")
	} else {
		c.send(ctx, log, msg.Chat.ID, "Не найдено / уже закрыто.")
	}
}

func (c *Controller) adminBindThread(ctx context.Context, log *zap.Logger, msg *telegram.Message, workType string, threadID int64) {
	if !c.cfg.IsWorkType(workType) {
		c.send(ctx, log, msg.Chat.ID,
			fmt.Sprintf("Неизвестный вид работ %q. Доступны: %s.", workType, strings.Join(c.cfg.WorkTypes, ", ")))
		return
	}
	err := c.threadRepository.UpsertBinding(ctx, entities.ThreadBinding{WorkType: workType, ThreadID: threadID})
	if err != nil {
		log.Error("ошибка привязки темы", zap.String("work_type", workType), zap.Error(err))
		c.send(ctx, log, msg.Chat.ID, msgGenericError)
		return
	}
	c.send(ctx, log, msg.Chat.ID, fmt.Sprintf("Тема %d привязана к виду работ %q ✅", threadID, workType))
}

func yesNo(b bool) string {
	if b {
		return "да"
	}
	return "нет"
}
