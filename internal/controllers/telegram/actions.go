// Файл: internal/controllers/telegram/actions.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"taskbot/internal/entities"
	"taskbot/internal/fsm"
	"taskbot/internal/services"
	apperrors "taskbot/pkg/errors"
	"taskbot/pkg/telegram"
	"taskbot/pkg/validation"
)

// handleFlowMessage ведёт активный диалог. Отмена проверяется раньше любой
// валидации шага.
func (c *Controller) handleFlowMessage(ctx context.Context, log *zap.Logger, msg *telegram.Message, rec fsm.Record, text string) {
	if text == btnCancelCreation || text == btnCancelClaim {
		c.cancelFlow(ctx, log, msg)
		return
	}

	switch rec.State {
	case fsm.StateWorkType:
		c.stepWorkType(ctx, log, msg, rec, text)
	case fsm.StateDeadline:
		c.stepDeadline(ctx, log, msg, rec, text)
	case fsm.StateProject:
		c.stepProject(ctx, log, msg, rec, text)
	case fsm.StateCustomer:
		// Заказчик выбирается кнопкой; текст здесь — невалидный ввод.
		c.promptCustomer(ctx, log, msg.Chat.ID, "Выберите заказчика кнопкой ниже:")
	case fsm.StateTotalVolume:
		c.stepTotalVolume(ctx, log, msg, rec, text)
	case fsm.StateComment:
		c.stepComment(ctx, log, msg, rec, text)
	case fsm.StateClaimVolume:
		c.stepClaimVolume(ctx, log, msg, rec, text)
	default:
		// Неизвестное состояние устаревшего формата — сбрасываем.
		c.cancelFlow(ctx, log, msg)
	}
}

func (c *Controller) cancelFlow(ctx context.Context, log *zap.Logger, msg *telegram.Message) {
	if err := c.states.Clear(ctx, msg.From.ID); err != nil {
		log.Error("ошибка сброса состояния диалога", zap.Error(err))
	}
	c.send(ctx, log, msg.Chat.ID, "Операция отменена.", c.mainMenuFor(msg.From.ID))
}

// --- Создание задания ---

func (c *Controller) startCreation(ctx context.Context, log *zap.Logger, msg *telegram.Message) {
	if err := c.states.Set(ctx, msg.From.ID, fsm.Record{State: fsm.StateWorkType}); err != nil {
		log.Error("ошибка сохранения состояния диалога", zap.Error(err))
		c.send(ctx, log, msg.Chat.ID, msgGenericError)
		return
	}
	c.send(ctx, log, msg.Chat.ID, "Начинаем создание задания.", telegram.WithReplyKeyboard(creationMenu()))
	c.send(ctx, log, msg.Chat.ID, "Выберите вид работ:", telegram.WithKeyboard(workTypeKeyboard(c.cfg.WorkTypes)))
}

// Вид работ принимается и текстом, если совпадает с настроенным набором.
func (c *Controller) stepWorkType(ctx context.Context, log *zap.Logger, msg *telegram.Message, rec fsm.Record, text string) {
	if !c.cfg.IsWorkType(text) {
		c.send(ctx, log, msg.Chat.ID, "Не знаю такой вид работ. Выберите кнопкой:",
			telegram.WithKeyboard(workTypeKeyboard(c.cfg.WorkTypes)))
		return
	}
	c.advanceToDeadline(ctx, log, msg.From.ID, msg.Chat.ID, rec, text)
}

func (c *Controller) advanceToDeadline(ctx context.Context, log *zap.Logger, userID, chatID int64, rec fsm.Record, workType string) {
	rec.State = fsm.StateDeadline
	rec.Draft.WorkType = workType
	if err := c.states.Set(ctx, userID, rec); err != nil {
		log.Error("ошибка сохранения состояния диалога", zap.Error(err))
		c.send(ctx, log, chatID, msgGenericError)
		return
	}
	c.send(ctx, log, chatID, "Введите срок: 2025-12-31, 31.12.2025 или 31.12.2025 18:30")
}

func (c *Controller) stepDeadline(ctx context.Context, log *zap.Logger, msg *telegram.Message, rec fsm.Record, text string) {
	deadline, err := validation.ParseDeadline(text)
	if err != nil {
		// Невалидный ввод — локальный повтор, состояние не продвигается.
		c.send(ctx, log, msg.Chat.ID,
			"Не понял дату 😕\nДопустимые форматы: 2025-10-31, 31.10.2025, 31/10/2025 (можно с временем: 31.10.2025 18:30).\nПожалуйста, введите дату ещё раз:")
		return
	}

	rec.State = fsm.StateProject
	rec.Draft.Deadline = deadline
	if err := c.states.Set(ctx, msg.From.ID, rec); err != nil {
		log.Error("ошибка сохранения состояния диалога", zap.Error(err))
		c.send(ctx, log, msg.Chat.ID, msgGenericError)
		return
	}
	c.send(ctx, log, msg.Chat.ID, "Введите проект:")
}

func (c *Controller) stepProject(ctx context.Context, log *zap.Logger, msg *telegram.Message, rec fsm.Record, text string) {
	rec.State = fsm.StateCustomer
	rec.Draft.Project = text
	if err := c.states.Set(ctx, msg.From.ID, rec); err != nil {
		log.Error("ошибка сохранения состояния диалога", zap.Error(err))
		c.send(ctx, log, msg.Chat.ID, msgGenericError)
		return
	}
	c.promptCustomer(ctx, log, msg.Chat.ID, "Выберите заказчика:")
}

func (c *Controller) promptCustomer(ctx context.Context, log *zap.Logger, chatID int64, prompt string) {
	customers, err := c.customerRepository.ListCustomers(ctx)
	if err != nil {
		log.Error("ошибка получения справочника заказчиков", zap.Error(err))
		c.send(ctx, log, chatID, msgGenericError)
		return
	}
	c.send(ctx, log, chatID, prompt, telegram.WithKeyboard(customersKeyboard(customers)))
}

func (c *Controller) stepTotalVolume(ctx context.Context, log *zap.Logger, msg *telegram.Message, rec fsm.Record, text string) {
	volume, err := validation.ParseVolume(text)
	if err != nil {
		c.send(ctx, log, msg.Chat.ID, "Не получилось распознать число. Введите общий объём (число, можно с запятой):")
		return
	}
	if volume.Sign() <= 0 {
		c.send(ctx, log, msg.Chat.ID, "Объём должен быть больше 0. Повторите ввод:")
		return
	}

	rec.State = fsm.StateComment
	rec.Draft.TotalVolume = volume
	if err := c.states.Set(ctx, msg.From.ID, rec); err != nil {
		log.Error("ошибка сохранения состояния диалога", zap.Error(err))
		c.send(ctx, log, msg.Chat.ID, msgGenericError)
		return
	}
	c.send(ctx, log, msg.Chat.ID, "Комментарий (или '-' если нет):")
}

// stepComment — финальный шаг: фиксация задания и публикация.
func (c *Controller) stepComment(ctx context.Context, log *zap.Logger, msg *telegram.Message, rec fsm.Record, text string) {
	// Защита от рассинхронизации: дошли до комментария без заказчика —
	// возвращаемся к выбору, а не фиксируем с пустой ссылкой.
	if rec.Draft.CustomerID == 0 {
		rec.State = fsm.StateCustomer
		if err := c.states.Set(ctx, msg.From.ID, rec); err != nil {
			log.Error("ошибка сохранения состояния диалога", zap.Error(err))
			c.send(ctx, log, msg.Chat.ID, msgGenericError)
			return
		}
		c.promptCustomer(ctx, log, msg.Chat.ID, "Сначала выберите заказчика:")
		return
	}

	assignment := draftToAssignment(msg.From.ID, rec.Draft, text)

	id, err := c.assignmentRepository.CreateAssignment(ctx, assignment)
	if err != nil {
		// Черновик не сбрасываем: повторная отправка комментария повторит фиксацию.
		log.Error("ошибка фиксации задания", zap.Int64("author_id", msg.From.ID), zap.Error(err))
		c.send(ctx, log, msg.Chat.ID, "Не удалось сохранить задание. Отправьте комментарий ещё раз или отмените операцию.")
		return
	}
	assignment.ID = id

	if err := c.publisher.PublishAssignment(ctx, assignment); err != nil {
		// Задание уже существует; публикации нет — сообщаем и не лечим сами.
		log.Error("ошибка публикации задания", zap.Int64("assignment_id", id), zap.Error(err))
		c.clearState(ctx, log, msg.From.ID)
		c.send(ctx, log, msg.Chat.ID,
			fmt.Sprintf("Задание #%d сохранено, но опубликовать его не удалось. Обратитесь к администратору.", id),
			c.mainMenuFor(msg.From.ID))
		return
	}

	c.clearState(ctx, log, msg.From.ID)
	c.send(ctx, log, msg.Chat.ID, "Задание опубликовано в общем чате ✅", c.mainMenuFor(msg.From.ID))
}

func draftToAssignment(authorID int64, draft fsm.Draft, commentText string) *entities.Assignment {
	a := &entities.Assignment{
		AuthorID:    authorID,
		WorkType:    draft.WorkType,
		DeadlineAt:  draft.Deadline,
		TotalVolume: draft.TotalVolume,
	}
	if draft.Project != "" {
		project := draft.Project
		a.Project = &project
	}
	if draft.CustomerID != 0 {
		customerID := draft.CustomerID
		customerName := draft.CustomerName
		a.CustomerID = &customerID
		a.Customer = &customerName
	}
	if commentText = strings.TrimSpace(commentText); commentText != "" && commentText != "-" {
		a.Comment = &commentText
	}
	return a
}

// --- Взятие объёма ---

func (c *Controller) stepClaimVolume(ctx context.Context, log *zap.Logger, msg *telegram.Message, rec fsm.Record, text string) {
	assignmentID := rec.Draft.AssignmentID
	if assignmentID == 0 {
		c.clearState(ctx, log, msg.From.ID)
		c.send(ctx, log, msg.Chat.ID, "Не удалось определить задание. Начните заново:", c.mainMenuFor(msg.From.ID))
		return
	}

	volume, err := validation.ParsePositiveInt(text)
	if err != nil {
		c.send(ctx, log, msg.Chat.ID, "Не получилось распознать число.\nВведите объём (целое число от 1):",
			telegram.WithReplyKeyboard(claimMenu()))
		return
	}

	_, err = c.ledger.TakeClaim(ctx, assignmentID, msg.From.ID, decimal.NewFromInt(volume))
	if err != nil {
		var rejected *apperrors.ClaimRejectedError
		if errors.As(err, &rejected) {
			// Отказ леджера: показываем актуальный свободный объём, диалог жив.
			c.send(ctx, log, msg.Chat.ID,
				fmt.Sprintf("Нельзя взять %d. Доступно сейчас: %s. Введите другое значение:", volume, rejected.Free.String()),
				telegram.WithReplyKeyboard(claimMenu()))
			return
		}
		log.Error("ошибка взятия объёма", zap.Int64("assignment_id", assignmentID), zap.Error(err))
		c.send(ctx, log, msg.Chat.ID, msgGenericError, telegram.WithReplyKeyboard(claimMenu()))
		return
	}

	c.clearState(ctx, log, msg.From.ID)
	c.send(ctx, log, msg.Chat.ID,
		fmt.Sprintf("Готово! Вы взяли %d по заданию #%d ✅", volume, assignmentID),
		c.mainMenuFor(msg.From.ID))
}

// --- Callback-кнопки ---

func (c *Controller) handleCallback(ctx context.Context, log *zap.Logger, cb *telegram.CallbackQuery) {
	defer func() {
		if err := c.tg.AnswerCallbackQuery(ctx, cb.ID, ""); err != nil {
			log.Error("ошибка ответа на callback", zap.Error(err))
		}
	}()

	if c.gate.Admit(cb.From.ID, "", true) != services.Allow {
		return
	}

	chatID := cb.From.ID
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
	}

	rec, err := c.states.Get(ctx, cb.From.ID)
	if err != nil {
		log.Error("ошибка чтения состояния диалога", zap.Int64("user_id", cb.From.ID), zap.Error(err))
		return
	}

	switch {
	case strings.HasPrefix(cb.Data, "worktype:"):
		workType := strings.TrimPrefix(cb.Data, "worktype:")
		if rec.State != fsm.StateWorkType || !c.cfg.IsWorkType(workType) {
			return
		}
		c.advanceToDeadline(ctx, log, cb.From.ID, chatID, rec, workType)

	case strings.HasPrefix(cb.Data, "customer:"):
		if rec.State != fsm.StateCustomer {
			return
		}
		customerID, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, "customer:"), 10, 64)
		if err != nil {
			return
		}
		customer, err := c.customerRepository.FindCustomer(ctx, customerID)
		if err != nil {
			log.Warn("выбран несуществующий заказчик", zap.Int64("customer_id", customerID), zap.Error(err))
			c.promptCustomer(ctx, log, chatID, "Заказчик не найден. Выберите из списка:")
			return
		}

		rec.State = fsm.StateTotalVolume
		rec.Draft.CustomerID = customer.ID
		rec.Draft.CustomerName = customer.Name
		if err := c.states.Set(ctx, cb.From.ID, rec); err != nil {
			log.Error("ошибка сохранения состояния диалога", zap.Error(err))
			c.send(ctx, log, chatID, msgGenericError)
			return
		}
		c.send(ctx, log, chatID, "Введите общий объём (число, можно с запятой):")
	}
}

// --- Вспомогательное ---

func (c *Controller) clearState(ctx context.Context, log *zap.Logger, userID int64) {
	if err := c.states.Clear(ctx, userID); err != nil {
		log.Error("ошибка сброса состояния диалога", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// parseID разбирает ID из уже сматченного regex-ввода. Ошибка возможна
// только при переполнении int64 — такой ввод трактуется как несуществующий ID.
func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
