// Файл: internal/controllers/telegram/controller.go
package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskbot/internal/fsm"
	"taskbot/internal/repositories"
	"taskbot/internal/services"
	"taskbot/pkg/config"
	"taskbot/pkg/telegram"
)

var deepLinkRe = regexp.MustCompile(`^assign_(\d+)$`)

const (
	msgAccessDenied = "Доступ только для участников общего чата. Вступите в чат и повторно отправьте /start."
	msgGenericError = "Что-то пошло не так. Попробуйте ещё раз."
	msgWelcome      = "Добро пожаловать в TASKBOT!"
	msgChooseAction = "Выберите действие:"
)

type Controller struct {
	cfg                  *config.Config
	tg                   telegram.ServiceInterface
	gate                 *services.AccessGate
	userService          *services.UserService
	ledger               *services.VolumeLedgerService
	publisher            *services.PublisherService
	exporter             *services.ExportService
	assignmentRepository repositories.AssignmentRepositoryInterface
	customerRepository   repositories.CustomerRepositoryInterface
	threadRepository     repositories.ThreadBindingRepositoryInterface
	states               fsm.Storage
	logger               *zap.Logger

	botID       int64
	botUsername string
}

func NewController(
	cfg *config.Config,
	tg telegram.ServiceInterface,
	gate *services.AccessGate,
	userService *services.UserService,
	ledger *services.VolumeLedgerService,
	publisher *services.PublisherService,
	exporter *services.ExportService,
	assignmentRepository repositories.AssignmentRepositoryInterface,
	customerRepository repositories.CustomerRepositoryInterface,
	threadRepository repositories.ThreadBindingRepositoryInterface,
	states fsm.Storage,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		cfg:                  cfg,
		tg:                   tg,
		gate:                 gate,
		userService:          userService,
		ledger:               ledger,
		publisher:            publisher,
		exporter:             exporter,
		assignmentRepository: assignmentRepository,
		customerRepository:   customerRepository,
		threadRepository:     threadRepository,
		states:               states,
		logger:               logger,
	}
}

// SetBotIdentity сообщает контроллеру данные getMe (нужны для приветствия в
// группе и диплинков публикатора).
func (c *Controller) SetBotIdentity(me *telegram.User) {
	c.botID = me.ID
	c.botUsername = me.Username
}

// HandleUpdate — единая точка входа для апдейта (polling или webhook).
func (c *Controller) HandleUpdate(ctx context.Context, upd telegram.Update) {
	log := c.logger.With(
		zap.String("correlation_id", uuid.NewString()),
		zap.Int64("tg_update_id", upd.UpdateID),
	)

	switch {
	case upd.CallbackQuery != nil:
		c.handleCallback(ctx, log, upd.CallbackQuery)
	case upd.Message != nil:
		c.handleMessage(ctx, log, upd.Message)
	}
}

func (c *Controller) handleMessage(ctx context.Context, log *zap.Logger, msg *telegram.Message) {
	if msg.From == nil {
		return
	}

	if msg.Chat.IsGroup() {
		c.handleGroupMessage(ctx, log, msg)
		return
	}
	if !msg.Chat.IsPrivate() {
		return
	}

	switch c.gate.Admit(msg.From.ID, msg.Text, true) {
	case services.DenyNotice:
		c.send(ctx, log, msg.Chat.ID, msgAccessDenied)
		return
	case services.DenySilent:
		return
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/start") {
		c.handleStart(ctx, log, msg, text)
		return
	}

	rec, err := c.states.Get(ctx, msg.From.ID)
	if err != nil {
		log.Error("ошибка чтения состояния диалога", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		c.send(ctx, log, msg.Chat.ID, msgGenericError)
		return
	}

	if rec.State != fsm.StateIdle {
		c.handleFlowMessage(ctx, log, msg, rec, text)
		return
	}
	c.handleMenu(ctx, log, msg, text)
}

// handleGroupMessage: приветствие при добавлении бота в чат, остальное — молча.
func (c *Controller) handleGroupMessage(ctx context.Context, log *zap.Logger, msg *telegram.Message) {
	for _, member := range msg.NewChatMembers {
		if member.ID == c.botID {
			c.send(ctx, log, msg.Chat.ID,
				"👋 Всем привет! Я бот для управления задачами.\nИспользуйте /start в личке.")
			return
		}
	}
}

// handleStart: регистрация, затем либо диплинк assign_<id> в claim-диалог,
// либо главное меню. Любой другой параметр — обычный /start.
func (c *Controller) handleStart(ctx context.Context, log *zap.Logger, msg *telegram.Message, text string) {
	registered, err := c.userService.Register(ctx, *msg.From)
	if err != nil {
		log.Error("ошибка регистрации", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		c.send(ctx, log, msg.Chat.ID, msgGenericError)
		return
	}
	if !registered {
		c.send(ctx, log, msg.Chat.ID,
			"Доступ только для участников общего чата.\nВступите в общий чат и затем отправьте /start в личку.")
		return
	}

	payload := strings.TrimSpace(strings.TrimPrefix(text, "/start"))
	if m := deepLinkRe.FindStringSubmatch(payload); m != nil {
		assignmentID, err := parseID(m[1])
		if err != nil {
			log.Warn("некорректный id задания в диплинке", zap.String("payload", payload), zap.Error(err))
			c.send(ctx, log, msg.Chat.ID, "Не удалось определить задание. Откройте ссылку из публикации ещё раз.", c.mainMenuFor(msg.From.ID))
			return
		}
		// Запись перезаписывается целиком: незавершённый диалог не сливается.
		rec := fsm.Record{State: fsm.StateClaimVolume}
		rec.Draft.AssignmentID = assignmentID
		if err := c.states.Set(ctx, msg.From.ID, rec); err != nil {
			log.Error("ошибка сохранения состояния диалога", zap.Error(err))
			c.send(ctx, log, msg.Chat.ID, msgGenericError)
			return
		}
		c.send(ctx, log, msg.Chat.ID,
			fmt.Sprintf("Нашёл задание #%d.\nВведите объём, который хотите взять (целое число от 1):", assignmentID),
			telegram.WithReplyKeyboard(claimMenu()))
		return
	}

	if err := c.states.Clear(ctx, msg.From.ID); err != nil {
		log.Error("ошибка сброса состояния диалога", zap.Error(err))
	}
	c.send(ctx, log, msg.Chat.ID, msgWelcome, c.mainMenuFor(msg.From.ID))
}

func (c *Controller) mainMenuFor(userID int64) telegram.MessageOption {
	if c.cfg.IsAdmin(userID) {
		return telegram.WithReplyKeyboard(adminMenu())
	}
	return telegram.WithReplyKeyboard(userMenu())
}

func (c *Controller) send(ctx context.Context, log *zap.Logger, chatID int64, text string, options ...telegram.MessageOption) {
	if _, err := c.tg.SendMessage(ctx, chatID, text, options...); err != nil {
		log.Error("ошибка отправки сообщения", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
