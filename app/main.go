// Файл: app/main.go
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	tgcontroller "taskbot/internal/controllers/telegram"
	"taskbot/internal/fsm"
	"taskbot/internal/repositories"
	"taskbot/internal/services"
	"taskbot/migrations"
	"taskbot/pkg/config"
	"taskbot/pkg/database/postgresql"
	applogger "taskbot/pkg/logger"
	"taskbot/pkg/telegram"
	"taskbot/seeders"
)

func main() {
	logger := applogger.NewLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Конфигурация. Любая ошибка старта фатальна: бот не выходит на линию.
	cfg, err := config.New()
	if err != nil {
		logger.Fatal("ошибка загрузки конфигурации", zap.Error(err))
	}

	// 2. БД: пул, миграции, стартовый справочник.
	pool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("ошибка подключения к БД", zap.Error(err))
	}
	defer pool.Close()

	if err := migrations.Apply(cfg.Postgres.DSN); err != nil {
		logger.Fatal("ошибка применения миграций", zap.Error(err))
	}
	if err := seeders.SeedCustomers(ctx, pool, logger); err != nil {
		logger.Fatal("ошибка заполнения справочника заказчиков", zap.Error(err))
	}

	// 3. Репозитории.
	userRepo := repositories.NewUserRepository(pool, logger)
	assignmentRepo := repositories.NewAssignmentRepository(pool, logger)
	claimRepo := repositories.NewClaimRepository(pool, logger)
	customerRepo := repositories.NewCustomerRepository(pool, logger)
	threadRepo := repositories.NewThreadBindingRepository(pool, logger)

	// 4. Кэш членства: сид из БД; явный allow-list из конфигурации добавляется
	// поверх. Сбой загрузки не фатален — продолжаем с пустым кэшем.
	cache := services.NewMembershipCache()
	if memberIDs, err := userRepo.ListMemberIDs(ctx); err != nil {
		logger.Error("не удалось загрузить кэш участников, продолжаем с пустым", zap.Error(err))
	} else {
		cache.Load(memberIDs)
		logger.Info("кэш участников загружен", zap.Int("count", len(memberIDs)))
	}
	for id := range cfg.Users {
		cache.Add(id)
	}

	// 5. Хранилище состояний диалогов: Redis, если настроен, иначе память.
	var states fsm.Storage = fsm.NewMemoryStorage()
	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
		}
		states = fsm.NewRedisStorage(redisClient)
		logger.Info("состояния диалогов хранятся в Redis", zap.String("address", cfg.Redis.Address))
	}

	// 6. Telegram: авторизация бота.
	tgService := telegram.NewService(cfg.Telegram.BotToken)
	me, err := tgService.GetMe(ctx)
	if err != nil {
		logger.Fatal("не удалось авторизовать бота (проверьте BOT_TOKEN / сеть)", zap.Error(err))
	}
	logger.Info("бот авторизован", zap.String("username", me.Username), zap.Int64("id", me.ID))

	// 7. Сервисы и контроллер.
	gate := services.NewAccessGate(cfg.Admins, cache)
	userService := services.NewUserService(userRepo, cache, tgService, cfg.Admins, cfg.GeneralChatID(), logger)
	ledger := services.NewVolumeLedgerService(claimRepo, logger)
	publisher := services.NewPublisherService(tgService, assignmentRepo, threadRepo,
		cfg.ThreadsByWorkType, cfg.GeneralChatID(), logger)
	publisher.SetBotUsername(me.Username)
	exporter := services.NewExportService(tgService, assignmentRepo, claimRepo, ledger, logger)

	controller := tgcontroller.NewController(cfg, tgService, gate, userService, ledger,
		publisher, exporter, assignmentRepo, customerRepo, threadRepo, states, logger)
	controller.SetBotIdentity(me)

	// 8. Планировщик напоминаний.
	reminder := services.NewReminderService(tgService, assignmentRepo, ledger, publisher, cfg.RemindEvery, logger)
	go reminder.Run(ctx)

	// 9. Приём апдейтов: webhook или long polling.
	if cfg.Telegram.WebhookURL != "" {
		runWebhook(ctx, cfg, tgService, controller, logger)
		return
	}

	logger.Info("🚀 Бот запущен в режиме long polling")
	if err := controller.RunPolling(ctx); err != nil {
		logger.Fatal("ошибка цикла polling", zap.Error(err))
	}
	logger.Info("Остановка бота")
}

func runWebhook(ctx context.Context, cfg *config.Config, tgService *telegram.Service,
	controller *tgcontroller.Controller, logger *zap.Logger) {

	if err := tgService.SetWebhook(ctx, cfg.Telegram.WebhookURL); err != nil {
		logger.Fatal("не удалось установить webhook", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.POST("/telegram/webhook", controller.HandleTelegramWebhook)

	go func() {
		<-ctx.Done()
		_ = e.Shutdown(context.Background())
	}()

	logger.Info("🚀 Бот запущен в режиме webhook", zap.String("port", cfg.Telegram.ServerPort))
	if err := e.Start(":" + cfg.Telegram.ServerPort); err != nil && err != http.ErrServerClosed {
		logger.Fatal("ошибка запуска сервера", zap.Error(err))
	}
	logger.Info("Остановка бота")
}
