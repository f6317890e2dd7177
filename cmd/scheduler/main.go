package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/consult_scheduler/internal/app"
	"github.com/Freeeeeet/consult_scheduler/internal/cache"
	"github.com/Freeeeeet/consult_scheduler/internal/clock"
	"github.com/Freeeeeet/consult_scheduler/internal/config"
	"github.com/Freeeeeet/consult_scheduler/internal/controller"
	"github.com/Freeeeeet/consult_scheduler/internal/meeting"
	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/Freeeeeet/consult_scheduler/internal/notification"
	"github.com/Freeeeeet/consult_scheduler/internal/payment"
	"github.com/Freeeeeet/consult_scheduler/internal/repository"
	"github.com/Freeeeeet/consult_scheduler/internal/service"
	"github.com/Freeeeeet/consult_scheduler/migrations"
	"github.com/go-telegram/bot"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Scheduler stopped with error", zap.Error(err))
	}
	logger.Info("Scheduler stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting consult scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.Location.String()))

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	migrator, err := app.NewMigrator(pool, migrations.FS, ".", logger)
	if err != nil {
		return err
	}
	err = migrator.Run(ctx)
	migrator.Close()
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	rescheduleRepo := repository.NewRescheduleRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	availabilityRepo := repository.NewAvailabilityRepository(pool, logger)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	lockRepo := repository.NewLockRepository(pool)

	clk := clock.NewReal(cfg.Location)
	types := model.DefaultBookingTypes()

	var telegram *bot.Bot
	var deliverer notification.Deliverer = notification.NewLogNotifier(logger)
	if cfg.TelegramToken != "" {
		telegram, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
		deliverer = notification.NewTelegramNotifier(telegram, userRepo, cfg.OperatorChatID, logger)
	}

	var notifier service.Notifier = deliverer
	var tickLock app.TickLocker
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		tickLock = cache.NewTickLock(redisClient, "consult")

		redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		queueClient := asynq.NewClient(redisOpt)
		defer queueClient.Close()
		notifier = notification.NewQueue(queueClient, logger)

		worker := notification.NewWorker(redisOpt, deliverer, logger)
		if err := worker.Start(); err != nil {
			return err
		}
		defer worker.Shutdown()
	}

	var refunds service.Refunder
	if cfg.StripeKey != "" {
		refunds = payment.NewStripeRefunder(cfg.StripeKey, logger)
	}

	var meetings service.MeetingProvider
	if cfg.MeetingBaseURL != "" {
		jitsi, err := meeting.NewJitsiProvider(cfg.MeetingBaseURL, "")
		if err != nil {
			return err
		}
		meetings = jitsi
	}

	availabilityService := service.NewAvailabilityService(availabilityRepo, bookingRepo, clk, logger)
	quotaService := service.NewQuotaService(bookingRepo, subscriptionRepo, clk, logger)
	bookingService := service.NewBookingService(
		bookingRepo,
		reviewRepo,
		lockRepo,
		availabilityService,
		quotaService,
		meetings,
		refunds,
		notifier,
		types,
		clk,
		logger,
	)
	rescheduleService := service.NewRescheduleService(
		bookingRepo,
		rescheduleRepo,
		lockRepo,
		availabilityService,
		meetings,
		notifier,
		types,
		clk,
		cfg.NoticeWindow,
		logger,
	)
	reconciliationService := service.NewReconciliationService(bookingRepo, notifier, types, clk, cfg.ReminderLead, logger)

	scheduler := app.NewScheduler(reconciliationService, tickLock, cfg.ReconcileSchedule, clk, logger)
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	if telegram != nil {
		handlers := controller.NewHandlers(userRepo, bookingService, rescheduleService, availabilityService, cfg.OperatorChatID, logger)
		botController := controller.NewBotController(telegram, handlers, logger)
		botController.RegisterHandlers()
		go botController.Start(ctx)
	}

	<-ctx.Done()
	logger.Info("Shutting down")
	return nil
}
