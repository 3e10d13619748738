package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/case-service/internal/api/http"
	"github.com/spec-kit/case-service/internal/api/http/handlers"
	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/notify"
	"github.com/spec-kit/case-service/internal/observability"
	"github.com/spec-kit/case-service/internal/persistence"
	"github.com/spec-kit/case-service/internal/repository"
	"github.com/spec-kit/case-service/internal/service"
	"github.com/spec-kit/case-service/internal/storage"
	"github.com/spec-kit/case-service/internal/upload"
	"github.com/spec-kit/case-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store, err := storage.NewFileStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to init file store", zap.Error(err))
	}

	pool := pg.PoolHandle()
	caseRepo := repository.NewCaseRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	requesterRepo := repository.NewRequesterRepository(pool)
	templateRepo := repository.NewTemplateRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	emailGateway := notify.NewEmailGateway(templateRepo, cfg.Mail, logger)
	chatGateway := notify.NewChatGateway(redis.Client, cfg.Chat, logger)

	caseService := service.NewCaseService(service.CaseDependencies{
		CaseRepo:       caseRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		HistoryRepo:    historyRepo,
		RequesterRepo:  requesterRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		CaseRepo:    caseRepo,
		CommentRepo: commentRepo,
		HistoryRepo: historyRepo,
		StaffRepo:   staffRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		CaseRepo:    caseRepo,
		CommentRepo: commentRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	attachmentService := service.NewAttachmentService(service.AttachmentDependencies{
		CaseRepo:       caseRepo,
		AttachmentRepo: attachmentRepo,
		Store:          store,
		Validator:      upload.NewValidator(cfg.Upload),
		Logger:         logger,
	})
	conversionService := service.NewConversionService(service.ConversionDependencies{
		CaseRepo:       caseRepo,
		CommentRepo:    commentRepo,
		HistoryRepo:    historyRepo,
		AttachmentRepo: attachmentRepo,
		Store:          store,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	notificationDispatcher := service.NewNotificationDispatcher(service.NotificationDependencies{
		CaseRepo: caseRepo,
		Email:    emailGateway,
		Chat:     chatGateway,
		Config:   cfg.Notification,
		Metrics:  metrics,
		Logger:   logger,
	})
	worker.StartNotificationWorker(dispatcher, notificationDispatcher)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, requesterRepo, staffRepo)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Upload.MaxFileBytes) + 1024*1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Cases:          handlers.NewCasesHandler(caseService, lifecycleService, commentService, conversionService),
		RequesterCases: handlers.NewRequesterCasesHandler(caseService, commentService),
		Attachments:    handlers.NewAttachmentsHandler(attachmentService),
		Staff:          handlers.NewStaffHandler(staffRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
