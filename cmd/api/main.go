package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-portal/internal/api/http"
	"github.com/spec-kit/complaint-portal/internal/api/http/handlers"
	"github.com/spec-kit/complaint-portal/internal/auth"
	"github.com/spec-kit/complaint-portal/internal/cache"
	"github.com/spec-kit/complaint-portal/internal/classifier"
	"github.com/spec-kit/complaint-portal/internal/config"
	"github.com/spec-kit/complaint-portal/internal/events"
	"github.com/spec-kit/complaint-portal/internal/observability"
	"github.com/spec-kit/complaint-portal/internal/persistence"
	"github.com/spec-kit/complaint-portal/internal/repository"
	"github.com/spec-kit/complaint-portal/internal/resolver"
	"github.com/spec-kit/complaint-portal/internal/service"
	"github.com/spec-kit/complaint-portal/internal/storage"
	"github.com/spec-kit/complaint-portal/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	imageStore, err := storage.NewMinIOStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to connect minio", zap.Error(err))
	}

	pool := pg.PoolHandle()
	complaintRepo := repository.NewComplaintRepository(pool)
	historyRepo := repository.NewStatusHistoryRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)

	classifierClient := classifier.NewHTTPClient(cfg.Classifier.BaseURL, cfg.Classifier.Timeout())
	departmentResolver := resolver.New(classifierClient, resolver.DefaultRules(), logger)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	var images storage.ImageStore
	if imageStore != nil {
		images = imageStore
	}

	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: complaintRepo,
		HistoryRepo:   historyRepo,
		Resolver:      departmentResolver,
		ImageStore:    images,
		TrackCache:    cache.NewTrackCache(redis.Client, 0),
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	authService := service.NewAuthService(cfg.Auth, adminRepo)
	if admin, err := authService.EnsureBootstrapAdmin(ctx); err != nil {
		logger.Fatal("bootstrap admin", zap.Error(err))
	} else if admin != nil {
		logger.Info("bootstrap admin created", zap.String("email", admin.Email))
	}
	adminMiddleware := auth.NewAdminMiddleware(authService.TokenManager(), adminRepo)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 10 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	complaintsHandler := handlers.NewComplaintsHandler(complaintService)
	adminHandler := handlers.NewAdminHandler(complaintService, authService, images, logger)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          healthHandler,
		Complaints:      complaintsHandler,
		Admin:           adminHandler,
		AdminMiddleware: adminMiddleware,
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
