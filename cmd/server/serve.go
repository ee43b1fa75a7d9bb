package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/config"
	"github.com/chantierdirect/backend/internal/database"
	"github.com/chantierdirect/backend/internal/handlers"
	"github.com/chantierdirect/backend/internal/jobs"
	"github.com/chantierdirect/backend/internal/metrics"
	"github.com/chantierdirect/backend/internal/middleware"
	"github.com/chantierdirect/backend/internal/queue"
	"github.com/chantierdirect/backend/internal/repository"
	"github.com/chantierdirect/backend/internal/resilience"
	"github.com/chantierdirect/backend/internal/routes"
	"github.com/chantierdirect/backend/internal/services/documents"
	"github.com/chantierdirect/backend/internal/services/marketplace"
	"github.com/chantierdirect/backend/internal/services/notification"
	"github.com/chantierdirect/backend/internal/storage"
	"github.com/chantierdirect/backend/internal/utils"
	"github.com/chantierdirect/backend/internal/verification"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the job worker and the schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on start")
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := database.InitDB(cfg.Database, !cfg.IsProduction(), logger)
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck

	if !skipMigrations {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	docCatalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	blobs, err := storage.NewLocal(cfg.Storage.UploadsDir, cfg.Storage.MaxUploadSize)
	if err != nil {
		return err
	}

	m := metrics.New()

	documentStore := repository.NewDocumentStore(db)
	userStore := repository.NewUserStore(db)
	projectStore := repository.NewProjectStore(db)
	offerStore := repository.NewOfferStore(db)
	contactStore := repository.NewContactStore(db)

	fetchCfg := resilience.Config{
		Timeout:      cfg.Verification.FetchTimeout,
		MinRequests:  cfg.Verification.BreakerMinRequests,
		FailureRatio: cfg.Verification.BreakerFailureRatio,
		OpenTimeout:  cfg.Verification.BreakerOpenTimeout,
	}
	guarded := resilience.NewGuardedLister(documentStore, fetchCfg, logger)
	guardedBatch := resilience.NewGuardedBatchLister(documentStore, fetchCfg, logger)
	engine := verification.NewEngine(docCatalog, guarded, logger.Named("verification"), m)

	jobQueue := queue.NewRedisQueue(redisClient, "chantier", logger.Named("queue"))

	documentService := documents.NewService(documentStore, blobs, docCatalog, jobQueue, logger.Named("documents"))
	marketService := marketplace.NewService(marketplace.Deps{
		Projects:    projectStore,
		Offers:      offerStore,
		Users:       userStore,
		Submissions: guardedBatch,
		Contacts:    contactStore,
		Verifier:    engine,
		Catalog:     docCatalog,
		Logger:      logger.Named("marketplace"),
	})

	notifier := notification.New(cfg.SMTP, logger.Named("mail"))
	worker := queue.NewWorker(jobQueue, cfg.Worker.Concurrency, logger.Named("worker"), m)
	jobs.Register(worker, jobs.NewNotificationJobs(userStore, engine, notifier, docCatalog, cfg.FrontendURL, logger.Named("jobs")))

	sweeps := jobs.NewSweeps(userStore, guardedBatch, documentStore, m, jobQueue, docCatalog, logger.Named("sweeps"))
	scheduler, err := jobs.NewScheduler(cfg.Worker, sweeps, logger.Named("scheduler"))
	if err != nil {
		return err
	}

	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	limiter := middleware.NewRateLimiter(5, 10, 20, 5)
	defer limiter.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(logger.Named("http")),
		m.Middleware(),
		middleware.SecureHeadersMiddleware(middleware.DefaultSecureHeadersConfig(cfg.IsProduction())),
		cors.New(cors.Config{
			AllowOrigins:     []string{cfg.FrontendURL},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Authorization"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	routes.RegisterRoutes(router, routes.Deps{
		Auth:        middleware.NewAuth(tokens, userStore, logger.Named("auth")),
		RateLimiter: limiter,
		Verifier:    engine,
		Metrics:     m.Handler(),
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"database": sqlDB,
			"redis": handlers.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
		}),
		Accounts:    handlers.NewAuthHandler(userStore, tokens, engine, logger.Named("auth")),
		Documents:   handlers.NewDocumentHandler(documentService, engine, cfg.Storage.MaxUploadSize, logger.Named("documents")),
		Marketplace: handlers.NewMarketplaceHandler(marketService, logger.Named("marketplace")),
		Queue:       handlers.NewQueueHandler(jobQueue, logger.Named("queue")),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	worker.Start(ctx)
	scheduler.Start()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var listenErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case listenErr = <-serverErr:
		if listenErr != nil {
			logger.Error("server stopped", zap.Error(listenErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)

	scheduler.Stop()
	worker.Stop()

	if listenErr != nil {
		return fmt.Errorf("server failed: %w", listenErr)
	}
	if shutdownErr != nil {
		return fmt.Errorf("server forced to shutdown: %w", shutdownErr)
	}
	logger.Info("server stopped")
	return nil
}
