package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	_ "github.com/beaconaid/foundation-api/api/swagger"
	"github.com/beaconaid/foundation-api/internal/handler"
	"github.com/beaconaid/foundation-api/internal/repository"
	"github.com/beaconaid/foundation-api/internal/service"
	"github.com/beaconaid/foundation-api/pkg/cache"
	"github.com/beaconaid/foundation-api/pkg/config"
	"github.com/beaconaid/foundation-api/pkg/database"
	"github.com/beaconaid/foundation-api/pkg/jobs"
	"github.com/beaconaid/foundation-api/pkg/logger"
)

// @title BeaconAid Foundation API
// @version 1.0.0
// @description Multi-tenant foundation and scholarship management API
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	foundationRepo := repository.NewFoundationRepository(db)
	supportConfigRepo := repository.NewSupportConfigRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	academicRepo := repository.NewAcademicRepository(db)
	financeRepo := repository.NewFinanceRepository(db)
	programRepo := repository.NewProgramRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	// Shared services.
	gate := service.NewAccessService(userRepo, metrics, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Support.CacheTTL, logr, cfg.Support.CacheEnabled)
	evaluator := service.NewEligibilityEvaluator(metrics)
	notificationSvc := service.NewNotificationService(notificationRepo, jobs.QueueConfig{
		Workers:    cfg.Notifications.WorkerConcurrency,
		MaxRetries: cfg.Notifications.WorkerRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	}, logr)

	// Domain services.
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	foundationSvc := service.NewFoundationService(foundationRepo, auditRepo, validate, logr)
	supportConfigSvc := service.NewSupportConfigService(supportConfigRepo, userRepo, auditRepo, cacheSvc, evaluator, validate, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, supportConfigRepo, userRepo, auditRepo, evaluator, notificationSvc, validate, logr)
	academicSvc := service.NewAcademicService(academicRepo, userSvc, auditRepo, validate, logr)
	financeSvc := service.NewFinanceService(financeRepo, userRepo, auditRepo, notificationSvc, cfg.Exports.StatementName, validate, logr)
	programSvc := service.NewProgramService(programRepo, userRepo, auditRepo, validate, logr)
	documentSvc := service.NewDocumentService(documentRepo, auditRepo, notificationSvc, validate, logr)
	messageSvc := service.NewMessageService(messageRepo, userRepo, auditRepo, notificationSvc, validate, logr)
	auditSvc := service.NewAuditService(auditRepo, logr)

	queueCtx, stopQueue := context.WithCancel(context.Background())
	defer stopQueue()
	if cfg.Notifications.Enabled {
		notificationSvc.Start(queueCtx)
		defer notificationSvc.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := routeDeps{
		cfg:           cfg,
		authSvc:       authSvc,
		metrics:       metrics,
		auth:          handler.NewAuthHandler(authSvc, gate),
		users:         handler.NewUserHandler(userSvc, gate),
		foundations:   handler.NewFoundationHandler(foundationSvc, gate),
		supports:      handler.NewSupportConfigHandler(supportConfigSvc, gate),
		applications:  handler.NewApplicationHandler(applicationSvc, gate),
		academic:      handler.NewAcademicHandler(academicSvc, gate),
		finance:       handler.NewFinanceHandler(financeSvc, gate),
		programs:      handler.NewProgramHandler(programSvc, gate),
		documents:     handler.NewDocumentHandler(documentSvc, gate),
		messages:      handler.NewMessageHandler(messageSvc, gate),
		notifications: handler.NewNotificationHandler(notificationSvc, gate),
		audit:         handler.NewAuditHandler(auditSvc, gate),
		observability: handler.NewMetricsHandler(metrics),
	}

	r := newRouter(logr, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
