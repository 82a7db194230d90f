package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/patientcare/hms-api/config"
	"github.com/patientcare/hms-api/pkg/logger"
	"github.com/patientcare/hms-api/pkg/messaging/redis"
	"github.com/patientcare/hms-api/pkg/metrics"
	"github.com/patientcare/hms-api/pkg/rx"
	"github.com/patientcare/hms-api/pkg/security"
	"github.com/patientcare/hms-api/pkg/worker"

	"github.com/patientcare/hms-api/internal/handler/health"
	labHandler "github.com/patientcare/hms-api/internal/handler/lab"
	orderHandler "github.com/patientcare/hms-api/internal/handler/order"
	patientHandler "github.com/patientcare/hms-api/internal/handler/patient"
	pharmacyHandler "github.com/patientcare/hms-api/internal/handler/pharmacy"
	"github.com/patientcare/hms-api/internal/middleware"
	"github.com/patientcare/hms-api/internal/repository/cache"
	"github.com/patientcare/hms-api/internal/repository/postgres"
	"github.com/patientcare/hms-api/internal/router"
	admissionService "github.com/patientcare/hms-api/internal/service/admission"
	billingService "github.com/patientcare/hms-api/internal/service/billing"
	labService "github.com/patientcare/hms-api/internal/service/lab"
	orderService "github.com/patientcare/hms-api/internal/service/order"
	pharmacyService "github.com/patientcare/hms-api/internal/service/pharmacy"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	appLogger := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Pretty:     cfg.Logging.Pretty,
	})
	zlog.Logger = *appLogger.Zerolog()

	db, err := postgres.NewDB(cfg.Database.ToPostgresConfig())
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	patientRepo := postgres.NewPatientRepository(db)
	staffRepo := postgres.NewStaffRepository(db)
	catalogRepo := cache.NewCatalogCache(postgres.NewCatalogRepository(db), cfg.Cache.CatalogTTL)
	admissionRepo := postgres.NewAdmissionRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	pharmacyRepo := postgres.NewPharmacyRepository(db)
	billingRepo := postgres.NewBillingRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	hasher := security.NewBcryptHasher(0)
	admissionSvc := admissionService.NewService(admissionRepo, patientRepo, staffRepo, hasher)
	orderSvc := orderService.NewService(
		patientRepo, staffRepo, catalogRepo, orderRepo,
		assignmentRepo, admissionRepo, prescriptionRepo, outboxRepo,
		rx.NewGenerator(),
	)
	billingSvc := billingService.NewService(patientRepo, billingRepo, admissionRepo, assignmentRepo, prescriptionRepo)
	pharmacySvc := pharmacyService.NewService(pharmacyRepo, patientRepo, catalogRepo, outboxRepo)
	labSvc := labService.NewService(assignmentRepo, patientRepo, staffRepo, catalogRepo, outboxRepo)

	m := metrics.NewMetrics("hms")

	// Handlers
	healthH := health.NewHandler(db)
	patientH := patientHandler.NewHandler(admissionSvc, billingSvc)
	orderH := orderHandler.NewHandler(orderSvc, m)
	pharmH := pharmacyHandler.NewHandler(pharmacySvc, m)
	labH := labHandler.NewHandler(labSvc)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Security.AllowedOrigins
	}

	r := router.NewRouter(authMiddleware, healthH, patientH, orderH, pharmH, labH, router.Config{
		RateLimit:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:     cfg.RateLimit.Burst,
		CORSConfig:    corsConfig,
		MetricsPrefix: "hms_http",
	})
	r.Setup()

	// Outbox processor publishes committed events to Redis.
	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), appLogger.Zerolog())
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	processorCtx, stopProcessor := context.WithCancel(context.Background())
	defer stopProcessor()

	outboxProcessor := worker.NewOutboxProcessor(outboxRepo, broker, cfg.Outbox.ToWorkerConfig(), appLogger, m)
	go outboxProcessor.Start(processorCtx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zlog.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info().Msg("shutting down server")
	stopProcessor()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("forced shutdown")
	}

	zlog.Info().Msg("server exited")
}
