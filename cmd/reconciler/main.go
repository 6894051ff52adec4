package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jkarimi/pesaflow/internal/pkg/attemptstore"
	"github.com/jkarimi/pesaflow/internal/pkg/config"
	"github.com/jkarimi/pesaflow/internal/pkg/constants"
	"github.com/jkarimi/pesaflow/internal/pkg/database"
	"github.com/jkarimi/pesaflow/internal/pkg/health"
	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/middleware"
	natspkg "github.com/jkarimi/pesaflow/internal/pkg/nats"
	nrpkg "github.com/jkarimi/pesaflow/internal/pkg/newrelic"
	"github.com/jkarimi/pesaflow/internal/pkg/server"
	paymentGateway "github.com/jkarimi/pesaflow/services/payments/gateway"
	paymentRepository "github.com/jkarimi/pesaflow/services/payments/repository"
	"github.com/jkarimi/pesaflow/services/reconciler/gateway"
	"github.com/jkarimi/pesaflow/services/reconciler/handler"
	httpHandler "github.com/jkarimi/pesaflow/services/reconciler/handler/http"
	natsHandler "github.com/jkarimi/pesaflow/services/reconciler/handler/nats"
	"github.com/jkarimi/pesaflow/services/reconciler/usecase"
)

func main() {
	appName := "reconciler-service"
	configPath := "config/reconciler.env"
	configs := config.InitConfig(configPath)

	// Initialize New Relic and Zap logger
	nrApp := nrpkg.InitNewRelic(configs)

	zapLogger, err := logger.InitZapLoggerFromConfig(configs, nrApp)
	if err != nil {
		log.Fatalf("Failed to create Zap logger: %v", err)
	}
	defer zapLogger.Close()

	// Set global logger for application-wide access
	logger.SetGlobalLogger(zapLogger)

	logger.Info("Starting application",
		logger.String("app", appName),
		logger.String("version", configs.App.Version),
		logger.String("environment", configs.App.Environment),
	)

	// Initialize PostgreSQL database connection
	postgresClient, err := database.NewPostgresClient(configs.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
	}

	// Initialize Redis client
	redisClient, err := database.NewRedisClient(configs.Redis)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", logger.Err(err))
	}

	// Initialize NATS client
	natsClient, err := natspkg.NewClient(configs.NATS.URL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to NATS", logger.Err(err))
	}

	// The reconciler reads and fixes the same tables the payment engine
	// writes, through the same conditional transitions
	paymentRepo := paymentRepository.NewPaymentRepository(postgresClient.GetDB())
	providerGW, err := paymentGateway.NewPaymentGateway(configs, natsClient, redisClient, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create payment gateway", logger.Err(err))
	}
	alertGW, err := gateway.NewNATSGateway(natsClient)
	if err != nil {
		zapLogger.Fatal("Failed to create alert gateway", logger.Err(err))
	}

	// Resolution counters are keyed by (booking, issue) and must span
	// scheduled runs, so they expire with the lookback window
	resolveAttempts := attemptstore.NewRedisStore(redisClient, constants.KeyResolveAttempt, configs.Reconciliation.LookbackWindow)

	// Initialize usecase
	reconcilerUC := usecase.NewReconcilerService(configs, paymentRepo, providerGW, alertGW, resolveAttempts)

	// Initialize handlers
	reconcileHandler := httpHandler.NewReconcileHandler(reconcilerUC)
	h := handler.NewHandler(reconcileHandler, configs)

	// Consume settlement events so resolved bookings stop being retried
	nh := natsHandler.NewNatsHandler(natsClient, resolveAttempts)
	if err := nh.Start(); err != nil {
		zapLogger.Fatal("Failed to initialize NATS consumers", logger.Err(err))
	}

	// Run reconciliation on the configured schedule
	schedCtx, cancelSched := context.WithCancel(context.Background())
	reconcilerUC.StartScheduler(schedCtx)

	// Initialize Echo server
	e := echo.New()

	// Add middlewares (panic recovery should be first)
	e.Use(middleware.PanicRecoveryWithZapMiddleware(zapLogger))
	e.Use(middleware.RequestContextMiddleware(appName))
	e.Use(logger.ZapEchoMiddleware(zapLogger))

	// Initialize enhanced health service
	healthService := health.NewHealthService(zapLogger)
	healthService.AddChecker("postgres", health.NewPostgresHealthChecker(postgresClient))
	healthService.AddChecker("redis", health.NewRedisHealthChecker(redisClient))
	healthService.AddChecker("nats", health.NewNATSHealthChecker(natsClient))

	// Register health and build-info endpoints
	health.RegisterEnhancedHealthEndpoints(e, appName, configs.App.Version, healthService)
	health.RegisterPingEndpoint(e, appName)

	// Register service routes
	h.RegisterRoutes(e)

	// Register orderly teardown of everything behind the server
	shutdownManager := server.NewShutdownManager(zapLogger)
	shutdownManager.Register("scheduler", func(ctx context.Context) error {
		cancelSched()
		nh.Stop()
		return nil
	})
	shutdownManager.Register("nats", func(ctx context.Context) error {
		natsClient.Close()
		return nil
	})
	shutdownManager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})
	shutdownManager.Register("postgres", func(ctx context.Context) error {
		return postgresClient.Close()
	})

	// Start server; blocks until a shutdown signal arrives
	srv := server.NewGracefulServer(e, zapLogger, configs.Server.Port)
	if err := srv.Start(); err != nil {
		zapLogger.Error("Server shutdown with error", logger.Err(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := shutdownManager.Shutdown(ctx); err != nil {
		zapLogger.Error("Error during shutdown", logger.Err(err))
	}

	if nrApp != nil {
		nrApp.Shutdown(10 * time.Second)
	}

	zapLogger.Info("Server exiting gracefully")
	_ = zapLogger.Sync()
}
