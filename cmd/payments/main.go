package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
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
	"github.com/jkarimi/pesaflow/services/payments/gateway"
	"github.com/jkarimi/pesaflow/services/payments/handler"
	httpHandler "github.com/jkarimi/pesaflow/services/payments/handler/http"
	"github.com/jkarimi/pesaflow/services/payments/repository"
	"github.com/jkarimi/pesaflow/services/payments/usecase"
)

func main() {
	appName := "payments-service"
	configPath := "config/payments.env"
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
	defer postgresClient.Close()

	// Initialize Redis client
	redisClient, err := database.NewRedisClient(configs.Redis)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", logger.Err(err))
	}
	defer redisClient.Close()

	// Initialize NATS client
	natsClient, err := natspkg.NewClient(configs.NATS.URL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to NATS", logger.Err(err))
	}
	defer natsClient.Close()

	// Initialize repository
	paymentRepo := repository.NewPaymentRepository(postgresClient.GetDB())

	// Initialize gateway (Daraja provider + NATS event publisher)
	paymentGW, err := gateway.NewPaymentGateway(configs, natsClient, redisClient, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create payment gateway", logger.Err(err))
	}

	// Callback retry counters live in Redis so they survive restarts;
	// an hour comfortably outlives the longest retry curve
	callbackAttempts := attemptstore.NewRedisStore(redisClient, constants.KeyCallbackRetry, time.Hour)

	// Initialize usecase
	paymentUC := usecase.NewPaymentUC(configs, paymentRepo, paymentGW, callbackAttempts)

	// Initialize handlers
	paymentHandler := httpHandler.NewPaymentHandler(paymentUC)
	callbackHandler := httpHandler.NewCallbackHandler(paymentUC, configs)
	h := handler.NewHandler(paymentHandler, callbackHandler, configs)

	// Drain deferred status checks in the background
	drainCtx, cancelDrain := context.WithCancel(context.Background())
	defer cancelDrain()
	paymentGW.StartPendingDrain(drainCtx)

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

	// Register service routes; the open callback endpoint gets an IP rate limit
	callbackLimiter := middleware.IPRateLimiter(120, time.Minute, redisClient.GetClient())
	h.RegisterRoutes(e, callbackLimiter)

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf(":%d", configs.Server.Port)
		zapLogger.Info("Starting HTTP server",
			logger.String("address", addr),
			logger.String("app", appName))

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	zapLogger.Info("Received shutdown signal", logger.String("signal", sig.String()))

	// Stop accepting deferred work before the server drains
	cancelDrain()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	zapLogger.Info("Shutting down HTTP server...")
	if err := e.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", logger.Err(err))
	}

	zapLogger.Info("Closing PostgreSQL connection...")
	postgresClient.Close()

	zapLogger.Info("Closing Redis connection...")
	if err := redisClient.Close(); err != nil {
		zapLogger.Error("Error closing Redis connection", logger.Err(err))
	}

	zapLogger.Info("Closing NATS connection...")
	natsClient.Close()

	if nrApp != nil {
		zapLogger.Info("Shutting down New Relic...")
		nrApp.Shutdown(10 * time.Second)
	}

	zapLogger.Info("Server exiting gracefully")
	_ = zapLogger.Sync()
}
