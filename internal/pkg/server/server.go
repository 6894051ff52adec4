package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jkarimi/pesaflow/internal/pkg/logger"
)

// GracefulServer runs an Echo server and blocks until an interrupt or
// SIGTERM arrives, then drains in-flight requests before returning.
// Provider callbacks already accepted must finish their database writes,
// so the drain window is deliberately generous.
type GracefulServer struct {
	echo   *echo.Echo
	logger *logger.ZapLogger
	port   int
}

func NewGracefulServer(e *echo.Echo, zapLogger *logger.ZapLogger, port int) *GracefulServer {
	return &GracefulServer{echo: e, logger: zapLogger, port: port}
}

// Start serves until a shutdown signal is received, then drains.
func (s *GracefulServer) Start() error {
	go func() {
		addr := fmt.Sprintf(":%d", s.port)
		s.logger.Info("Starting HTTP server", logger.String("address", addr))

		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	sig := <-quit
	s.logger.Info("Received shutdown signal", logger.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", logger.Err(err))
		return err
	}

	s.logger.Info("Server shutdown completed")
	return nil
}

// ShutdownManager runs registered cleanup functions in order once the HTTP
// server has drained. A failing component never blocks the ones after it.
type ShutdownManager struct {
	logger     *logger.ZapLogger
	components []shutdownComponent
}

type shutdownComponent struct {
	name string
	fn   func(context.Context) error
}

func NewShutdownManager(zapLogger *logger.ZapLogger) *ShutdownManager {
	return &ShutdownManager{logger: zapLogger}
}

// Register queues a named cleanup function. Components are shut down in
// registration order, so register consumers before the connections they use.
func (sm *ShutdownManager) Register(name string, fn func(context.Context) error) {
	sm.components = append(sm.components, shutdownComponent{name: name, fn: fn})
}

func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	sm.logger.Info("Shutting down components", logger.Int("components", len(sm.components)))

	for _, component := range sm.components {
		if err := component.fn(ctx); err != nil {
			sm.logger.Error("Component shutdown failed",
				logger.String("component", component.name),
				logger.Err(err))
		}
	}

	sm.logger.Info("All components shut down")
	return nil
}
