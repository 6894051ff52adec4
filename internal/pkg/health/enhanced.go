package health

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jkarimi/pesaflow/internal/pkg/database"
	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/nats"
)

// HealthChecker reports whether one dependency is reachable.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// CheckerFunc adapts a function to the HealthChecker interface.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

// NewPostgresHealthChecker pings the transactions database.
func NewPostgresHealthChecker(client *database.PostgresClient) HealthChecker {
	return CheckerFunc(func(ctx context.Context) error {
		if client == nil {
			return nil
		}
		return client.GetDB().PingContext(ctx)
	})
}

// NewRedisHealthChecker pings the retry-counter store.
func NewRedisHealthChecker(client *database.RedisClient) HealthChecker {
	return CheckerFunc(func(ctx context.Context) error {
		if client == nil {
			return nil
		}
		return client.GetClient().Ping(ctx).Err()
	})
}

// NewNATSHealthChecker verifies the event bus connection is live.
func NewNATSHealthChecker(client *nats.Client) HealthChecker {
	return CheckerFunc(func(ctx context.Context) error {
		if client == nil {
			return nil
		}
		if conn := client.GetConn(); conn == nil || !conn.IsConnected() {
			return errors.New("NATS not connected")
		}
		return nil
	})
}

// HealthService fans a health probe out to every registered dependency.
type HealthService struct {
	checkers map[string]HealthChecker
	logger   *logger.ZapLogger
}

func NewHealthService(l *logger.ZapLogger) *HealthService {
	return &HealthService{
		checkers: make(map[string]HealthChecker),
		logger:   l,
	}
}

// AddChecker registers a dependency under the given name. Not safe to call
// once the service is serving probes.
func (h *HealthService) AddChecker(name string, checker HealthChecker) {
	h.checkers[name] = checker
}

type HealthResponse struct {
	Status       string                    `json:"status"`
	Timestamp    time.Time                 `json:"timestamp"`
	Service      string                    `json:"service"`
	Version      string                    `json:"version,omitempty"`
	Dependencies map[string]DependencyInfo `json:"dependencies"`
}

type DependencyInfo struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// CheckAllHealth probes every dependency concurrently. One slow dependency
// should not push the probe past the kubelet's timeout on its own.
func (h *HealthService) CheckAllHealth(ctx context.Context) HealthResponse {
	response := HealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now(),
		Dependencies: make(map[string]DependencyInfo, len(h.checkers)),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, checker := range h.checkers {
		wg.Add(1)
		go func(name string, checker HealthChecker) {
			defer wg.Done()
			err := checker.CheckHealth(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				h.logger.Error("Health check failed",
					logger.String("dependency", name),
					logger.Err(err))
				response.Dependencies[name] = DependencyInfo{Status: "unhealthy", Error: err.Error()}
				response.Status = "unhealthy"
				return
			}
			response.Dependencies[name] = DependencyInfo{Status: "healthy"}
		}(name, checker)
	}
	wg.Wait()

	return response
}

// RegisterEnhancedHealthEndpoints mounts the health probe routes:
// a bare /health for load balancers, /health/detailed for operators,
// and /health/ready plus /health/live for Kubernetes.
func RegisterEnhancedHealthEndpoints(e *echo.Echo, serviceName, version string, healthService *HealthService) {
	healthGroup := e.Group("/health")

	healthGroup.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   serviceName,
			"timestamp": time.Now(),
		})
	})

	healthGroup.GET("/detailed", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		response := healthService.CheckAllHealth(ctx)
		response.Service = serviceName
		response.Version = version

		statusCode := http.StatusOK
		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
		return c.JSON(statusCode, response)
	})

	healthGroup.GET("/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		response := healthService.CheckAllHealth(ctx)
		response.Service = serviceName
		if response.Status == "unhealthy" {
			return c.JSON(http.StatusServiceUnavailable, response)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ready",
			"service": serviceName,
		})
	})

	healthGroup.GET("/live", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "alive",
			"service": serviceName,
		})
	})
}
