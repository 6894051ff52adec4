package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/jkarimi/pesaflow/internal/pkg/config"
	"github.com/jkarimi/pesaflow/internal/utils"
)

const (
	APIKeyHeader = "X-API-Key"
)

// ServiceAPIKeys stores the mapping of service names to their API keys
var ServiceAPIKeys = map[string]string{
	"payments-service":   config.GetEnv("PAYMENTS_SERVICE_API_KEY", ""),
	"reconciler-service": config.GetEnv("RECONCILER_SERVICE_API_KEY", ""),
	"ops-console":        config.GetEnv("OPS_CONSOLE_API_KEY", ""),
}

// ValidateAPIKey middleware validates the API key for service-to-service communication
func ValidateAPIKey(allowedServices ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			apiKey := c.Request().Header.Get(APIKeyHeader)
			if apiKey == "" {
				return utils.UnauthorizedResponse(c, "API key is required")
			}

			// Check if the API key belongs to any of the allowed services
			validKey := false
			for _, service := range allowedServices {
				if ServiceAPIKeys[service] != "" && strings.EqualFold(apiKey, ServiceAPIKeys[service]) {
					validKey = true
					break
				}
			}

			if !validKey {
				return utils.UnauthorizedResponse(c, "Invalid API key")
			}

			return next(c)
		}
	}
}
