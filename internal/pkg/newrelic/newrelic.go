package newrelic

import (
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/jkarimi/pesaflow/internal/pkg/logger"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
)

// InitNewRelic starts the New Relic agent when configured. A nil return
// means the services run without instrumentation, which is how local
// development works.
func InitNewRelic(configs *models.Config) *newrelic.Application {
	if !configs.NewRelic.Enabled || configs.NewRelic.LicenseKey == "" {
		logger.Info("New Relic is disabled or license key not provided")
		return nil
	}

	logger.Info("Initializing New Relic",
		logger.String("app_name", configs.NewRelic.AppName),
		logger.Bool("logs_enabled", configs.NewRelic.LogsEnabled))

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(configs.NewRelic.AppName),
		newrelic.ConfigLicense(configs.NewRelic.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(configs.NewRelic.ForwardLogs),
		newrelic.ConfigAppLogDecoratingEnabled(true),
	)
	if err != nil {
		logger.Warn("Failed to initialize New Relic, continuing without it",
			logger.Err(err))
		return nil
	}

	return nrApp
}
