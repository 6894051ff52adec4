package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/jkarimi/pesaflow/internal/pkg/models"
)

const (
	darajaSandboxURL    = "https://sandbox.safaricom.co.ke"
	darajaProductionURL = "https://api.safaricom.co.ke"
)

func InitConfig(configPath string) *models.Config {
	local := GetEnv("APP_ENV", "local")
	if local == "local" {
		// Load config from file
		err := godotenv.Load(configPath)
		if err != nil {
			log.Println("error loading config from file", err)
		}
	}
	// Create config from environment variables
	return loadConfigFromEnv()
}

func loadConfigFromEnv() *models.Config {
	configs := &models.Config{}

	// App config
	configs.App.Name = GetEnv("APP_NAME", "pesaflow")
	configs.App.Environment = GetEnv("APP_ENV", "local")
	configs.App.Debug = GetEnvAsBool("APP_DEBUG", true)
	configs.App.Version = GetEnv("APP_VERSION", "")

	// Server config
	configs.Server.Host = GetEnv("SERVER_HOST", "")
	configs.Server.Port = GetEnvAsInt("SERVER_PORT", 9990)
	configs.Server.ReadTimeout = GetEnvAsInt("SERVER_READ_TIMEOUT", 0)
	configs.Server.WriteTimeout = GetEnvAsInt("SERVER_WRITE_TIMEOUT", 0)
	configs.Server.ShutdownTimeout = GetEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 0)

	// Database config
	configs.Database.Host = GetEnv("DB_HOST", "")
	configs.Database.Port = GetEnvAsInt("DB_PORT", 5432)
	configs.Database.Username = GetEnv("DB_USERNAME", "")
	configs.Database.Password = GetEnv("DB_PASSWORD", "")
	configs.Database.Database = GetEnv("DB_DATABASE", "")
	configs.Database.SSLMode = GetEnv("DB_SSL_MODE", "disable")
	configs.Database.MaxConns = GetEnvAsInt("DB_MAX_CONNS", 0)
	configs.Database.IdleConns = GetEnvAsInt("DB_IDLE_CONNS", 0)

	// Redis config
	configs.Redis.Host = GetEnv("REDIS_HOST", "")
	configs.Redis.Port = GetEnvAsInt("REDIS_PORT", 6379)
	configs.Redis.Password = GetEnv("REDIS_PASSWORD", "")
	configs.Redis.DB = GetEnvAsInt("REDIS_DB", 0)
	configs.Redis.PoolSize = GetEnvAsInt("REDIS_POOL_SIZE", 0)

	// NATS config
	configs.NATS.URL = GetEnv("NATS_URL", "")

	// JWT config
	configs.JWT.Secret = GetEnv("JWT_SECRET", "")
	configs.JWT.Expiration = GetEnvAsInt("JWT_EXPIRATION", 60)
	configs.JWT.Issuer = GetEnv("JWT_ISSUER", "pesaflow")

	// Daraja provider config
	configs.Daraja.Environment = GetEnv("DARAJA_ENV", "sandbox")
	if configs.Daraja.Environment == "production" {
		configs.Daraja.BaseURL = GetEnv("DARAJA_BASE_URL", darajaProductionURL)
	} else {
		configs.Daraja.BaseURL = GetEnv("DARAJA_BASE_URL", darajaSandboxURL)
	}
	configs.Daraja.ConsumerKey = GetEnv("DARAJA_CONSUMER_KEY", "")
	configs.Daraja.ConsumerSecret = GetEnv("DARAJA_CONSUMER_SECRET", "")
	configs.Daraja.ShortCode = GetEnv("DARAJA_SHORT_CODE", "")
	configs.Daraja.Passkey = GetEnv("DARAJA_PASSKEY", "")
	configs.Daraja.CallbackURL = GetEnv("DARAJA_CALLBACK_URL", "")
	configs.Daraja.CallbackSecret = GetEnv("DARAJA_CALLBACK_SECRET", "")
	configs.Daraja.HTTPTimeout = GetEnvAsDuration("DARAJA_HTTP_TIMEOUT", 10*time.Second)
	// Provider tokens live 60 minutes; cache for 50 as a safety margin
	configs.Daraja.TokenTTL = GetEnvAsDuration("DARAJA_TOKEN_TTL", 50*time.Minute)

	// Payments engine config
	configs.Payments.UnclearStatusAfter = GetEnvAsDuration("PAYMENTS_UNCLEAR_STATUS_AFTER", 30*time.Second)
	configs.Payments.CallbackMaxRetries = GetEnvAsInt("PAYMENTS_CALLBACK_MAX_RETRIES", 3)
	configs.Payments.CallbackBaseDelay = GetEnvAsDuration("PAYMENTS_CALLBACK_BASE_DELAY", 5*time.Second)
	configs.Payments.CallbackMaxDelay = GetEnvAsDuration("PAYMENTS_CALLBACK_MAX_DELAY", 20*time.Second)
	configs.Payments.OutboundMaxRetries = GetEnvAsInt("PAYMENTS_OUTBOUND_MAX_RETRIES", 3)
	configs.Payments.OutboundBaseDelay = GetEnvAsDuration("PAYMENTS_OUTBOUND_BASE_DELAY", 500*time.Millisecond)
	configs.Payments.OutboundMaxDelay = GetEnvAsDuration("PAYMENTS_OUTBOUND_MAX_DELAY", 8*time.Second)
	configs.Payments.PendingQueueSize = GetEnvAsInt("PAYMENTS_PENDING_QUEUE_SIZE", 100)
	configs.Payments.PendingQueueTTL = GetEnvAsDuration("PAYMENTS_PENDING_QUEUE_TTL", 5*time.Minute)
	configs.Payments.PendingQueueInterval = GetEnvAsDuration("PAYMENTS_PENDING_QUEUE_INTERVAL", 30*time.Second)

	// Reconciliation config
	configs.Reconciliation.AmountTolerance = GetEnvAsInt64("RECON_AMOUNT_TOLERANCE", 1)
	configs.Reconciliation.RunInterval = GetEnvAsDuration("RECON_RUN_INTERVAL", 24*time.Hour)
	configs.Reconciliation.LookbackWindow = GetEnvAsDuration("RECON_LOOKBACK_WINDOW", 48*time.Hour)
	configs.Reconciliation.MaxResolveTries = GetEnvAsInt("RECON_MAX_RESOLVE_TRIES", 3)

	// NewRelic config
	configs.NewRelic.LicenseKey = GetEnv("NEW_RELIC_LICENSE_KEY", "")
	configs.NewRelic.AppName = GetEnv("NEW_RELIC_APP_NAME", "")
	configs.NewRelic.Enabled = GetEnvAsBool("NEW_RELIC_ENABLED", false)
	configs.NewRelic.LogsEnabled = GetEnvAsBool("NEW_RELIC_LOGS_ENABLED", false)
	configs.NewRelic.ForwardLogs = GetEnvAsBool("NEW_RELIC_FORWARD_LOGS", false)

	// Logger config
	configs.Logger.Level = GetEnv("LOG_LEVEL", "info")
	configs.Logger.FilePath = GetEnv("LOG_FILE_PATH", "logs/pesaflow.log")

	return configs
}

// Helper functions to get environment variables with different types
func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func GetEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Warning: Invalid int64 value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}
