package models

import "time"

// Config represents application configuration
type Config struct {
	App            AppConfig
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	NATS           NATSConfig
	JWT            JWTConfig
	Daraja         DarajaConfig
	Payments       PaymentsConfig
	Reconciliation ReconciliationConfig
	NewRelic       NewRelicConfig
	Logger         LoggerConfig
}

// AppConfig contains application-specific configuration
type AppConfig struct {
	Name        string
	Environment string
	Debug       bool
	Version     string
}

// IsProduction reports whether the app runs against the production provider
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Database  string
	SSLMode   string
	MaxConns  int
	IdleConns int
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// NATSConfig contains NATS connection configuration
type NATSConfig struct {
	URL string
}

// JWTConfig contains JWT authentication configuration
type JWTConfig struct {
	Secret     string
	Expiration int // in minutes
	Issuer     string
}

// DarajaConfig contains the payment provider API configuration.
// Environment selects the sandbox or production base URL.
type DarajaConfig struct {
	Environment    string
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	CallbackSecret string
	HTTPTimeout    time.Duration
	TokenTTL       time.Duration
}

// PaymentsConfig tunes the payment engine's retry and polling behavior
type PaymentsConfig struct {
	UnclearStatusAfter   time.Duration // Processing older than this may be queried directly
	CallbackMaxRetries   int
	CallbackBaseDelay    time.Duration
	CallbackMaxDelay     time.Duration
	OutboundMaxRetries   int
	OutboundBaseDelay    time.Duration
	OutboundMaxDelay     time.Duration
	PendingQueueSize     int
	PendingQueueTTL      time.Duration
	PendingQueueInterval time.Duration
}

// ReconciliationConfig tunes the reconciliation engine
type ReconciliationConfig struct {
	AmountTolerance int64         // absolute difference below this still matches
	RunInterval     time.Duration // fixed schedule between automatic runs
	LookbackWindow  time.Duration // how far back a scheduled run scans
	MaxResolveTries int           // per (booking, issue) resolver bound
}

// NewRelicConfig contains New Relic monitoring configuration
type NewRelicConfig struct {
	LicenseKey  string
	AppName     string
	Enabled     bool
	LogsEnabled bool
	ForwardLogs bool
}

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level    string
	FilePath string
}
