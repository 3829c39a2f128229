package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Provider ProviderConfig
	Checkout CheckoutConfig
	Secrets  SecretsConfig
	Events   EventsConfig
	Catalog  CatalogConfig
	Logger   LoggerConfig
}

// ServerConfig holds HTTP and gRPC listener configuration
type ServerConfig struct {
	HTTPPort        int
	GRPCPort        int
	MetricsPort     int
	Host            string
	RateLimitRPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// ProviderConfig holds BNPL provider API configuration
type ProviderConfig struct {
	BaseURL         string // e.g. https://api-sandbox.tamara.co
	APITokenSecret  string // Secret path of the merchant API token
	APIToken        string // Inline token, takes precedence over APITokenSecret (local development)
	Timeout         int    // Request timeout in seconds (default: 30)
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// CheckoutConfig holds the connector options
type CheckoutConfig struct {
	SuccessStatus      string
	TriggerActionsOn   bool
	PaymentMethodCodes []string
	LockBackend        string // memory or postgres
}

// SecretsConfig selects the secret manager backend
type SecretsConfig struct {
	Backend      string // aws, vault or local
	AWSRegion    string
	AWSEndpoint  string
	VaultAddress string
	VaultToken   string
	LocalPath    string
}

// EventsConfig holds lifecycle-event intake and notification settings
type EventsConfig struct {
	SQSQueueURL       string
	InvoiceTopicARN   string
	AWSRegion         string
	ConsumerWaitSecs  int32
	ConsumerBatchSize int32
}

// CatalogConfig holds product media settings
type CatalogConfig struct {
	MediaBaseURL     string
	PlaceholderImage string
	ImageCacheTTL    time.Duration
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			HTTPPort:        getEnvAsInt("HTTP_PORT", 8080),
			GRPCPort:        getEnvAsInt("GRPC_PORT", 50051),
			MetricsPort:     getEnvAsInt("METRICS_PORT", 9090),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 10),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 20),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "bnpl_service"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Provider: ProviderConfig{
			BaseURL:         getEnv("PROVIDER_BASE_URL", "https://api-sandbox.tamara.co"),
			APITokenSecret:  getEnv("PROVIDER_API_TOKEN_SECRET", "bnpl-service/provider/api-token"),
			APIToken:        getEnv("PROVIDER_API_TOKEN", ""),
			Timeout:         getEnvAsInt("PROVIDER_TIMEOUT", 30),
			BreakerFailures: uint32(getEnvAsInt("PROVIDER_BREAKER_FAILURES", 5)),
			BreakerTimeout:  getEnvAsDuration("PROVIDER_BREAKER_TIMEOUT", 30*time.Second),
		},
		Checkout: CheckoutConfig{
			SuccessStatus:      getEnv("CHECKOUT_SUCCESS_STATUS", "processing"),
			TriggerActionsOn:   getEnvAsBool("TRIGGER_ACTIONS", true),
			PaymentMethodCodes: getEnvAsList("PAYMENT_METHOD_CODES", []string{"tamara_pay_later", "tamara_pay_by_instalments"}),
			LockBackend:        getEnv("CAPTURE_LOCK_BACKEND", "postgres"),
		},
		Secrets: SecretsConfig{
			Backend:      getEnv("SECRET_BACKEND", "local"),
			AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
			AWSEndpoint:  getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress: getEnv("VAULT_ADDR", ""),
			VaultToken:   getEnv("VAULT_TOKEN", ""),
			LocalPath:    getEnv("LOCAL_SECRETS_PATH", "./secrets"),
		},
		Events: EventsConfig{
			SQSQueueURL:       getEnv("EVENTS_QUEUE_URL", ""),
			InvoiceTopicARN:   getEnv("INVOICE_NOTIFICATION_TOPIC_ARN", ""),
			AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
			ConsumerWaitSecs:  int32(getEnvAsInt("EVENTS_WAIT_SECONDS", 20)),
			ConsumerBatchSize: int32(getEnvAsInt("EVENTS_BATCH_SIZE", 10)),
		},
		Catalog: CatalogConfig{
			MediaBaseURL:     getEnv("MEDIA_BASE_URL", ""),
			PlaceholderImage: getEnv("PLACEHOLDER_IMAGE_URL", ""),
			ImageCacheTTL:    getEnvAsDuration("IMAGE_CACHE_TTL", 10*time.Minute),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("PROVIDER_BASE_URL is required")
	}
	if c.Events.InvoiceTopicARN == "" {
		return fmt.Errorf("INVOICE_NOTIFICATION_TOPIC_ARN is required")
	}
	if c.Checkout.SuccessStatus == "" {
		return fmt.Errorf("CHECKOUT_SUCCESS_STATUS must not be empty")
	}
	if len(c.Checkout.PaymentMethodCodes) == 0 {
		return fmt.Errorf("PAYMENT_METHOD_CODES must list at least one method")
	}
	switch c.Checkout.LockBackend {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unsupported CAPTURE_LOCK_BACKEND: %s", c.Checkout.LockBackend)
	}
	switch c.Secrets.Backend {
	case "aws", "vault", "local":
	default:
		return fmt.Errorf("unsupported SECRET_BACKEND: %s", c.Secrets.Backend)
	}
	return nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// CheckoutSuccessStatus returns the state and status applied on checkout return
func (c *CheckoutConfig) CheckoutSuccessStatus() string {
	return c.SuccessStatus
}

// TriggerActions reports whether credit memos are propagated to the provider
func (c *CheckoutConfig) TriggerActions() bool {
	return c.TriggerActionsOn
}

// IsProviderMethod reports whether the payment method belongs to the provider
func (c *CheckoutConfig) IsProviderMethod(method string) bool {
	for _, code := range c.PaymentMethodCodes {
		if code == method {
			return true
		}
	}
	return false
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
