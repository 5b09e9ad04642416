package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	LogLevel   string
	MaxRetries int
	RetryDelay time.Duration
	Poll       PollConfig
	HTTP       HTTPConfig
	Providers  ProvidersConfig
	Price      PriceConfig
	Telegram   TelegramConfig
	Kafka      KafkaConfig
	Store      StoreConfig
	HealthAddr string
}

// PollConfig drives the scheduler loop
type PollConfig struct {
	Interval     time.Duration
	ErrorBackoff time.Duration
	Concurrency  int
}

// HTTPConfig holds HTTP client configuration
type HTTPConfig struct {
	Timeout time.Duration
}

// ProvidersConfig holds ledger-data provider configuration
type ProvidersConfig struct {
	BlockCypherEndpoint string
	InsightEndpoint     string
	ApiKey              string
	RateLimit           float64
	PageSize            int
}

// PriceConfig holds price oracle configuration
type PriceConfig struct {
	Endpoint string
}

// TelegramConfig holds notifier configuration
type TelegramConfig struct {
	BotToken string
}

// KafkaConfig holds Kafka configuration. An empty broker address disables
// the Kafka emitter.
type KafkaConfig struct {
	BrokerAddress string
	Topic         string
}

// StoreConfig selects and configures the durable backend
type StoreConfig struct {
	Backend  string // "postgres" or "bolt"
	BoltPath string
	Database DatabaseConfig
}

// DatabaseConfig holds Postgres configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Not fatal, as env vars might be set externally
	}

	config := &Config{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		MaxRetries: getEnvAsInt("MAX_RETRIES", 2),
		RetryDelay: time.Duration(getEnvAsInt("RETRY_DELAY", 2)) * time.Second,
		Poll: PollConfig{
			Interval:     time.Duration(getEnvAsInt("POLL_INTERVAL", 30)) * time.Second,
			ErrorBackoff: time.Duration(getEnvAsInt("ERROR_BACKOFF", 120)) * time.Second,
			Concurrency:  getEnvAsInt("CONCURRENCY", 4),
		},
		HTTP: HTTPConfig{
			Timeout: time.Duration(getEnvAsInt("HTTP_TIMEOUT", 20)) * time.Second,
		},
		Providers: ProvidersConfig{
			BlockCypherEndpoint: getEnv("BLOCKCYPHER_ENDPOINT", "https://api.blockcypher.com/v1/dash/main"),
			InsightEndpoint:     getEnv("INSIGHT_ENDPOINT", "https://insight.dash.org/insight-api"),
			ApiKey:              getEnv("PROVIDER_API_KEY", ""),
			RateLimit:           getEnvAsFloat("PROVIDER_RATE_LIMIT", 2),
			PageSize:            getEnvAsInt("PROVIDER_PAGE_SIZE", 10),
		},
		Price: PriceConfig{
			Endpoint: getEnv("COINGECKO_ENDPOINT", "https://api.coingecko.com/api/v3"),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		},
		Kafka: KafkaConfig{
			BrokerAddress: getEnv("KAFKA_BROKER_ADDRESS", ""),
			Topic:         getEnv("KAFKA_TOPIC", "dash-alerts"),
		},
		Store: StoreConfig{
			Backend:  getEnv("STORE_BACKEND", "bolt"),
			BoltPath: getEnv("BOLT_PATH", "dash-monitor.db"),
			Database: DatabaseConfig{
				Host:     getEnv("DB_HOST", "localhost"),
				Port:     getEnvAsInt("DB_PORT", 5432),
				User:     getEnv("DB_USER", "postgres"),
				Password: getEnv("DB_PASSWORD", ""),
				DBName:   getEnv("DB_NAME", "dash_monitor"),
				SSLMode:  getEnv("DB_SSLMODE", "disable"),
			},
		},
		HealthAddr: getEnv("HEALTH_ADDR", ":8080"),
	}

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as float64 or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
