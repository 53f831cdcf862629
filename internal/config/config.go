package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Finnhub  FinnhubConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// FinnhubConfig holds the market data API configuration
type FinnhubConfig struct {
	APIKey  string
	BaseURL string
}

// KafkaConfig holds Kafka configuration. Brokers is empty when event
// publishing is disabled.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RedisConfig holds the optional profile cache configuration. Addr is empty
// when caching is disabled.
type RedisConfig struct {
	Addr string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "sp500insights"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Finnhub: FinnhubConfig{
			APIKey:  os.Getenv("FINNHUB_API_KEY"),
			BaseURL: getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "metrics-events"),
		},
		Redis: RedisConfig{
			Addr: os.Getenv("REDIS_ADDR"),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

// Validate checks that the configuration is usable for a collection run.
// A missing or placeholder API key is a hard startup error.
func (c *Config) Validate() error {
	if c.Finnhub.APIKey == "" || c.Finnhub.APIKey == "demo" {
		return fmt.Errorf("FINNHUB_API_KEY not properly configured")
	}
	if c.Finnhub.BaseURL == "" {
		return fmt.Errorf("FINNHUB_BASE_URL must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
