package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Gateway     GatewayConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// GatewayConfig configures the card processing gateway. Timeout bounds
// the synchronous charge round-trip; expiry counts as a failed payment.
type GatewayConfig struct {
	BaseURL    string
	MerchantID string
	APIKey     string
	Timeout    time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("GATEWAY_TIMEOUT_SECONDS", "30")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "groceryapi"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Gateway: GatewayConfig{
			BaseURL:    getEnvOrViper("GATEWAY_BASE_URL", ""),
			MerchantID: getEnvOrViper("GATEWAY_MERCHANT_ID", ""),
			APIKey:     getEnvOrViper("GATEWAY_API_KEY", ""),
			Timeout:    time.Duration(viper.GetInt("GATEWAY_TIMEOUT_SECONDS")) * time.Second,
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.Gateway.BaseURL == "" {
		return nil, fmt.Errorf("GATEWAY_BASE_URL is required")
	}
	if cfg.Gateway.APIKey == "" {
		return nil, fmt.Errorf("GATEWAY_API_KEY is required")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
