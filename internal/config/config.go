package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	MercadoPago MercadoPagoConfig
	SMTP        SMTPConfig
	Admin       AdminConfig
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

type MercadoPagoConfig struct {
	AccessToken string
	BaseURL     string
	Timeout     time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type AdminConfig struct {
	// APIKeyHash is the bcrypt hash of the back-office API key.
	APIKeyHash string
	// NotificationEmails receive a copy of every order notification.
	NotificationEmails []string
	// NotificationCacheTTL bounds how long the recipient list is cached.
	NotificationCacheTTL time.Duration
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
	viper.SetDefault("MP_BASE_URL", "https://api.mercadopago.com")
	viper.SetDefault("MP_TIMEOUT", "10s")
	viper.SetDefault("SMTP_PORT", "587")
	viper.SetDefault("ADMIN_NOTIFY_CACHE_TTL", "5m")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	mpTimeout, err := time.ParseDuration(getEnvOrViper("MP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MP_TIMEOUT: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnvOrViper("ADMIN_NOTIFY_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_NOTIFY_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "storeapi"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken: getEnvOrViper("MP_ACCESS_TOKEN", ""),
			BaseURL:     getEnvOrViper("MP_BASE_URL", "https://api.mercadopago.com"),
			Timeout:     mpTimeout,
		},
		SMTP: SMTPConfig{
			Host:     getEnvOrViper("SMTP_HOST", ""),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     getEnvOrViper("SMTP_USER", ""),
			Password: getEnvOrViper("SMTP_PASSWORD", ""),
			From:     getEnvOrViper("SMTP_FROM", "no-reply@tiendaluna.com"),
		},
		Admin: AdminConfig{
			APIKeyHash:           getEnvOrViper("ADMIN_API_KEY_HASH", ""),
			NotificationEmails:   splitList(getEnvOrViper("ADMIN_NOTIFY_EMAILS", "")),
			NotificationCacheTTL: cacheTTL,
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.MercadoPago.AccessToken == "" {
		return nil, fmt.Errorf("MP_ACCESS_TOKEN is required")
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

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
