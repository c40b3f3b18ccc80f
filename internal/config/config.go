package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	defaultSessionTTL          = 14 * 24 * time.Hour
	defaultRateRefreshInterval = time.Hour
	defaultFreeDeliveryAmount  = "2000"
	defaultRateSourceURL       = "https://www.cbr-xml-daily.ru/latest.js"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string

	RedisAddress  string
	RedisPassword string
	SessionTTL    time.Duration

	// FreeDeliveryThreshold is the cart total in RUB from which delivery may be free.
	FreeDeliveryThreshold decimal.Decimal
	RateSourceURL         string
	RateRefreshInterval   time.Duration

	KafkaBrokers []string
	LoginURL     string
	CORSOrigins  []string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:        os.Getenv("DB_HOST"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBPort:        os.Getenv("DB_PORT"),
		AppPort:       getEnvOrDefault("APP_PORT", "8080"),
		AppEnv:        os.Getenv("APP_ENV"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddress:  getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RateSourceURL: getEnvOrDefault("RATE_SOURCE_URL", defaultRateSourceURL),
		LoginURL:      getEnvOrDefault("LOGIN_URL", "/accounts/login/"),
		KafkaBrokers:  splitList(os.Getenv("KAFKA_BROKERS")),
		CORSOrigins:   splitList(os.Getenv("CORS_ORIGINS")),
	}

	cfg.SessionTTL = parseDuration("SESSION_TTL", defaultSessionTTL)
	cfg.RateRefreshInterval = parseDuration("RATE_REFRESH_INTERVAL", defaultRateRefreshInterval)

	threshold, err := decimal.NewFromString(getEnvOrDefault("FREE_DELIVERY_THRESHOLD", defaultFreeDeliveryAmount))
	if err != nil {
		log.Printf("invalid FREE_DELIVERY_THRESHOLD, using %s", defaultFreeDeliveryAmount)
		threshold = decimal.RequireFromString(defaultFreeDeliveryAmount)
	}
	cfg.FreeDeliveryThreshold = threshold

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("invalid %s=%q, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
