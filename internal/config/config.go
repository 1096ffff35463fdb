package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the typed view of the environment used to wire the server.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Paystack   PaystackConfig
	Commission CommissionConfig
	Cache      CacheConfig
	Kafka      KafkaConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	LedgerStore string // "postgres" or "memory"
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type PaystackConfig struct {
	BaseURL         string
	SecretKey       string
	WebhookSecret   string
	Currency        string
	TransferTimeout time.Duration
}

type CommissionConfig struct {
	BaseBonusMinor   int64
	PerDayBonusMinor int64
	BonusCapMinor    int64
	Timezone         string
}

type CacheConfig struct {
	TTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load reads the full configuration from the environment.
func Load() *Config {
	secret := GetEnv("PAYSTACK_SECRET_KEY", "")
	return &Config{
		Server: ServerConfig{
			Port:        GetEnv("PORT", "3000"),
			Env:         GetEnv("ENV", "development"),
			LedgerStore: GetEnv("LEDGER_STORE", "postgres"),
		},
		Database: DatabaseConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "ajo"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:  GetEnv("REDIS_ENABLED", "true") == "true",
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: GetEnv("JWT_SECRET", ""),
		},
		Paystack: PaystackConfig{
			BaseURL:   GetEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			SecretKey: secret,
			// Paystack signs webhooks with the API secret key unless told otherwise.
			WebhookSecret:   GetEnv("PAYSTACK_WEBHOOK_SECRET", secret),
			Currency:        GetEnv("PAYSTACK_CURRENCY", "NGN"),
			TransferTimeout: GetDurationEnv("PAYSTACK_TRANSFER_TIMEOUT", 15*time.Second),
		},
		Commission: CommissionConfig{
			BaseBonusMinor:   GetInt64Env("COMMISSION_BASE_BONUS_MINOR", 1000),
			PerDayBonusMinor: GetInt64Env("COMMISSION_PER_DAY_BONUS_MINOR", 500),
			BonusCapMinor:    GetInt64Env("COMMISSION_BONUS_CAP_MINOR", 5000),
			Timezone:         GetEnv("COMMISSION_TIMEZONE", "Africa/Lagos"),
		},
		Cache: CacheConfig{
			TTL: GetDurationEnv("CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(GetEnv("KAFKA_BROKERS", "")),
			Topic:   GetEnv("KAFKA_TOPIC", "ledger-events"),
		},
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetInt64Env returns an int64 environment variable or a default value.
func GetInt64Env(key string, defaultVal int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv parses a time.Duration ("15s", "1h") or returns the default.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		log.Printf("invalid duration for %s=%q, using default %s", key, val, defaultVal)
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
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
