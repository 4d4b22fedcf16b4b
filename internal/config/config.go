package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Invoice  InvoiceConfig
	Email    EmailConfig
	Tokens   TokenConfig
	Outbox   OutboxConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	AutoMigrate  bool
}

type RedisConfig struct {
	Addr           string
	IdempotencyTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	PaymentEvents string
}

// InvoiceConfig covers both sides: the payment service uses BaseURL to reach
// the invoice service, the invoice service listens on Port.
type InvoiceConfig struct {
	BaseURL string
	Port    string
	Timeout time.Duration
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromAddress  string
}

type TokenConfig struct {
	TTL           time.Duration
	AccessBaseURL string
	QRSecret      string
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "assessment_user"),
			Password:     getEnv("DB_PASSWORD", "assessment_pass"),
			Database:     getEnv("DB_NAME", "assessment_gateway"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			AutoMigrate:  getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", "localhost:6379"),
			IdempotencyTTL: time.Duration(getEnvInt("IDEMPOTENCY_TTL_HOURS", 24)) * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Topics: TopicConfig{
				PaymentEvents: getEnv("KAFKA_TOPIC_PAYMENT_EVENTS", "payment-events"),
			},
		},
		Invoice: InvoiceConfig{
			BaseURL: getEnv("INVOICE_SERVICE_URL", "http://localhost:8081"),
			Port:    getEnv("INVOICE_PORT", ":8081"),
			Timeout: time.Duration(getEnvInt("INVOICE_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromAddress:  getEnv("SMTP_FROM", "receipts@assessment-gateway.local"),
		},
		Tokens: TokenConfig{
			TTL:           time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
			AccessBaseURL: getEnv("ACCESS_BASE_URL", "http://localhost:3000/assessment"),
			QRSecret:      getEnv("QR_SECRET_KEY", "dev-secret"),
		},
		Outbox: OutboxConfig{
			PollInterval: time.Duration(getEnvInt("OUTBOX_POLL_SECONDS", 30)) * time.Second,
			BatchSize:    getEnvInt("OUTBOX_BATCH_SIZE", 20),
			MaxAttempts:  getEnvInt("OUTBOX_MAX_ATTEMPTS", 5),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
