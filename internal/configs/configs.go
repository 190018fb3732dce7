package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	AppURL                 string
	DatabaseDSN            string
	RateLimit              int
	VerificationRateLimit  int
	ShutdownTimeoutSeconds int
	Timezone               *time.Location
	JWTSecret              string

	VerificationStore       string
	RedisAddr               string
	RedisVerificationPrefix string
	RedisSweepLeaseKey      string

	ReminderSweepIntervalSeconds int
	ReminderBatchSize            int
	NotifyWorkers                int
	NotifyQueueSize              int

	ChannelDriver         string
	ChannelWebhookURL     string
	ChannelTimeoutSeconds int
	OperationsChannelID   string
	NotificationTemplates string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	LogLevel  string
	LogFormat string
}

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	ChannelLog       = "log"
	ChannelWebhook   = "webhook"
	ChannelWebsocket = "websocket"
)

func Load() Config {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	timezone := getEnv("APP_TIMEZONE", "UTC")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		logrus.Fatalf("invalid APP_TIMEZONE %q: %v", timezone, err)
	}

	cfg := Config{
		AppURL:                       fmt.Sprintf("%s:%s", appHost, appPort),
		DatabaseDSN:                  getEnv("DATABASE_DSN", "workforce.db"),
		RateLimit:                    getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		VerificationRateLimit:        getEnvAsInt("VERIFICATION_RATE_LIMIT_PER_MINUTE", 5),
		ShutdownTimeoutSeconds:       getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 20),
		Timezone:                     location,
		JWTSecret:                    os.Getenv("JWT_SECRET"),
		VerificationStore:            getEnv("VERIFICATION_STORE", StoreMemory),
		RedisAddr:                    fmt.Sprintf("%s:%s", redisHost, redisPort),
		RedisVerificationPrefix:      getEnv("REDIS_VERIFICATION_PREFIX", "email_verification:"),
		RedisSweepLeaseKey:           getEnv("REDIS_SWEEP_LEASE_KEY", "reminder_sweep_lease"),
		ReminderSweepIntervalSeconds: getEnvAsInt("REMINDER_SWEEP_INTERVAL_SECONDS", 60),
		ReminderBatchSize:            getEnvAsInt("REMINDER_BATCH_SIZE", 100),
		NotifyWorkers:                getEnvAsInt("NOTIFY_WORKERS", 2),
		NotifyQueueSize:              getEnvAsInt("NOTIFY_QUEUE_SIZE", 100),
		ChannelDriver:                getEnv("CHANNEL_DRIVER", ChannelLog),
		ChannelWebhookURL:            os.Getenv("CHANNEL_WEBHOOK_URL"),
		ChannelTimeoutSeconds:        getEnvAsInt("CHANNEL_TIMEOUT_SECONDS", 10),
		OperationsChannelID:          os.Getenv("OPERATIONS_CHANNEL_ID"),
		NotificationTemplates:        os.Getenv("NOTIFICATION_TEMPLATES"),
		SMTPHost:                     os.Getenv("SMTP_HOST"),
		SMTPPort:                     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:                 os.Getenv("SMTP_USERNAME"),
		SMTPPassword:                 os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:                     getEnv("SMTP_FROM", "tracker@localhost"),
		LogLevel:                     getEnv("LOG_LEVEL", "info"),
		LogFormat:                    getEnv("LOG_FORMAT", "text"),
	}

	validate(cfg)
	return cfg
}

func validate(cfg Config) {
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must not be empty")
	}
	if cfg.DatabaseDSN == "" {
		logrus.Fatal("DATABASE_DSN must not be empty")
	}
	if cfg.RateLimit <= 0 {
		logrus.Fatal("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.VerificationRateLimit <= 0 {
		logrus.Fatal("VERIFICATION_RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.ReminderSweepIntervalSeconds <= 0 {
		logrus.Fatal("REMINDER_SWEEP_INTERVAL_SECONDS must be greater than 0")
	}
	if cfg.ReminderBatchSize <= 0 {
		logrus.Fatal("REMINDER_BATCH_SIZE must be greater than 0")
	}
	if cfg.NotifyWorkers <= 0 {
		logrus.Fatal("NOTIFY_WORKERS must be greater than 0")
	}
	if cfg.NotifyQueueSize <= 0 {
		logrus.Fatal("NOTIFY_QUEUE_SIZE must be greater than 0")
	}
	if cfg.ChannelTimeoutSeconds <= 0 {
		logrus.Fatal("CHANNEL_TIMEOUT_SECONDS must be greater than 0")
	}
	switch cfg.VerificationStore {
	case StoreMemory, StoreRedis:
	default:
		logrus.Fatalf("VERIFICATION_STORE must be %q or %q", StoreMemory, StoreRedis)
	}
	switch cfg.ChannelDriver {
	case ChannelLog, ChannelWebsocket:
	case ChannelWebhook:
		if cfg.ChannelWebhookURL == "" {
			logrus.Fatal("CHANNEL_WEBHOOK_URL is required when CHANNEL_DRIVER=webhook")
		}
	default:
		logrus.Fatalf("unknown CHANNEL_DRIVER %q", cfg.ChannelDriver)
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			logrus.Fatalf("invalid integer value for %s", key)
		}
		return i
	}
	return defaultVal
}
