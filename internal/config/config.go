package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the worker configuration.
type Config struct {
	AppEnv  string
	Debug   bool
	Version string

	TelegramBotToken string
	BaleBotToken     string
	PlatformTimeout  time.Duration
	SendRate         int

	MongoDBURI      string
	MongoDBDatabase string

	SentryDSN string

	LogPath  string
	LogLevel string

	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPassword  string
	EmailFrom     string
	EmailFromName string

	ReportRecipients []string
	ReportSendTime   string // HH:MM, local time

	PollInterval    time.Duration
	DefaultLanguage string
}

// LoadConfig loads configuration from environment variables.
// It attempts to load a .env file if present but prioritizes
// actual environment variables set in the system (e.g., by Docker).
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	debug, _ := strconv.ParseBool(getEnv("DEBUG", "false"))

	timeoutSec, err := strconv.Atoi(getEnv("PLATFORM_TIMEOUT_SECONDS", "5"))
	if err != nil || timeoutSec <= 0 {
		return nil, fmt.Errorf("invalid PLATFORM_TIMEOUT_SECONDS: %q", getEnv("PLATFORM_TIMEOUT_SECONDS", "5"))
	}

	pollSec, err := strconv.Atoi(getEnv("POLL_INTERVAL_SECONDS", "30"))
	if err != nil || pollSec <= 0 {
		return nil, fmt.Errorf("invalid POLL_INTERVAL_SECONDS: %q", getEnv("POLL_INTERVAL_SECONDS", "30"))
	}

	sendRate, err := strconv.Atoi(getEnv("SEND_RATE_PER_SECOND", "20"))
	if err != nil || sendRate <= 0 {
		return nil, fmt.Errorf("invalid SEND_RATE_PER_SECOND: %q", getEnv("SEND_RATE_PER_SECOND", "20"))
	}

	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", "development"),
		Debug:   debug,
		Version: getEnv("VERSION", "dev"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		BaleBotToken:     getEnv("BALE_BOT_TOKEN", ""),
		PlatformTimeout:  time.Duration(timeoutSec) * time.Second,
		SendRate:         sendRate,

		MongoDBURI:      getEnv("MONGODB_URI", ""),
		MongoDBDatabase: getEnv("MONGODB_DATABASE", ""),

		SentryDSN: getEnv("SENTRY_DSN", ""),

		LogPath:  getEnv("LOG_PATH", "logs/all.log"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		EmailFrom:     getEnv("EMAIL_FROM", ""),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "Postline Reports"),

		ReportRecipients: splitList(getEnv("REPORT_RECIPIENTS", "")),
		ReportSendTime:   getEnv("REPORT_SEND_TIME", "08:00"),

		PollInterval:    time.Duration(pollSec) * time.Second,
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "fa"),
	}

	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.MongoDBDatabase == "" {
		return nil, fmt.Errorf("MONGODB_DATABASE is required")
	}
	if _, err := time.Parse("15:04", cfg.ReportSendTime); err != nil {
		return nil, fmt.Errorf("invalid REPORT_SEND_TIME %q: %w", cfg.ReportSendTime, err)
	}
	if cfg.SentryDSN == "" {
		log.Println("Warning: SENTRY_DSN is not set. Error tracking disabled.")
	}
	if len(cfg.ReportRecipients) == 0 {
		log.Println("Warning: REPORT_RECIPIENTS is not set. Daily report emails disabled.")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// splitList splits a comma-separated env value into trimmed entries.
func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
