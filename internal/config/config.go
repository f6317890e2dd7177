package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN       string `mapstructure:"DB_DSN"`
	Environment string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	TelegramToken  string `mapstructure:"TELEGRAM_TOKEN"`
	OperatorChatID int64  `mapstructure:"OPERATOR_CHAT_ID"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	StripeKey      string `mapstructure:"STRIPE_KEY"`
	MeetingBaseURL string `mapstructure:"MEETING_BASE_URL"`

	ReconcileSchedule string         `mapstructure:"RECONCILE_SCHEDULE"`
	Location          *time.Location `mapstructure:"TIMEZONE"`
	NoticeWindow      time.Duration  `mapstructure:"NOTICE_HOURS"`
	ReminderLead      time.Duration  `mapstructure:"REMINDER_LEAD_MINUTES"`
}

func Load() (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:             os.Getenv("DB_DSN"),
		Environment:       getEnv("ENV", "development"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		StripeKey:         os.Getenv("STRIPE_KEY"),
		MeetingBaseURL:    getEnv("MEETING_BASE_URL", "https://meet.jit.si"),
		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", "0 * * * * *"),
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	var err error
	if cfg.OperatorChatID, err = getInt64("OPERATOR_CHAT_ID", 0); err != nil {
		return nil, err
	}

	redisDB, err := getInt64("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.RedisDB = int(redisDB)

	noticeHours, err := getInt64("NOTICE_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cfg.NoticeWindow = time.Duration(noticeHours) * time.Hour

	leadMinutes, err := getInt64("REMINDER_LEAD_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	cfg.ReminderLead = time.Duration(leadMinutes) * time.Minute

	cfg.Location, err = time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}

	log.Printf("Config loaded (env=%s, timezone=%s)\n", cfg.Environment, cfg.Location)

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}
