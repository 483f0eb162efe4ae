package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	API struct {
		Port     string
		BasePath string
	}
	Auth struct {
		JWTSecret string
		TokenTTL  time.Duration
	}
	SMS struct {
		AccountSID string
		AuthToken  string
		FromNumber string
	}
	Telegram struct {
		BotToken      string
		RatePerSecond int
	}
	Logging struct {
		Dir   string
		Level string
	}
	Scheduler struct {
		AlertTick    time.Duration
		EndOfDayTick time.Duration
		StageDwell   time.Duration
		OverdueGrace time.Duration
		SendTimeout  time.Duration
		MaxWorkers   int
	}
}

// Load reads environment variables, applies defaults, and returns a
// Config. Missing required settings are reported together so a broken
// deployment fails at process start, before any tick runs.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	cfg.DB.DSN = os.Getenv("DB_DSN")

	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Auth.TokenTTL = envDuration("JWT_TTL", 7*24*time.Hour)

	cfg.SMS.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.SMS.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.SMS.FromNumber = os.Getenv("TWILIO_PHONE_NUMBER")

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Telegram.RatePerSecond = envInt("TELEGRAM_RATE_PER_SECOND", 20)

	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	cfg.Scheduler.AlertTick = envDuration("ALERT_TICK_INTERVAL", time.Minute)
	cfg.Scheduler.EndOfDayTick = envDuration("END_OF_DAY_TICK_INTERVAL", 30*time.Minute)
	cfg.Scheduler.StageDwell = envDuration("STAGE_DWELL", 10*time.Minute)
	cfg.Scheduler.OverdueGrace = envDuration("OVERDUE_GRACE", 30*time.Minute)
	cfg.Scheduler.SendTimeout = envDuration("SEND_TIMEOUT", 15*time.Second)
	cfg.Scheduler.MaxWorkers = envInt("MAX_WORKERS", 10)

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if cfg.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if cfg.SMS.AccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if cfg.SMS.AuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if cfg.SMS.FromNumber == "" {
		missing = append(missing, "TWILIO_PHONE_NUMBER")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	// Apply defaults
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}
