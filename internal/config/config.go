package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the server.
type Config struct {
	ListenAddr       string
	DatabaseURL      string
	AttachmentDir    string
	TelegramToken    string // optional; reminders are logged only when empty
	ReminderInterval time.Duration
	AgendaTime       string // HH:MM for the daily agenda push, empty disables it
	Development      bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:       strings.TrimSpace(os.Getenv("LISTEN_ADDR")),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AttachmentDir:    strings.TrimSpace(os.Getenv("ATTACHMENT_DIR")),
		TelegramToken:    strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		ReminderInterval: parseMinutes(strings.TrimSpace(os.Getenv("REMINDER_INTERVAL_MINUTES"))),
		AgendaTime:       strings.TrimSpace(os.Getenv("AGENDA_TIME")),
		Development:      parseBool(strings.TrimSpace(os.Getenv("DEVELOPMENT"))),
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "astrade.db"
	}
	if cfg.AttachmentDir == "" {
		cfg.AttachmentDir = "attachments"
	}
	if cfg.ReminderInterval == 0 {
		cfg.ReminderInterval = time.Minute
	}
	if cfg.AgendaTime != "" {
		if _, err := time.Parse("15:04", cfg.AgendaTime); err != nil {
			return cfg, fmt.Errorf("AGENDA_TIME %q: expected HH:MM", cfg.AgendaTime)
		}
	}

	return cfg, nil
}

func parseMinutes(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}
