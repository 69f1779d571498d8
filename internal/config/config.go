package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Operator console
	APIAddr       string `env:"API_ADDR" envDefault:":8080"`
	APIKey        string `env:"API_KEY"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminSecret   string `env:"ADMIN_SECRET"`

	// Admins allowed to use in-bot admin commands
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// Start surface
	StartPhotoFileID string `env:"START_PHOTO_FILE_ID"`

	// Bot behavior
	DropPendingUpdates bool `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`

	// Telegram ops notifications
	NotifyChatID         int64 `env:"NOTIFY_TELEGRAM_CHAT_ID"`
	NotifyTopicError     int   `env:"NOTIFY_TOPIC_ERROR"`
	NotifyTopicSubmitted int   `env:"NOTIFY_TOPIC_SUBMISSION"`
	NotifyTopicQuestion  int   `env:"NOTIFY_TOPIC_QUESTION"`
	NotifyTopicReport    int   `env:"NOTIFY_TOPIC_REPORT"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

// SessionSecret returns the secret used to sign operator sessions,
// falling back to the static API key when no dedicated secret is set.
func (c *Config) SessionSecret() string {
	if c.AdminSecret != "" {
		return c.AdminSecret
	}
	return c.APIKey
}

func (c *Config) AdminIDsString() string {
	parts := make([]string, len(c.AdminIDs))
	for i, id := range c.AdminIDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
