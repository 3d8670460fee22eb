package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	HTTP struct {
		Port string `env:"HTTP_PORT" envDefault:"6060"`
	}

	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"./database.db"`
	}

	Auth struct {
		JWTSecret string        `env:"JWT_SECRET"`
		TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	}

	Scheduler struct {
		ExpiryInterval   time.Duration `env:"EXPIRY_CHECK_INTERVAL" envDefault:"5m"`
		ReminderInterval time.Duration `env:"REMINDER_CHECK_INTERVAL" envDefault:"1h"`
	}

	SMTP struct {
		Enabled  bool   `env:"SMTP_ENABLED"`
		Host     string `env:"SMTP_HOST"`
		Port     string `env:"SMTP_PORT" envDefault:"587"`
		Username string `env:"SMTP_USERNAME"`
		Password string `env:"SMTP_PASSWORD"`
		From     string `env:"SMTP_FROM"`
	}

	Push struct {
		Enabled bool   `env:"PUSH_ENABLED"`
		URL     string `env:"PUSH_API_URL" envDefault:"https://onesignal.com/api/v1/notifications"`
		AppID   string `env:"PUSH_APP_ID"`
		APIKey  string `env:"PUSH_API_KEY"`
	}
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}
