package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Env         string `env:"ENV" envDefault:"development"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	JWTAccessExpiry time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`

	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`

	DefaultPageLimit int           `env:"DEFAULT_PAGE_LIMIT" envDefault:"30"`
	SessionLifetime  time.Duration `env:"SESSION_LIFETIME" envDefault:"24h"`

	SMS SMSConfig `envPrefix:"SMS_"`
}

type SMSConfig struct {
	Enabled      bool   `env:"ENABLED" envDefault:"false"`
	GatewayURL   string `env:"GATEWAY_URL"`
	TokenURL     string `env:"TOKEN_URL"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	Sender       string `env:"SENDER"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DefaultPageLimit < 1 {
		cfg.DefaultPageLimit = 30
	}
	if cfg.SMS.Enabled && cfg.SMS.GatewayURL == "" {
		return nil, fmt.Errorf("SMS_GATEWAY_URL is required when SMS_ENABLED is set")
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
