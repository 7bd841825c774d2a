package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port              int    `env:"PORT" envDefault:"8080"`
	DatabaseURL       string `env:"DATABASE_URL,required"`
	RedisURL          string `env:"REDIS_URL,required"`
	OCRBaseURL        string `env:"OCR_BASE_URL" envDefault:"http://localhost:9090"`
	OCRAPIKey         string `env:"OCR_API_KEY"`
	OCRTimeoutSeconds int    `env:"OCR_TIMEOUT_SECONDS" envDefault:"30"`
	SessionTTLHours   int    `env:"SESSION_TTL_HOURS" envDefault:"24"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) OCRTimeout() time.Duration {
	return time.Duration(c.OCRTimeoutSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.OCRBaseURL); err != nil {
		return fmt.Errorf("OCR_BASE_URL is not a valid URL: %w", err)
	}
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	return nil
}

func Load() (*Config, error) {
	// Optional .env for local development; ignored when absent.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
