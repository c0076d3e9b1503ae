// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting. Defaults are suitable for local
// development; production values come from the environment or a .env file.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"debug"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogHuman bool   `env:"LOG_HUMAN" envDefault:"true"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/portfolio.db"`
	ContentPath  string `env:"CONTENT_PATH"`
	StaticDir    string `env:"STATIC_DIR"`
	ResumePath   string `env:"RESUME_PATH"`

	GAMeasurementID string `env:"GA_MEASUREMENT_ID" envDefault:"G-R0SSHMLP09"`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	AnalyticsRetention time.Duration `env:"ANALYTICS_RETENTION" envDefault:"8760h"`
	SecureCookies      bool          `env:"SECURE_COOKIES" envDefault:"false"`
}

// Load parses the process environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	return &cfg, nil
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}
