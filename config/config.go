// Package config defines the application configuration, loaded from
// environment variables with github.com/caarlos0/env.
package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files:
//   - auth.go: Google OAuth2 configuration
//   - database.go: Redis and optional Postgres configuration
//   - http.go: HTTP server configuration
//   - mail.go: SMTP transport configuration
//   - worker.go: Batch worker configuration
type AppConfig struct {
	// IsDev controls development mode behavior.
	IsDev bool `env:"DEV" envDefault:"false"`

	Auth     AuthConfig  `envPrefix:"GOOGLE_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Postgres DBConfig    `envPrefix:"DB_"`
	HTTP     HTTPConfig
	Mail     MailConfig   `envPrefix:"SMTP_"`
	Worker   WorkerConfig `envPrefix:"WORKER_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Worker.Sanitize()
	c.Mail.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks NODE_ENV as a fallback for the DEV flag.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
