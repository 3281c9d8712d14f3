package config

import "time"

// MailConfig contains SMTP transport configuration. The defaults target
// Gmail's submission endpoint with STARTTLS.
type MailConfig struct {
	Host string `env:"HOST" envDefault:"smtp.gmail.com"`
	Port int    `env:"PORT" envDefault:"587"`

	// MaxRetries is how many times a failed send is retried before the job
	// is archived as failed.
	MaxRetries int `env:"MAX_RETRIES" envDefault:"2"`

	// RetryWait is the pause between send attempts.
	RetryWait time.Duration `env:"RETRY_WAIT" envDefault:"2s"`
}

// Sanitize applies guardrails to mail configuration values.
func (m *MailConfig) Sanitize() {
	if m.Port <= 0 || m.Port > 65535 {
		m.Port = 587
	}
	if m.MaxRetries < 0 {
		m.MaxRetries = 0
	}
	if m.RetryWait <= 0 {
		m.RetryWait = 2 * time.Second
	}
}
