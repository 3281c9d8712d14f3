package config

import "time"

// WorkerConfig contains batch worker configuration.
type WorkerConfig struct {
	// BatchSize bounds how many jobs one processing cycle may take.
	BatchSize int `env:"BATCH_SIZE" envDefault:"10"`

	// SendsPerSecond rate-limits outbound mail. Zero disables the limit.
	SendsPerSecond float64 `env:"SENDS_PER_SECOND" envDefault:"1"`

	// Interval runs cycles in the background at this period. Zero leaves the
	// queue to be drained via the process endpoint only.
	Interval time.Duration `env:"INTERVAL" envDefault:"0"`
}

const maxBatchSize = 100

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.BatchSize <= 0 {
		w.BatchSize = 10
	}
	if w.BatchSize > maxBatchSize {
		w.BatchSize = maxBatchSize
	}
	if w.SendsPerSecond < 0 {
		w.SendsPerSecond = 0
	}
	if w.Interval < 0 {
		w.Interval = 0
	}
}
