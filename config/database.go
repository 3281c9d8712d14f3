package config

import "fmt"

// RedisConfig contains Redis configuration for the job queue and the
// credential store.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// DBConfig contains the optional PostgreSQL configuration for the delivery
// log archive. Leaving Host empty disables the archive.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:""`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"certmailer"`
	Password string `env:"PASSWORD" envDefault:"certmailer"`
	Name     string `env:"NAME"     envDefault:"certmailer"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
}

// Enabled reports whether a database was configured.
func (d *DBConfig) Enabled() bool {
	return d.Host != ""
}

// DSN builds the connection string for database/sql with the pgx driver.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}
