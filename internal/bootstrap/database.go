package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/redis/go-redis/v9"

	"github.com/attesta/certmailer/config"
	"github.com/attesta/certmailer/internal/data"
)

// ConnectRedis connects the Redis client backing the job queue and the
// credential store.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}

	logger.InfoContext(ctx, "connected to redis", slog.String("addr", cfg.Addr))
	return client, nil
}

// ConnectDB opens the optional Postgres database for the delivery log
// archive. Returns nil without error when the archive is disabled.
func ConnectDB(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*sql.DB, error) {
	if !cfg.Enabled() {
		logger.InfoContext(ctx, "delivery log archive disabled; no database configured")
		return nil, nil
	}

	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database at %s: %w", cfg.Host, err)
	}

	if err := data.NewDeliveryLogRepo(db).EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.InfoContext(ctx, "connected to database",
		slog.String("host", cfg.Host),
		slog.String("name", cfg.Name),
	)
	return db, nil
}
