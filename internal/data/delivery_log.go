// Package data provides the optional Postgres archive of resolved deliveries.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/attesta/certmailer/internal/errors"

	"github.com/attesta/certmailer/internal/domain/model"
)

// ErrDeliveryLogNotConfigured is returned when no database was configured.
var ErrDeliveryLogNotConfigured = errors.New("delivery log database not configured")

// DeliveryLogRepo archives one row per resolved job. The archive is optional:
// a nil repo (no database configured) rejects calls with a sentinel the
// caller treats as "feature off".
type DeliveryLogRepo struct {
	DB *sql.DB
}

// NewDeliveryLogRepo constructs a DeliveryLogRepo.
func NewDeliveryLogRepo(db *sql.DB) *DeliveryLogRepo {
	return &DeliveryLogRepo{DB: db}
}

// EnsureSchema creates the delivery_log table when it does not exist yet.
func (r *DeliveryLogRepo) EnsureSchema(ctx context.Context) error {
	if r == nil || r.DB == nil {
		return ErrDeliveryLogNotConfigured
	}
	const query = `
		CREATE TABLE IF NOT EXISTS delivery_log (
			id              BIGSERIAL PRIMARY KEY,
			job_id          TEXT        NOT NULL,
			recipient_email TEXT        NOT NULL,
			outcome         TEXT        NOT NULL,
			error           TEXT        NOT NULL DEFAULT '',
			duration_ms     BIGINT      NOT NULL DEFAULT 0,
			resolved_at     TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS delivery_log_resolved_at_idx
			ON delivery_log (resolved_at DESC);`
	if _, err := r.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create delivery_log schema: %w", apperrors.MapDBError(err))
	}
	return nil
}

// Record inserts one archive row.
func (r *DeliveryLogRepo) Record(ctx context.Context, entry model.DeliveryEntry) error {
	if r == nil || r.DB == nil {
		return ErrDeliveryLogNotConfigured
	}
	const query = `
		INSERT INTO delivery_log (job_id, recipient_email, outcome, error, duration_ms, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6);`
	_, err := r.DB.ExecContext(ctx, query,
		entry.JobID,
		entry.RecipientEmail,
		entry.Outcome,
		entry.Error,
		entry.Duration.Milliseconds(),
		entry.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery_log row: %w", apperrors.MapDBError(err))
	}
	return nil
}

// ListRecent returns up to limit rows, newest first.
func (r *DeliveryLogRepo) ListRecent(ctx context.Context, limit int) ([]model.DeliveryEntry, error) {
	if r == nil || r.DB == nil {
		return nil, ErrDeliveryLogNotConfigured
	}
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT job_id, recipient_email, outcome, error, duration_ms, resolved_at
		FROM delivery_log
		ORDER BY resolved_at DESC
		LIMIT $1;`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query delivery_log: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	var entries []model.DeliveryEntry
	for rows.Next() {
		var e model.DeliveryEntry
		var durationMS int64
		if err := rows.Scan(&e.JobID, &e.RecipientEmail, &e.Outcome, &e.Error, &durationMS, &e.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan delivery_log row: %w", apperrors.MapDBError(err))
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery_log rows: %w", apperrors.MapDBError(err))
	}
	return entries, nil
}
