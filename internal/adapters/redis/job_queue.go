// Package redis provides Redis-based adapters for the certmailer durable store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/attesta/certmailer/internal/domain/model"
	apperrors "github.com/attesta/certmailer/internal/errors"
)

const (
	jobKeyPrefix    = "job:"
	failedKeyPrefix = "failed:job:"

	// jobTTL bounds how long an unprocessed job survives; failedJobTTL keeps
	// terminal records around longer for manual review.
	jobTTL       = 24 * time.Hour
	failedJobTTL = 7 * 24 * time.Hour

	scanCount = 100
)

// JobQueue is a Redis-backed durable job queue. Jobs live under job:<uuid>
// with a bounded retention window; failed jobs move to failed:job:<uuid>.
type JobQueue struct {
	client redis.UniversalClient
}

// NewJobQueue creates a Redis-backed job queue.
func NewJobQueue(client redis.UniversalClient) *JobQueue {
	return &JobQueue{client: client}
}

// Enqueue persists the job under a fresh id and returns the id.
func (q *JobQueue) Enqueue(ctx context.Context, job *model.Job) (string, error) {
	if job == nil {
		return "", errors.New("job cannot be nil")
	}

	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}

	id := uuid.NewString()
	if err := q.client.Set(ctx, jobKeyPrefix+id, data, jobTTL).Err(); err != nil {
		return "", fmt.Errorf("redis set job: %w", err)
	}
	return id, nil
}

// DequeueBatch lists up to maxSize pending job ids and fetches each job.
// Listing order is whatever the key scan yields; it is collected once, so the
// order is stable within a call. Unreadable jobs come back with ReadErr set.
func (q *JobQueue) DequeueBatch(ctx context.Context, maxSize int) ([]model.QueuedJob, error) {
	if maxSize <= 0 {
		return nil, nil
	}

	ids, err := q.listPending(ctx, maxSize)
	if err != nil {
		return nil, err
	}

	batch := make([]model.QueuedJob, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, q.fetch(ctx, id))
	}
	return batch, nil
}

func (q *JobQueue) listPending(ctx context.Context, maxSize int) ([]string, error) {
	seen := make(map[string]struct{}, maxSize)
	ids := make([]string, 0, maxSize)

	iter := q.client.Scan(ctx, 0, jobKeyPrefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		id := iter.Val()[len(jobKeyPrefix):]
		if _, dup := seen[id]; dup {
			// SCAN may yield a key more than once.
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		if len(ids) >= maxSize {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan jobs: %w", err)
	}
	return ids, nil
}

func (q *JobQueue) fetch(ctx context.Context, id string) model.QueuedJob {
	data, err := q.client.Get(ctx, jobKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.QueuedJob{
				ID:      id,
				ReadErr: apperrors.Wrap(err, apperrors.ErrCodeCorruptJob, "job data is missing"),
			}
		}
		return model.QueuedJob{
			ID:      id,
			ReadErr: apperrors.Wrap(err, apperrors.ErrCodeCorruptJob, "read job data"),
		}
	}

	var job model.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return model.QueuedJob{
			ID:      id,
			ReadErr: apperrors.Wrap(err, apperrors.ErrCodeCorruptJob, "job data is corrupt"),
		}
	}
	return model.QueuedJob{ID: id, Job: &job}
}

// Complete removes the job permanently. Deleting an absent key is a no-op in
// Redis, which gives the required idempotence for free.
func (q *JobQueue) Complete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := q.client.Del(ctx, jobKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del job: %w", err)
	}
	return nil
}

// Fail writes the FailedJob record under the failed namespace, then removes
// the original job. The record is written even when only the reason is known.
func (q *JobQueue) Fail(ctx context.Context, id string, job *model.Job, reason string) error {
	record := model.FailedJob{
		Job:      job,
		Error:    reason,
		FailedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal failed job: %w", err)
	}

	if err := q.client.Set(ctx, failedKeyPrefix+id, data, failedJobTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed job: %w", err)
	}
	if err := q.client.Del(ctx, jobKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del job after fail: %w", err)
	}
	return nil
}

// PendingCount reports how many jobs are currently queued.
func (q *JobQueue) PendingCount(ctx context.Context) (int, error) {
	count := 0
	iter := q.client.Scan(ctx, 0, jobKeyPrefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan jobs: %w", err)
	}
	return count, nil
}

// GetFailed fetches one failed-job record, for inspection endpoints and tests.
func (q *JobQueue) GetFailed(ctx context.Context, id string) (model.FailedJob, error) {
	data, err := q.client.Get(ctx, failedKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.FailedJob{}, apperrors.NotFound("failed job not found")
		}
		return model.FailedJob{}, fmt.Errorf("redis get failed job: %w", err)
	}

	var record model.FailedJob
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return model.FailedJob{}, fmt.Errorf("unmarshal failed job: %w", err)
	}
	return record, nil
}
