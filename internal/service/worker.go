package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/attesta/certmailer/internal/errors"

	"github.com/attesta/certmailer/internal/core"
	"github.com/attesta/certmailer/internal/domain/model"
	"github.com/attesta/certmailer/internal/observability/metrics"
)

// DefaultBatchSize bounds how many jobs one cycle may take.
const DefaultBatchSize = 10

// WorkerServiceOptions configures a WorkerService.
type WorkerServiceOptions struct {
	Queue       core.JobQueue
	Credentials *CredentialService
	Renderer    core.Renderer
	Dispatcher  core.Dispatcher
	DeliveryLog core.DeliveryLog
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	BatchSize   int
	SendLimiter *rate.Limiter
	Now         func() time.Time
}

// WorkerService drains the pending queue in bounded cycles: take a batch,
// secure a sending credential once, then render and deliver each job,
// resolving it as completed or failed.
type WorkerService struct {
	queue       core.JobQueue
	credentials *CredentialService
	renderer    core.Renderer
	dispatcher  core.Dispatcher
	deliveryLog core.DeliveryLog
	metrics     *metrics.Metrics
	logger      *slog.Logger
	batchSize   int
	sendLimiter *rate.Limiter
	now         func() time.Time
}

// NewWorkerService constructs a WorkerService.
func NewWorkerService(opts WorkerServiceOptions) *WorkerService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &WorkerService{
		queue:       opts.Queue,
		credentials: opts.Credentials,
		renderer:    opts.Renderer,
		dispatcher:  opts.Dispatcher,
		deliveryLog: opts.DeliveryLog,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		batchSize:   opts.BatchSize,
		sendLimiter: opts.SendLimiter,
		now:         opts.Now,
	}
}

// RunCycle processes one batch. The credential is secured only after the
// batch is listed: when it cannot be secured the jobs are left queued
// untouched and the auth error is returned. Per-job failures resolve that
// job as failed and never stop the rest of the batch.
func (s *WorkerService) RunCycle(ctx context.Context) (model.CycleSummary, error) {
	start := s.now()

	batch, err := s.queue.DequeueBatch(ctx, s.batchSize)
	if err != nil {
		return model.CycleSummary{}, apperrors.Wrap(err, apperrors.ErrCodeInternal,
			"failed to list pending jobs")
	}
	if len(batch) == 0 {
		s.logger.InfoContext(ctx, "queue is empty; nothing to process")
		s.publishQueueDepth(ctx)
		return model.CycleSummary{}, nil
	}

	summary := model.CycleSummary{BatchSize: len(batch)}

	cred, err := s.credentials.GetValidCredential(ctx)
	if err != nil {
		// Jobs stay queued; a later cycle picks them up once the grant works.
		s.logger.WarnContext(ctx, "cannot secure sending credential; leaving batch queued",
			slog.Int("batch_size", len(batch)),
			slog.String("error", err.Error()),
		)
		return summary, err
	}

	for _, queued := range batch {
		if err := s.processJob(ctx, cred, queued); err != nil {
			if apperrors.IsAuthFailure(err) || ctx.Err() != nil {
				// The credential died or the cycle was canceled mid-batch.
				// Unresolved jobs stay queued for the next cycle.
				s.finishCycle(ctx, start)
				return summary, err
			}
			summary.Failed++
			continue
		}
		summary.Succeeded++
	}

	s.finishCycle(ctx, start)
	s.logger.InfoContext(ctx, "cycle complete",
		slog.Int("batch_size", summary.BatchSize),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
	)
	return summary, nil
}

// processJob resolves one queued job. A nil return means the job completed;
// a non-auth error means it was archived as failed.
func (s *WorkerService) processJob(ctx context.Context, cred core.Credential, queued model.QueuedJob) error {
	if queued.ReadErr != nil {
		s.failJob(ctx, queued, queued.ReadErr)
		return apperrors.Wrap(queued.ReadErr, apperrors.ErrCodeCorruptJob, "stored job is unreadable")
	}

	if s.sendLimiter != nil {
		if err := s.sendLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	jobStart := s.now()

	document, err := s.renderer.Render(queued.Job)
	if err != nil {
		s.failJob(ctx, queued, err)
		s.recordDelivery(ctx, queued, model.DeliveryOutcomeFailed, err, s.now().Sub(jobStart))
		return err
	}

	if err := s.dispatcher.Deliver(ctx, cred, queued.Job, document); err != nil {
		if apperrors.IsAuthFailure(err) {
			return err
		}
		s.failJob(ctx, queued, err)
		s.recordDelivery(ctx, queued, model.DeliveryOutcomeFailed, err, s.now().Sub(jobStart))
		return err
	}

	if err := s.queue.Complete(ctx, queued.ID); err != nil {
		// The mail went out; a completion failure means the job may be
		// retried and the recipient may receive a duplicate. Log loudly
		// rather than archive a delivered job as failed.
		s.logger.ErrorContext(ctx, "job delivered but could not be removed from the queue",
			slog.String("job_id", queued.ID),
			slog.String("error", err.Error()),
		)
	}
	s.metrics.JobSucceeded()
	s.recordDelivery(ctx, queued, model.DeliveryOutcomeSent, nil, s.now().Sub(jobStart))
	return nil
}

func (s *WorkerService) failJob(ctx context.Context, queued model.QueuedJob, cause error) {
	if err := s.queue.Fail(ctx, queued.ID, queued.Job, cause.Error()); err != nil {
		s.logger.ErrorContext(ctx, "failed to archive job failure",
			slog.String("job_id", queued.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.metrics.JobFailed()
	s.logger.WarnContext(ctx, "job failed",
		slog.String("job_id", queued.ID),
		slog.String("error", cause.Error()),
	)
}

func (s *WorkerService) recordDelivery(ctx context.Context, queued model.QueuedJob, outcome string, cause error, d time.Duration) {
	if s.deliveryLog == nil {
		return
	}
	entry := model.DeliveryEntry{
		JobID:      queued.ID,
		Outcome:    outcome,
		Duration:   d,
		ResolvedAt: s.now(),
	}
	if queued.Job != nil {
		entry.RecipientEmail = queued.Job.Recipient.Email
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	if err := s.deliveryLog.Record(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to archive delivery entry",
			slog.String("job_id", queued.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *WorkerService) finishCycle(ctx context.Context, start time.Time) {
	s.metrics.CycleCompleted(s.now().Sub(start))
	s.publishQueueDepth(ctx)
}

func (s *WorkerService) publishQueueDepth(ctx context.Context) {
	depth, err := s.queue.PendingCount(ctx)
	if err != nil {
		return
	}
	s.metrics.SetQueueDepth(depth)
}
