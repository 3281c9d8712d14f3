package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/attesta/certmailer/internal/errors"

	"github.com/attesta/certmailer/internal/core"
	"github.com/attesta/certmailer/internal/domain/model"
	"github.com/attesta/certmailer/internal/observability/metrics"
)

// EnqueueRequest is one submitted batch: shared template, layout and message
// content applied to a list of recipients.
type EnqueueRequest struct {
	Recipients      []model.Recipient  `json:"recipients"`
	TemplateImage   string             `json:"template_image"`
	SignatureImages []string           `json:"signature_images"`
	Layout          model.Layout       `json:"layout"`
	EmailContent    model.EmailContent `json:"email_content"`
}

// EnqueueResult reports which jobs were accepted.
type EnqueueResult struct {
	JobIDs []string `json:"job_ids"`
	Queued int      `json:"queued"`
}

// EnqueueServiceOptions configures an EnqueueService.
type EnqueueServiceOptions struct {
	Queue       core.JobQueue
	Credentials *CredentialService
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// EnqueueService validates submitted batches and fans them out into
// individual per-recipient jobs.
type EnqueueService struct {
	queue       core.JobQueue
	credentials *CredentialService
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// NewEnqueueService constructs an EnqueueService.
func NewEnqueueService(opts EnqueueServiceOptions) *EnqueueService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &EnqueueService{
		queue:       opts.Queue,
		credentials: opts.Credentials,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
}

// EnqueueBatch validates the request and queues one job per recipient.
// Submissions are rejected up front when no usable mailing credential is
// stored, so batches never sit in the queue with no way to send them.
// Each recipient is queued individually; a storage failure for one does not
// reject the others.
func (s *EnqueueService) EnqueueBatch(ctx context.Context, req EnqueueRequest) (EnqueueResult, error) {
	if err := validateRequest(req); err != nil {
		return EnqueueResult{}, err
	}

	authenticated, _, err := s.credentials.Status(ctx)
	if err != nil {
		return EnqueueResult{}, err
	}
	if !authenticated {
		return EnqueueResult{}, apperrors.Unauthenticated(
			"no mailing credential is stored; authorize before queueing jobs")
	}

	result := EnqueueResult{JobIDs: make([]string, 0, len(req.Recipients))}
	var lastErr error
	for _, recipient := range req.Recipients {
		job := &model.Job{
			Recipient:       recipient,
			TemplateImage:   req.TemplateImage,
			SignatureImages: req.SignatureImages,
			Layout:          req.Layout,
			EmailContent:    req.EmailContent,
		}
		id, err := s.queue.Enqueue(ctx, job)
		if err != nil {
			lastErr = err
			s.logger.ErrorContext(ctx, "failed to enqueue job",
				slog.String("recipient", recipient.Email),
				slog.String("error", err.Error()),
			)
			continue
		}
		result.JobIDs = append(result.JobIDs, id)
		result.Queued++
		s.metrics.JobEnqueued()
	}

	if result.Queued == 0 && lastErr != nil {
		return EnqueueResult{}, apperrors.Wrap(lastErr, apperrors.ErrCodeInternal,
			"no job could be queued")
	}

	s.logger.InfoContext(ctx, "batch queued",
		slog.Int("recipients", len(req.Recipients)),
		slog.Int("queued", result.Queued),
	)
	return result, nil
}

func validateRequest(req EnqueueRequest) error {
	if len(req.Recipients) == 0 {
		return apperrors.ValidationField("recipients", "at least one recipient is required")
	}
	for i, r := range req.Recipients {
		if strings.TrimSpace(r.Name) == "" {
			return apperrors.ValidationField(fmt.Sprintf("recipients[%d].name", i), "recipient name is required")
		}
		if strings.TrimSpace(r.Email) == "" {
			return apperrors.ValidationField(fmt.Sprintf("recipients[%d].email", i), "recipient email is required")
		}
	}
	probe := model.Job{
		Recipient:       req.Recipients[0],
		TemplateImage:   req.TemplateImage,
		SignatureImages: req.SignatureImages,
		Layout:          req.Layout,
		EmailContent:    req.EmailContent,
	}
	if err := probe.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid batch")
	}
	return nil
}
