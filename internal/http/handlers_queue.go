// Package httpx provides the HTTP API for the certificate delivery pipeline.
package httpx

import (
	"log/slog"
	"net/http"

	apperrors "github.com/attesta/certmailer/internal/errors"

	"github.com/attesta/certmailer/internal/service"
)

// QueueHandlers provides HTTP handlers for queueing and processing jobs.
type QueueHandlers struct {
	Enqueue *service.EnqueueService
	Worker  *service.WorkerService
	Logger  *slog.Logger
}

// QueueJob accepts a batch submission and queues one job per recipient.
func (h *QueueHandlers) QueueJob(w http.ResponseWriter, r *http.Request) {
	var req service.EnqueueRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Enqueue.EnqueueBatch(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"queued":  result.Queued,
		"job_ids": result.JobIDs,
	})
}

// ProcessQueue runs one worker cycle synchronously and reports its outcome.
// Auth failures are reported as a non-error payload: the queue is intact and
// the caller is told to re-authorize, which is not a server fault.
func (h *QueueHandlers) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Worker.RunCycle(r.Context())
	if err != nil {
		if apperrors.IsAuthFailure(err) {
			WriteJSON(w, http.StatusOK, map[string]any{
				"success": false,
				"message": "authorization required before the queue can be processed",
			})
			return
		}
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "queue processed",
		"summary": summary,
	})
}
