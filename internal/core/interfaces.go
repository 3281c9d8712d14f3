package core

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/attesta/certmailer/internal/domain/model"
)

// This file contains the port definitions between the service layer and the
// adapters. Services depend on these interfaces, not concrete implementations.

// JobQueue is the durable store of pending delivery jobs.
type JobQueue interface {
	// Enqueue persists one job under a fresh unique id and returns the id.
	// Jobs are written individually; one recipient's failure must not reject
	// the rest of a submission.
	Enqueue(ctx context.Context, job *model.Job) (string, error)

	// DequeueBatch lists up to maxSize pending jobs and fetches each one.
	// A job whose stored data cannot be read back is returned with ReadErr
	// set instead of failing the batch. Jobs stay queued until resolved via
	// Complete or Fail.
	DequeueBatch(ctx context.Context, maxSize int) ([]model.QueuedJob, error)

	// Complete removes a job permanently. Completing an already-removed id
	// is a no-op.
	Complete(ctx context.Context, id string) error

	// Fail archives a FailedJob record under the failed namespace, then
	// removes the original job. job may be nil when only the reason is known.
	Fail(ctx context.Context, id string, job *model.Job, reason string) error

	// PendingCount reports how many jobs are currently queued.
	PendingCount(ctx context.Context) (int, error)
}

// CredentialStore persists the singleton credential record for the mailing
// identity. Get returns an error satisfying errors.IsNotFound when no record
// is stored.
type CredentialStore interface {
	Get(ctx context.Context) (model.CredentialRecord, error)
	Save(ctx context.Context, rec model.CredentialRecord) error
	Delete(ctx context.Context) error
}

// TokenBroker performs the provider-side token operations. It is stateless:
// every call takes the tokens it needs and returns fresh ones, with no shared
// client object mutated between calls.
type TokenBroker interface {
	// AuthCodeURL builds the provider consent URL for a new delegated grant.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for tokens and returns the
	// grant's verified email address alongside them.
	Exchange(ctx context.Context, code string) (*oauth2.Token, string, error)

	// Refresh mints a fresh access token from a stored refresh token.
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)

	// TokenSource wraps a current token so callers can ask for a valid token
	// immediately before use.
	TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource
}

// Credential is a usable mailing credential handle: the verified sender
// address and a source that yields a fresh access token on demand.
type Credential struct {
	Identity string
	Source   oauth2.TokenSource
}

// Renderer produces the certificate document bytes for one job.
type Renderer interface {
	Render(job *model.Job) ([]byte, error)
}

// Dispatcher sends one rendered document to one recipient through the
// mailing identity's authenticated channel.
type Dispatcher interface {
	Deliver(ctx context.Context, cred Credential, job *model.Job, document []byte) error
}

// DeliveryLog archives one row per resolved job for manual inspection.
// Implementations are best-effort; recording never affects job resolution.
type DeliveryLog interface {
	Record(ctx context.Context, entry model.DeliveryEntry) error
}
