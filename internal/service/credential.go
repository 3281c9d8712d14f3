// Package service implements the application's use cases on top of the core
// ports: establishing the mailing grant, accepting batches, and working the
// queue.
package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/attesta/certmailer/internal/errors"

	"github.com/attesta/certmailer/internal/core"
	"github.com/attesta/certmailer/internal/domain/model"
)

// CredentialServiceOptions configures a CredentialService.
type CredentialServiceOptions struct {
	Store  core.CredentialStore
	Broker core.TokenBroker
	Logger *slog.Logger
	Now    func() time.Time
}

// CredentialService manages the lifecycle of the singleton mailing
// credential: establishing it from a consent grant, keeping its access token
// fresh, and tearing it down when the grant goes bad.
type CredentialService struct {
	store  core.CredentialStore
	broker core.TokenBroker
	logger *slog.Logger
	now    func() time.Time
}

// NewCredentialService constructs a CredentialService.
func NewCredentialService(opts CredentialServiceOptions) *CredentialService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CredentialService{
		store:  opts.Store,
		broker: opts.Broker,
		logger: opts.Logger,
		now:    opts.Now,
	}
}

// BeginAuthorization returns the provider consent URL for a new grant.
func (s *CredentialService) BeginAuthorization(state string) string {
	return s.broker.AuthCodeURL(state)
}

// CompleteAuthorization finishes the consent flow: it exchanges the code,
// pins the grant's verified email as the mailing identity and stores the
// resulting record. Re-consenting sometimes yields no refresh token; the one
// from the previous record is carried over so the grant survives.
func (s *CredentialService) CompleteAuthorization(ctx context.Context, code string) (model.CredentialRecord, error) {
	token, email, err := s.broker.Exchange(ctx, code)
	if err != nil {
		return model.CredentialRecord{}, apperrors.Wrap(err, apperrors.ErrCodeUnauthenticated,
			"authorization code could not be exchanged")
	}

	rec := model.CredentialRecord{
		AccessToken:     token.AccessToken,
		RefreshToken:    token.RefreshToken,
		Expiry:          token.Expiry,
		MailingIdentity: email,
	}
	if rec.RefreshToken == "" {
		prev, getErr := s.store.Get(ctx)
		if getErr == nil {
			rec.RefreshToken = prev.RefreshToken
			if rec.MailingIdentity == "" {
				rec.MailingIdentity = prev.MailingIdentity
			}
		} else if !apperrors.IsNotFound(getErr) {
			return model.CredentialRecord{}, getErr
		}
	}
	if rec.RefreshToken == "" {
		s.logger.WarnContext(ctx, "grant carries no refresh token; sending will stop when the access token expires")
	}

	if err := s.store.Save(ctx, rec); err != nil {
		return model.CredentialRecord{}, err
	}

	s.logger.InfoContext(ctx, "mailing credential established",
		slog.String("identity", rec.MailingIdentity),
	)
	return rec, nil
}

// GetValidCredential returns a credential ready for sending. An expired
// access token triggers exactly one refresh attempt; if that attempt fails
// the stored record is removed so the next call reports unauthenticated
// instead of retrying a dead grant.
func (s *CredentialService) GetValidCredential(ctx context.Context) (core.Credential, error) {
	rec, err := s.store.Get(ctx)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return core.Credential{}, apperrors.Unauthenticated("no mailing credential is stored")
		}
		return core.Credential{}, err
	}
	if !rec.Usable() {
		return core.Credential{}, apperrors.Unauthenticated("stored mailing credential is incomplete")
	}

	if rec.Expired(s.now()) {
		token, refreshErr := s.broker.Refresh(ctx, rec.RefreshToken)
		if refreshErr != nil {
			if delErr := s.store.Delete(ctx); delErr != nil {
				s.logger.ErrorContext(ctx, "failed to remove dead credential record",
					slog.String("error", delErr.Error()),
				)
			}
			return core.Credential{}, apperrors.ReauthRequired(
				"access token refresh failed; the grant must be established again", refreshErr)
		}

		rec.AccessToken = token.AccessToken
		rec.Expiry = token.Expiry
		if token.RefreshToken != "" {
			rec.RefreshToken = token.RefreshToken
		}
		if err := s.store.Save(ctx, rec); err != nil {
			return core.Credential{}, err
		}
		s.logger.InfoContext(ctx, "access token refreshed",
			slog.Time("expiry", rec.Expiry),
		)
	}

	source := s.broker.TokenSource(ctx, &oauth2.Token{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		Expiry:       rec.Expiry,
		TokenType:    "Bearer",
	})
	return core.Credential{Identity: rec.MailingIdentity, Source: source}, nil
}

// Status reports whether a usable credential is stored and for which identity.
func (s *CredentialService) Status(ctx context.Context) (bool, string, error) {
	rec, err := s.store.Get(ctx)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return false, "", nil
		}
		return false, "", err
	}
	return rec.Usable(), rec.MailingIdentity, nil
}
