package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apperrors "github.com/attesta/certmailer/internal/errors"
)

func newCredentialService(store *stubStore, broker *stubBroker, now time.Time) *CredentialService {
	return NewCredentialService(CredentialServiceOptions{
		Store:  store,
		Broker: broker,
		Logger: slog.New(slog.DiscardHandler),
		Now:    func() time.Time { return now },
	})
}

func TestGetValidCredentialFresh(t *testing.T) {
	now := time.Now()
	store := &stubStore{rec: validRecord(now.Add(time.Hour))}
	broker := &stubBroker{}
	svc := newCredentialService(store, broker, now)

	cred, err := svc.GetValidCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sender@example.com", cred.Identity)
	assert.Equal(t, 0, broker.refreshCalls)

	tok, err := cred.Source.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-token", tok.AccessToken)
}

func TestGetValidCredentialExpiredRefreshesOnce(t *testing.T) {
	now := time.Now()
	store := &stubStore{rec: validRecord(now.Add(-time.Minute))}
	broker := &stubBroker{
		refreshToken: &oauth2.Token{AccessToken: "fresh-token", Expiry: now.Add(time.Hour)},
	}
	svc := newCredentialService(store, broker, now)

	cred, err := svc.GetValidCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, broker.refreshCalls)

	tok, err := cred.Source.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", tok.AccessToken)

	// the refreshed token is persisted, and the refresh token survives
	require.NotNil(t, store.rec)
	assert.Equal(t, "fresh-token", store.rec.AccessToken)
	assert.Equal(t, "refresh-token", store.rec.RefreshToken)
}

func TestGetValidCredentialRefreshFailureTearsDown(t *testing.T) {
	now := time.Now()
	store := &stubStore{rec: validRecord(now.Add(-time.Minute))}
	broker := &stubBroker{refreshErr: errors.New("invalid_grant")}
	svc := newCredentialService(store, broker, now)

	_, err := svc.GetValidCredential(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsReauthRequired(err))
	assert.Equal(t, 1, broker.refreshCalls)
	assert.Equal(t, 1, store.deletes)
	assert.Nil(t, store.rec)

	// the next call reports unauthenticated without touching the broker again
	_, err = svc.GetValidCredential(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))
	assert.Equal(t, 1, broker.refreshCalls)
}

func TestGetValidCredentialMissingRecord(t *testing.T) {
	svc := newCredentialService(&stubStore{}, &stubBroker{}, time.Now())

	_, err := svc.GetValidCredential(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestGetValidCredentialIncompleteRecord(t *testing.T) {
	now := time.Now()
	rec := validRecord(now.Add(time.Hour))
	rec.RefreshToken = ""
	svc := newCredentialService(&stubStore{rec: rec}, &stubBroker{}, now)

	_, err := svc.GetValidCredential(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestCompleteAuthorization(t *testing.T) {
	now := time.Now()
	store := &stubStore{}
	broker := &stubBroker{
		exchangeToken: &oauth2.Token{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			Expiry:       now.Add(time.Hour),
		},
		exchangeEmail: "granted@example.com",
	}
	svc := newCredentialService(store, broker, now)

	rec, err := svc.CompleteAuthorization(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "granted@example.com", rec.MailingIdentity)
	assert.Equal(t, "new-refresh", rec.RefreshToken)
	require.NotNil(t, store.rec)
	assert.Equal(t, "new-access", store.rec.AccessToken)
}

func TestCompleteAuthorizationKeepsPreviousRefreshToken(t *testing.T) {
	now := time.Now()
	store := &stubStore{rec: validRecord(now.Add(-time.Hour))}
	broker := &stubBroker{
		exchangeToken: &oauth2.Token{
			AccessToken: "new-access",
			Expiry:      now.Add(time.Hour),
		},
		exchangeEmail: "sender@example.com",
	}
	svc := newCredentialService(store, broker, now)

	rec, err := svc.CompleteAuthorization(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "refresh-token", rec.RefreshToken)
	assert.Equal(t, "sender@example.com", rec.MailingIdentity)
}

func TestCompleteAuthorizationExchangeFailure(t *testing.T) {
	store := &stubStore{}
	broker := &stubBroker{exchangeErr: errors.New("invalid code")}
	svc := newCredentialService(store, broker, time.Now())

	_, err := svc.CompleteAuthorization(context.Background(), "bad-code")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))
	assert.Nil(t, store.rec)
}

func TestStatus(t *testing.T) {
	now := time.Now()

	t.Run("no record", func(t *testing.T) {
		svc := newCredentialService(&stubStore{}, &stubBroker{}, now)
		ok, identity, err := svc.Status(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, identity)
	})

	t.Run("usable record", func(t *testing.T) {
		svc := newCredentialService(&stubStore{rec: validRecord(now.Add(time.Hour))}, &stubBroker{}, now)
		ok, identity, err := svc.Status(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "sender@example.com", identity)
	})
}

func TestBeginAuthorization(t *testing.T) {
	svc := newCredentialService(&stubStore{}, &stubBroker{}, time.Now())
	assert.Contains(t, svc.BeginAuthorization("xyz"), "state=xyz")
}
