package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attesta/certmailer/internal/domain/model"
	apperrors "github.com/attesta/certmailer/internal/errors"
	"github.com/attesta/certmailer/internal/testutil"
)

func TestCredentialStore_RoundTrip(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewCredentialStore(client)
	ctx := context.Background()

	rec := model.CredentialRecord{
		AccessToken:     "access",
		RefreshToken:    "refresh",
		Expiry:          time.Now().Add(time.Hour).UTC(),
		MailingIdentity: "sender@example.com",
	}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec.AccessToken, got.AccessToken)
	assert.Equal(t, rec.RefreshToken, got.RefreshToken)
	assert.Equal(t, rec.MailingIdentity, got.MailingIdentity)
	assert.WithinDuration(t, rec.Expiry, got.Expiry, time.Second)

	// The record persists without a TTL until invalidated.
	ttl := client.TTL(ctx, credentialKey).Val()
	assert.Equal(t, time.Duration(-1), ttl)
}

func TestCredentialStore_GetAbsent(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewCredentialStore(client)

	_, err := store.Get(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCredentialStore_Delete(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewCredentialStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, model.CredentialRecord{AccessToken: "x"}))
	require.NoError(t, store.Delete(ctx))

	_, err := store.Get(ctx)
	assert.True(t, apperrors.IsNotFound(err))

	// Deleting an absent record is a no-op.
	require.NoError(t, store.Delete(ctx))
}
