package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/attesta/certmailer/internal/domain/model"
	apperrors "github.com/attesta/certmailer/internal/errors"
)

// credentialKey holds the single delegated mailing identity's token set.
const credentialKey = "credential:google"

// CredentialStore persists the singleton credential record in Redis. The
// record has no TTL; it lives until a failed refresh invalidates it.
type CredentialStore struct {
	client redis.UniversalClient
	key    string
}

// NewCredentialStore creates a Redis-backed credential store.
func NewCredentialStore(client redis.UniversalClient) *CredentialStore {
	return &CredentialStore{client: client, key: credentialKey}
}

// NewCredentialStoreWithKey creates a credential store under a custom key.
func NewCredentialStoreWithKey(client redis.UniversalClient, key string) *CredentialStore {
	return &CredentialStore{client: client, key: key}
}

func (s *CredentialStore) Get(ctx context.Context) (model.CredentialRecord, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.CredentialRecord{}, apperrors.NotFound("no stored credential")
		}
		return model.CredentialRecord{}, fmt.Errorf("redis get credential: %w", err)
	}

	var rec model.CredentialRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return model.CredentialRecord{}, fmt.Errorf("unmarshal credential: %w", err)
	}
	return rec, nil
}

func (s *CredentialStore) Save(ctx context.Context, rec model.CredentialRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set credential: %w", err)
	}
	return nil
}

func (s *CredentialStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del credential: %w", err)
	}
	return nil
}
