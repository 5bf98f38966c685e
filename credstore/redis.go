package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultNamespace = "gosession"

// RedisStore keeps the credential record in a single Redis hash. Save is
// one HSET covering both token fields, so the pair is written atomically
// per the Store contract.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStore creates a RedisStore under the given key namespace. An
// empty namespace falls back to "gosession".
func NewRedisStore(client redis.UniversalClient, namespace string) *RedisStore {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &RedisStore{
		client: client,
		key:    namespace + ":credentials",
	}
}

// Save persists the record.
func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	fields := map[string]any{
		FieldAccessToken:  rec.AccessToken,
		FieldRefreshToken: rec.RefreshToken,
	}
	if rec.RememberedLogin != "" {
		fields[FieldRememberedLogin] = rec.RememberedLogin
	}

	if err := s.client.HSet(ctx, s.key, fields).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Load reads the record. A record with only one half of the token pair is
// cleared and reported as ErrCorruptRecord.
func (s *RedisStore) Load(ctx context.Context) (Record, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNoCredentials
		}
		return Record{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rec := Record{
		AccessToken:     fields[FieldAccessToken],
		RefreshToken:    fields[FieldRefreshToken],
		RememberedLogin: fields[FieldRememberedLogin],
	}

	if rec.partial() {
		if err := s.Clear(ctx); err != nil {
			return Record{}, err
		}
		return Record{RememberedLogin: rec.RememberedLogin}, ErrCorruptRecord
	}
	if !rec.HasTokens() {
		return Record{RememberedLogin: rec.RememberedLogin}, ErrNoCredentials
	}
	return rec, nil
}

// Clear erases the token pair and keeps the remembered login.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.HDel(ctx, s.key, FieldAccessToken, FieldRefreshToken).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
