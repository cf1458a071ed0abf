package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	pkgredis "github.com/angelmondragon/platehub-backend/pkg/redis"
)

const redisScope = "orders"

type redisStore struct {
	client pkgredis.IdempotencyStore
}

// NewRedisStore keeps records in Redis under the shared key namespace.
func NewRedisStore(client pkgredis.IdempotencyStore) (Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisStore{client: client}, nil
}

func (s *redisStore) Claim(ctx context.Context, key, fingerprint string, ttl time.Duration) (bool, error) {
	payload, err := json.Marshal(Record{Fingerprint: fingerprint, State: StatePending})
	if err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, s.key(key), string(payload), ttl)
}

func (s *redisStore) Complete(ctx context.Context, key string, record Record, ttl time.Duration) error {
	record.State = StateCompleted
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), string(payload), ttl)
}

func (s *redisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key))
}

func (s *redisStore) Get(ctx context.Context, key string) (*Record, error) {
	stored, err := s.client.Get(ctx, s.key(key))
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var record Record
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &record, nil
}

func (s *redisStore) key(id string) string {
	return s.client.IdempotencyKey(redisScope, id)
}
