package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "hookrelay:paid_users"

// RedisStore keeps the paid-user set in a single redis SET.
type RedisStore struct {
	client   *redis.Client
	key      string
	ownsConn bool
}

func NewRedisStore(redisURL, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	store := NewRedisStoreWithClient(client, key)
	store.ownsConn = true
	return store, nil
}

// NewRedisStoreWithClient shares an existing client; Close leaves it open.
func NewRedisStoreWithClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Grant(ctx context.Context, identity string) error {
	if identity == "" {
		return ErrEmptyIdentity
	}
	if err := s.client.SAdd(ctx, s.key, identity).Err(); err != nil {
		return fmt.Errorf("failed to grant access: %w", err)
	}
	return nil
}

func (s *RedisStore) HasAccess(ctx context.Context, identity string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, identity).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check access: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Close() error {
	if s.ownsConn {
		return s.client.Close()
	}
	return nil
}
