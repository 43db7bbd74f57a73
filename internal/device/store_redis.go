package device

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore records device claims as Redis keys with a TTL. SET NX makes
// the claim atomic across server instances. keyPrefix scopes the claims to
// this deployment's namespace.
type RedisStore struct {
	client    redis.Cmdable
	keyPrefix string
}

func NewRedisStore(client redis.Cmdable, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "steeple:device"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix + ":"}
}

func (s *RedisStore) Claim(ctx context.Context, key, email string, ttl time.Duration) (string, bool, error) {
	rkey := s.keyPrefix + key

	claimed, err := s.client.SetNX(ctx, rkey, email, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx: %w", err)
	}
	if claimed {
		return email, true, nil
	}

	holder, err := s.client.Get(ctx, rkey).Result()
	if err != nil {
		// The claim expired between SETNX and GET. Retry once.
		if err == redis.Nil {
			retried, retryErr := s.client.SetNX(ctx, rkey, email, ttl).Result()
			if retryErr != nil {
				return "", false, fmt.Errorf("redis setnx retry: %w", retryErr)
			}
			if retried {
				return email, true, nil
			}
			holder, retryErr = s.client.Get(ctx, rkey).Result()
			if retryErr != nil {
				return "", false, fmt.Errorf("redis get retry: %w", retryErr)
			}
			return holder, false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return holder, false, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
