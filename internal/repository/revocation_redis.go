package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-rental/internal/utils"
)

// RedisRevocationStore keeps revoked-token flags in Redis. With a positive
// TTL entries expire; with a zero TTL they are kept forever like the MySQL
// denylist.
type RedisRevocationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRevocationStore creates the Redis-backed revocation list.
func NewRedisRevocationStore(client *redis.Client, ttl time.Duration) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, ttl: ttl}
}

func revocationKey(token, userName string) string {
	return "auth:revoked:" + userName + ":" + utils.HashToken(token)
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, token, userName string) error {
	return s.client.Set(ctx, revocationKey(token, userName), "1", s.ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, token, userName string) (bool, error) {
	n, err := s.client.Exists(ctx, revocationKey(token, userName)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
