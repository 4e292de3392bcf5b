package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "gs:"

// RedisStore keeps the credentials in one Redis hash so that Clear is a single DEL.
type RedisStore struct {
	redis redis.UniversalClient
	key   string
	ttl   time.Duration
}

// NewRedisStore returns a store writing to the hash "<prefix>credentials". A
// positive ttl is re-applied on every Set so an abandoned session eventually
// disappears on its own.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{
		redis: client,
		key:   prefix + "credentials",
		ttl:   ttl,
	}
}

// Key returns the Redis key holding the credential hash.
func (s *RedisStore) Key() string {
	return s.key
}

func (s *RedisStore) Get(ctx context.Context, kind Kind) (string, error) {
	if err := checkKind(kind); err != nil {
		return "", err
	}
	value, err := s.redis.HGet(ctx, s.key, string(kind)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, kind Kind, value string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if value == "" {
			pipe.HDel(ctx, s.key, string(kind))
			return nil
		}
		pipe.HSet(ctx, s.key, string(kind), value)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Replace drops the hash and writes the non-empty fields of creds in one
// MULTI/EXEC transaction.
func (s *RedisStore) Replace(ctx context.Context, creds Credentials) error {
	fields := make([]any, 0, 6)
	for _, kind := range Kinds() {
		if v := creds.get(kind); v != "" {
			fields = append(fields, string(kind), v)
		}
	}
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(fields) == 0 {
			return nil
		}
		pipe.HSet(ctx, s.key, fields...)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
