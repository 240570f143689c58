package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/config"
)

// Redis shares verdicts between processes through a Redis server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	owned  bool
}

// NewRedis wraps an existing client. The caller keeps ownership of it.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Redis{client: client, ttl: ttl, owned: true}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (concepts.Verdict, bool, error) {
	data, err := r.client.Get(ctx, config.RedisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return concepts.Verdict{}, false, nil
	}
	if err != nil {
		return concepts.Verdict{}, false, err
	}
	v, err := decode(key, data)
	if err != nil {
		return concepts.Verdict{}, false, err
	}
	return v, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, v concepts.Verdict) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, config.RedisKeyPrefix+key, data, r.ttl).Err()
}

// Health checks if the Redis connection is healthy.
func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}
