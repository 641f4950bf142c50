package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/minus-twelve/sesskit/types"
)

// RedisBackend stores each session's encoded blob under prefix+id.
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisBackend(cfg types.RedisConfig) *RedisBackend {
	if cfg.Prefix == "" {
		cfg.Prefix = "sess:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisBackend{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}
}

// NewRedisBackendFromClient wraps an existing client. Used by tests
// and by callers that share one client across subsystems.
func NewRedisBackendFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = "sess:"
	}
	return &RedisBackend{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *RedisBackend) key(id string) string {
	return r.prefix + id
}

// Provision verifies the backend is reachable. Redis needs no schema,
// so a ping stands in for the table-exists check.
func (r *RedisBackend) Provision(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *RedisBackend) Insert(ctx context.Context, data []byte) (string, error) {
	for attempt := 0; attempt < 4; attempt++ {
		id, err := newSessionID()
		if err != nil {
			return "", err
		}

		ok, err := r.client.SetNX(ctx, r.key(id), data, r.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if ok {
			return id, nil
		}
	}
	return "", errors.New("session id collision")
}

func (r *RedisBackend) Fetch(ctx context.Context, id string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, nil
}

func (r *RedisBackend) Write(ctx context.Context, id string, data []byte) error {
	ok, err := r.client.SetXX(ctx, r.key(id), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r *RedisBackend) Remove(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *RedisBackend) Client() *redis.Client {
	return r.client
}

// RedisLocker serializes writers on one session id across processes
// using SET NX with a per-holder owner token.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = "sess:"
	}
	return &RedisLocker{
		client: client,
		prefix: prefix,
	}
}

// releaseScript deletes the lock only when the owner token still
// matches, so an expired lock reclaimed by someone else is never
// released by the previous holder.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Lock acquires the per-id lock, polling until the context expires.
// The returned function releases the lock and must be called on every
// exit path.
func (l *RedisLocker) Lock(ctx context.Context, id string, ttl time.Duration) (func(ctx context.Context) error, error) {
	lockKey := l.prefix + "lock:" + id
	owner := uuid.NewString()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, owner, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if ok {
			unlock := func(ctx context.Context) error {
				return l.client.Eval(ctx, releaseScript, []string{lockKey}, owner).Err()
			}
			return unlock, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
