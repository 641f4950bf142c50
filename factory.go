package sesskit

import (
	"context"
	"fmt"

	"github.com/minus-twelve/sesskit/storage"
	"github.com/minus-twelve/sesskit/types"
)

// CreateBackend builds the backend named by cfg.StoreType.
func CreateBackend(cfg types.Config) (Backend, error) {
	switch cfg.StoreType {
	case "memory":
		return storage.NewMemoryBackend(cfg.Memory.MaxSessions), nil
	case "redis":
		return storage.NewRedisBackend(cfg.Redis), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStoreType, cfg.StoreType)
	}
}

// Open wires a Store from config and runs storage provisioning once.
// The redis backend gets a cross-process locker on the same client.
// Caller options come last and may override the config-derived ones.
func Open(ctx context.Context, cfg types.Config, opts ...StoreOption) (*Store, error) {
	cfg = withDefaults(cfg)

	backend, err := CreateBackend(cfg)
	if err != nil {
		return nil, err
	}

	wired := []StoreOption{WithLockBounds(cfg.Lock)}
	if rb, ok := backend.(*storage.RedisBackend); ok {
		wired = append(wired, WithLocker(storage.NewRedisLocker(rb.Client(), cfg.Redis.Prefix)))
	}
	wired = append(wired, opts...)

	store := NewStore(backend, wired...)
	if err := store.Provision(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
