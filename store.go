package sesskit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/minus-twelve/sesskit/storage"
	"github.com/minus-twelve/sesskit/types"
)

// NoSessionID is the sentinel id meaning "no session bound to this
// request". Every operation against it behaves as not-found.
const NoSessionID = ""

// createdKey holds the session creation timestamp inside the stored
// mapping. Underscore-prefixed keys are bookkeeping and stay hidden
// from callers.
const (
	reservedPrefix = "_"
	createdKey     = "_created"
)

const (
	defaultLockWait = 5 * time.Second
	defaultLockTTL  = 30 * time.Second
)

// Backend is the durable row storage a Store runs on. Fetch and Write
// report storage.ErrNotFound when no row exists for the id; Remove of
// a missing row succeeds.
type Backend interface {
	Provision(ctx context.Context) error
	Insert(ctx context.Context, data []byte) (string, error)
	Fetch(ctx context.Context, id string) ([]byte, error)
	Write(ctx context.Context, id string, data []byte) error
	Remove(ctx context.Context, id string) error
}

// Locker coordinates per-id access across processes. The in-process
// mutex map already serializes access within one process; a Locker
// extends that guarantee to replicas sharing a backend. Lock returns
// the release function, which must be called on every exit path.
type Locker interface {
	Lock(ctx context.Context, id string, ttl time.Duration) (func(ctx context.Context) error, error)
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Store owns session rows on a Backend and enforces at-most-one-writer
// per session id. Reads that hit backend faults degrade to "no
// session" (logged), writes surface their errors.
type Store struct {
	backend Backend
	codec   Codec
	locker  Locker
	logger  *slog.Logger
	metrics *Metrics

	lockWait time.Duration
	lockTTL  time.Duration

	mu    sync.Mutex
	locks map[string]*lockEntry
}

type StoreOption func(*Store)

// WithCodec replaces the default JSON codec.
func WithCodec(codec Codec) StoreOption {
	return func(s *Store) {
		s.codec = codec
	}
}

// WithLocker enables cross-process locking.
func WithLocker(locker Locker) StoreOption {
	return func(s *Store) {
		s.locker = locker
	}
}

// WithLogger configures a logger for swallowed read errors and
// deferred unlock failures.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics attaches operation counters.
func WithMetrics(metrics *Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = metrics
	}
}

// WithLockBounds overrides the lock wait cap and lock TTL.
func WithLockBounds(cfg types.LockConfig) StoreOption {
	return func(s *Store) {
		if cfg.Wait > 0 {
			s.lockWait = cfg.Wait
		}
		if cfg.TTL > 0 {
			s.lockTTL = cfg.TTL
		}
	}
}

func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend:  backend,
		codec:    JSONCodec{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		lockWait: defaultLockWait,
		lockTTL:  defaultLockTTL,
		locks:    make(map[string]*lockEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provision runs the backend's idempotent schema setup. Call once at
// startup; Open does this for you.
func (s *Store) Provision(ctx context.Context) error {
	if err := s.backend.Provision(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrProvision, err)
	}
	return nil
}

// Create stores the supplied attributes as a new session and returns
// the backend-minted id.
func (s *Store) Create(ctx context.Context, attrs types.Attributes) (string, error) {
	stored := attrs.Clone()
	stored[createdKey] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := s.codec.Encode(stored)
	if err != nil {
		s.metrics.observe("create", "error")
		return "", err
	}

	id, err := s.backend.Insert(ctx, data)
	if err != nil {
		s.metrics.observe("create", "error")
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	s.metrics.observe("create", "ok")
	return id, nil
}

// Get returns the session's caller-visible attributes, or (nil, nil)
// when no session exists. Backend faults on the read path also yield
// (nil, nil): callers cannot distinguish a failed read from a session
// that never existed. Every swallowed fault is logged at WARN.
func (s *Store) Get(ctx context.Context, id string) (types.Attributes, error) {
	if id == NoSessionID {
		s.metrics.observe("get", "miss")
		return nil, nil
	}

	var attrs types.Attributes
	err := s.withLock(ctx, id, func(ctx context.Context) error {
		data, err := s.backend.Fetch(ctx, id)
		if err != nil {
			return err
		}
		attrs, err = s.codec.Decode(data)
		return err
	})
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("session read degraded to not-found",
				"session_id", id,
				"err", err,
			)
		}
		s.metrics.observe("get", "miss")
		return nil, nil
	}

	for k := range attrs {
		if isReserved(k) {
			delete(attrs, k)
		}
	}
	s.metrics.observe("get", "ok")
	return attrs, nil
}

// CreatedAt reports when the session was created. Returns
// ErrSessionNotFound when no session exists.
func (s *Store) CreatedAt(ctx context.Context, id string) (time.Time, error) {
	if id == NoSessionID {
		return time.Time{}, ErrSessionNotFound
	}

	var created time.Time
	err := s.withLock(ctx, id, func(ctx context.Context) error {
		data, err := s.backend.Fetch(ctx, id)
		if err != nil {
			return err
		}
		stored, err := s.codec.Decode(data)
		if err != nil {
			return err
		}
		raw, _ := stored[createdKey].(string)
		created, err = time.Parse(time.RFC3339Nano, raw)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return time.Time{}, ErrSessionNotFound
		}
		return time.Time{}, err
	}
	return created, nil
}

// Update merges the supplied key/value pairs over the stored mapping
// and writes the result back under the session's lock. Keys absent
// from attrs keep their stored values; reserved keys in attrs are
// ignored. Updating a nonexistent session is an error.
func (s *Store) Update(ctx context.Context, id string, attrs types.Attributes) error {
	if id == NoSessionID {
		s.metrics.observe("update", "error")
		return ErrSessionNotFound
	}

	err := s.withLock(ctx, id, func(ctx context.Context) error {
		data, err := s.backend.Fetch(ctx, id)
		if err != nil {
			return err
		}
		stored, err := s.codec.Decode(data)
		if err != nil {
			return err
		}

		input := attrs.Clone()
		for k := range input {
			if isReserved(k) {
				delete(input, k)
			}
		}
		stored.Merge(input)

		data, err = s.codec.Encode(stored)
		if err != nil {
			return err
		}
		return s.backend.Write(ctx, id, data)
	})
	if err != nil {
		s.metrics.observe("update", "error")
		if errors.Is(err, storage.ErrNotFound) {
			return ErrSessionNotFound
		}
		if errors.Is(err, ErrLockNotAcquired) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	s.metrics.observe("update", "ok")
	return nil
}

// Delete removes the session. Deleting a session that does not exist
// (including the sentinel id) is a silent no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == NoSessionID {
		s.metrics.observe("delete", "ok")
		return nil
	}

	err := s.withLock(ctx, id, func(ctx context.Context) error {
		return s.backend.Remove(ctx, id)
	})
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.metrics.observe("delete", "error")
		if errors.Is(err, ErrLockNotAcquired) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	s.metrics.observe("delete", "ok")
	return nil
}

// withLock runs fn while holding the per-id lock: the in-process
// refcounted mutex always, plus the distributed lock when configured.
// Both are released on every exit path.
func (s *Store) withLock(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	entry := s.acquire(id)
	start := time.Now()
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		s.release(id)
	}()

	if s.locker != nil {
		lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
		defer cancel()

		unlock, err := s.locker.Lock(lockCtx, id, s.lockTTL)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: wait exceeded %s", ErrLockNotAcquired, s.lockWait)
			}
			return fmt.Errorf("%w: %v", ErrLockNotAcquired, err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				s.logger.Warn("failed to release session lock, holding until TTL",
					"session_id", id,
					"err", err,
				)
			}
		}()
	}
	s.metrics.observeLockWait(time.Since(start))

	return fn(ctx)
}

func (s *Store) acquire(id string) *lockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.locks[id]
	if !exists {
		entry = &lockEntry{}
		s.locks[id] = entry
	}
	entry.refs++
	return entry
}

func (s *Store) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(s.locks, id)
	}
}

func isReserved(key string) bool {
	return len(key) > 0 && key[:1] == reservedPrefix
}
