package sesskit

import "errors"

var (
	// ErrProvision is returned when the backend's one-time storage
	// provisioning fails at startup.
	ErrProvision = errors.New("session storage provisioning failed")
	// ErrSessionNotFound is returned by write operations that target a
	// session id with no stored row.
	ErrSessionNotFound = errors.New("session not found")
	// ErrLockNotAcquired is returned when the per-session lock cannot
	// be acquired within the configured wait bound.
	ErrLockNotAcquired = errors.New("session lock not acquired")
	// ErrBackendUnavailable wraps backend failures on the write path.
	// Read-path failures never surface; they degrade to "no session".
	ErrBackendUnavailable = errors.New("session backend unavailable")
	// ErrInvalidStoreType is returned by the factory for an unknown
	// store_type value.
	ErrInvalidStoreType = errors.New("invalid store type")
)
