// Package storage provides the concrete session backends. Backends
// store one opaque encoded blob per session id and mint new ids at
// insert time.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
)

var (
	// ErrNotFound is returned when no row exists for a session id.
	ErrNotFound = errors.New("session not found")
	// ErrUnavailable wraps backend transport failures.
	ErrUnavailable = errors.New("session backend unavailable")
)

// Session ids are 16 random bytes, hex-encoded to 32 characters.
const idBytes = 16

func newSessionID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
