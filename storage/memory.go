package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryRow struct {
	data      []byte
	createdAt time.Time
	updatedAt time.Time
}

// MemoryBackend keeps sessions in process memory, guarded by a single
// RWMutex. Intended for tests and single-instance deployments.
type MemoryBackend struct {
	sessions    map[string]*memoryRow
	mutex       sync.RWMutex
	maxSessions int
}

// NewMemoryBackend creates an in-memory backend. maxSessions <= 0
// disables the cap; when the cap is reached the least recently
// written session is evicted to make room.
func NewMemoryBackend(maxSessions int) *MemoryBackend {
	return &MemoryBackend{
		sessions:    make(map[string]*memoryRow),
		maxSessions: maxSessions,
	}
}

func (s *MemoryBackend) Provision(ctx context.Context) error {
	return nil
}

func (s *MemoryBackend) Insert(ctx context.Context, data []byte) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		if oldest := s.findOldestSession(); oldest != "" {
			delete(s.sessions, oldest)
		} else {
			return "", errors.New("max sessions limit reached")
		}
	}

	for attempt := 0; attempt < 4; attempt++ {
		id, err := newSessionID()
		if err != nil {
			return "", err
		}
		if _, exists := s.sessions[id]; exists {
			continue
		}
		now := time.Now()
		s.sessions[id] = &memoryRow{
			data:      append([]byte(nil), data...),
			createdAt: now,
			updatedAt: now,
		}
		return id, nil
	}
	return "", errors.New("session id collision")
}

func (s *MemoryBackend) Fetch(ctx context.Context, id string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	row, exists := s.sessions[id]
	if !exists {
		return nil, ErrNotFound
	}
	return append([]byte(nil), row.data...), nil
}

func (s *MemoryBackend) Write(ctx context.Context, id string, data []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	row, exists := s.sessions[id]
	if !exists {
		return ErrNotFound
	}
	row.data = append([]byte(nil), data...)
	row.updatedAt = time.Now()
	return nil
}

func (s *MemoryBackend) Remove(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.sessions, id)
	return nil
}

// Len reports the number of stored sessions.
func (s *MemoryBackend) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.sessions)
}

func (s *MemoryBackend) findOldestSession() string {
	var oldestID string
	var oldestTime = time.Now()

	for id, row := range s.sessions {
		if row.updatedAt.Before(oldestTime) {
			oldestID = id
			oldestTime = row.updatedAt
		}
	}
	return oldestID
}
