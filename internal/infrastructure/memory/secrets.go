// Package memory provides in-process implementations of the storage seams.
// It is the default driver in development and the backend for most tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/notespace-api/internal/secret"
)

// SecretStore is a map-backed secret.Store. Safe for concurrent use.
type SecretStore struct {
	mu      sync.RWMutex
	records map[string]secret.Record
}

func NewSecretStore() *SecretStore {
	return &SecretStore{records: make(map[string]secret.Record)}
}

func (s *SecretStore) Put(_ context.Context, key string, value []byte, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.records[key] = secret.Record{Key: key, Value: v, ExpiresAt: expiresAt}
	return nil
}

func (s *SecretStore) Get(_ context.Context, key string) (secret.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[key]
	return r, ok, nil
}

func (s *SecretStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *SecretStore) SweepExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, r := range s.records {
		if r.ExpiresAt.Before(now) {
			delete(s.records, k)
			removed++
		}
	}
	return removed, nil
}

func (s *SecretStore) List(_ context.Context) ([]secret.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]secret.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}
