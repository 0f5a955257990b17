// Package reporter assigns anonymous reporter identities and detects
// back-to-back resubmission of the same issue.
package reporter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IdentityKey is the fixed name the reporter token is stored under.
const IdentityKey = "nairobify_reporter_id"

// IdentityStore is a durable per-device key/value slot.
// Get returns "" with a nil error when the key is absent.
type IdentityStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// NewID generates reporter tokens. Replaced in tests.
var NewID = func() string { return uuid.NewString() }

// GetOrCreateReporterID returns the token stored on this device, creating and
// persisting a fresh one on first use.
func GetOrCreateReporterID(ctx context.Context, store IdentityStore) (string, error) {
	id, err := store.Get(ctx, IdentityKey)
	if err != nil {
		return "", fmt.Errorf("read reporter id: %w", err)
	}
	if id != "" {
		return id, nil
	}

	id = NewID()
	if err := store.Set(ctx, IdentityKey, id); err != nil {
		return "", fmt.Errorf("persist reporter id: %w", err)
	}
	return id, nil
}

// MemoryIdentityStore keeps values in process memory.
type MemoryIdentityStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{values: make(map[string]string)}
}

func (s *MemoryIdentityStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *MemoryIdentityStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
