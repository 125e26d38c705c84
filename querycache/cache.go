// Package querycache caches server resources keyed by (resource, user id,
// params) with TTL staleness and imperative prefix invalidation. Mutations
// that change a user's resume invalidate every resource prefix derived from
// it rather than merely marking entries stale.
package querycache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/careercompass/compass-client/internal/errors"
)

// Key identifies one cached query result.
type Key struct {
	// Resource is the logical resource name, e.g. "recommendations".
	Resource string
	// UserID scopes the entry to one user.
	UserID int
	// Params is the canonical encoding of optional filter parameters.
	Params string
}

// String renders the storage key. Prefix(resource, user) is a prefix of
// every key for that resource and user, which is what bulk invalidation
// relies on.
func (k Key) String() string {
	return Prefix(k.Resource, k.UserID) + k.Params
}

// Prefix is the cache-key namespace for one resource and user.
func Prefix(resource string, userID int) string {
	return fmt.Sprintf("%s:%d:", resource, userID)
}

// Store is the cache contract. Implementations return ErrCacheMiss for
// absent or stale entries.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error
	// InvalidatePrefix removes every entry under Prefix(resource, userID).
	InvalidatePrefix(ctx context.Context, resource string, userID int) error
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is the default in-process cache.
type MemoryStore struct {
	lock    sync.RWMutex
	entries map[string]memoryEntry
	nowTime func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) MemoryOption {
	return func(ms *MemoryStore) {
		ms.nowTime = nowFunc
	}
}

func NewMemoryStore(options ...MemoryOption) *MemoryStore {
	ms := &MemoryStore{
		entries: make(map[string]memoryEntry),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(ms)
	}
	return ms
}

func (ms *MemoryStore) Get(_ context.Context, key Key) ([]byte, error) {
	ms.lock.RLock()
	entry, ok := ms.entries[key.String()]
	ms.lock.RUnlock()

	if !ok {
		return nil, errors.ErrCacheMiss
	}
	if ms.nowTime().After(entry.expiresAt) {
		ms.lock.Lock()
		delete(ms.entries, key.String())
		ms.lock.Unlock()
		return nil, errors.ErrCacheMiss
	}
	return entry.value, nil
}

func (ms *MemoryStore) Set(_ context.Context, key Key, value []byte, ttl time.Duration) error {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	ms.entries[key.String()] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: ms.nowTime().Add(ttl),
	}
	return nil
}

func (ms *MemoryStore) InvalidatePrefix(_ context.Context, resource string, userID int) error {
	prefix := Prefix(resource, userID)

	ms.lock.Lock()
	defer ms.lock.Unlock()
	for key := range ms.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(ms.entries, key)
		}
	}
	return nil
}
