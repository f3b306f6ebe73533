package kvstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	metadata  map[string]string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore is an in-memory implementation of Store, used in tests and
// local development. Unlike the real store it is strongly consistent, so it
// exercises the algorithms but not their race tolerance.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	// PageSize caps List pages. Defaults to defaultPageSize.
	PageSize int

	now func() time.Time
}

// NewMemoryStore creates a new in-memory key-value store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.expired(s.now()) {
		delete(s.entries, key)

		return "", ErrNotFound
	}

	return entry.value, nil
}

func (s *MemoryStore) GetMetadata(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.expired(s.now()) {
		delete(s.entries, key)

		return nil, ErrNotFound
	}

	meta := make(map[string]string, len(entry.metadata))
	for k, v := range entry.metadata {
		meta[k] = v
	}

	return meta, nil
}

func (s *MemoryStore) Put(_ context.Context, key, value string, opts PutOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{value: value}

	if len(opts.Metadata) > 0 {
		entry.metadata = make(map[string]string, len(opts.Metadata))
		for k, v := range opts.Metadata {
			entry.metadata[k] = v
		}
	}

	switch {
	case !opts.ExpiresAt.IsZero():
		entry.expiresAt = opts.ExpiresAt
	case opts.TTL > 0:
		entry.expiresAt = s.now().Add(opts.TTL)
	}

	s.entries[key] = entry

	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)

	return nil
}

func (s *MemoryStore) List(_ context.Context, opts ListOptions) (ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	matched := make([]string, 0)

	for key, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, key)

			continue
		}

		if strings.HasPrefix(key, opts.Prefix) {
			matched = append(matched, key)
		}
	}

	sort.Strings(matched)

	// Cursor is the last key of the previous page; resume strictly after it.
	if opts.Cursor != "" {
		idx := sort.SearchStrings(matched, opts.Cursor)
		if idx < len(matched) && matched[idx] == opts.Cursor {
			idx++
		}

		matched = matched[idx:]
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.PageSize
	}

	if limit <= 0 {
		limit = defaultPageSize
	}

	result := ListResult{IsComplete: true}

	if len(matched) > limit {
		matched = matched[:limit]
		result.IsComplete = false
		result.Cursor = matched[len(matched)-1]
	}

	result.Keys = matched

	return result, nil
}

// SetClock overrides the store's clock, for expiry tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = now
}

// Compile-time check.
var _ Store = (*MemoryStore)(nil)
