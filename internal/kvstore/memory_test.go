package kvstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/site-edge-go/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("put and get round trip", func(t *testing.T) {
		s := kvstore.NewMemoryStore()

		err := s.Put(ctx, "greeting", "hello", kvstore.PutOptions{})
		require.NoError(t, err)

		got, err := s.Get(ctx, "greeting")
		require.NoError(t, err)
		assert.Equal(t, "hello", got)
	})

	t.Run("get absent key returns ErrNotFound", func(t *testing.T) {
		s := kvstore.NewMemoryStore()

		_, err := s.Get(ctx, "missing")

		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("metadata travels with the value", func(t *testing.T) {
		s := kvstore.NewMemoryStore()

		err := s.Put(ctx, "entry", "v", kvstore.PutOptions{
			Metadata: map[string]string{"cachedAt": "12345"},
		})
		require.NoError(t, err)

		meta, err := s.GetMetadata(ctx, "entry")
		require.NoError(t, err)
		assert.Equal(t, "12345", meta["cachedAt"])
	})

	t.Run("metadata of absent key returns ErrNotFound", func(t *testing.T) {
		s := kvstore.NewMemoryStore()

		_, err := s.GetMetadata(ctx, "missing")

		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("put without metadata yields empty map", func(t *testing.T) {
		s := kvstore.NewMemoryStore()

		require.NoError(t, s.Put(ctx, "plain", "v", kvstore.PutOptions{}))

		meta, err := s.GetMetadata(ctx, "plain")
		require.NoError(t, err)
		assert.Empty(t, meta)
	})

	t.Run("entry expires after ttl", func(t *testing.T) {
		s := kvstore.NewMemoryStore()
		now := time.Now()
		s.SetClock(func() time.Time { return now })

		require.NoError(t, s.Put(ctx, "short-lived", "v", kvstore.PutOptions{TTL: time.Minute}))

		_, err := s.Get(ctx, "short-lived")
		require.NoError(t, err)

		now = now.Add(61 * time.Second)

		_, err = s.Get(ctx, "short-lived")
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("absolute expiry wins over ttl", func(t *testing.T) {
		s := kvstore.NewMemoryStore()
		now := time.Now()
		s.SetClock(func() time.Time { return now })

		require.NoError(t, s.Put(ctx, "absolute", "v", kvstore.PutOptions{
			TTL:       time.Hour,
			ExpiresAt: now.Add(time.Second),
		}))

		now = now.Add(2 * time.Second)

		_, err := s.Get(ctx, "absolute")
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := kvstore.NewMemoryStore()

		require.NoError(t, s.Put(ctx, "gone", "v", kvstore.PutOptions{}))
		require.NoError(t, s.Delete(ctx, "gone"))
		require.NoError(t, s.Delete(ctx, "gone"))

		_, err := s.Get(ctx, "gone")
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()

	t.Run("lists only matching prefix", func(t *testing.T) {
		s := kvstore.NewMemoryStore()

		require.NoError(t, s.Put(ctx, "blog:a", "1", kvstore.PutOptions{}))
		require.NoError(t, s.Put(ctx, "blog:b", "2", kvstore.PutOptions{}))
		require.NoError(t, s.Put(ctx, "jobs:a", "3", kvstore.PutOptions{}))

		result, err := s.List(ctx, kvstore.ListOptions{Prefix: "blog:"})
		require.NoError(t, err)

		assert.True(t, result.IsComplete)
		assert.ElementsMatch(t, []string{"blog:a", "blog:b"}, result.Keys)
	})

	t.Run("paginates with cursor until complete", func(t *testing.T) {
		s := kvstore.NewMemoryStore()
		s.PageSize = 2

		keys := []string{"ns:1", "ns:2", "ns:3", "ns:4", "ns:5"}
		for _, k := range keys {
			require.NoError(t, s.Put(ctx, k, "v", kvstore.PutOptions{}))
		}

		var collected []string

		cursor := ""

		for {
			result, err := s.List(ctx, kvstore.ListOptions{Prefix: "ns:", Cursor: cursor})
			require.NoError(t, err)

			collected = append(collected, result.Keys...)

			if result.IsComplete {
				break
			}

			cursor = result.Cursor
		}

		assert.ElementsMatch(t, keys, collected)
	})

	t.Run("expired entries are not listed", func(t *testing.T) {
		s := kvstore.NewMemoryStore()
		now := time.Now()
		s.SetClock(func() time.Time { return now })

		require.NoError(t, s.Put(ctx, "ns:live", "v", kvstore.PutOptions{}))
		require.NoError(t, s.Put(ctx, "ns:dead", "v", kvstore.PutOptions{TTL: time.Second}))

		now = now.Add(2 * time.Second)

		result, err := s.List(ctx, kvstore.ListOptions{Prefix: "ns:"})
		require.NoError(t, err)

		assert.Equal(t, []string{"ns:live"}, result.Keys)
	})
}
