package kvstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/site-edge-go/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*kvstore.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return kvstore.NewRedisStore(client), mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("put and get round trip", func(t *testing.T) {
		s, _ := newRedisStore(t)

		err := s.Put(ctx, "greeting", "hello", kvstore.PutOptions{})
		require.NoError(t, err)

		got, err := s.Get(ctx, "greeting")
		require.NoError(t, err)
		assert.Equal(t, "hello", got)
	})

	t.Run("get absent key returns ErrNotFound", func(t *testing.T) {
		s, _ := newRedisStore(t)

		_, err := s.Get(ctx, "missing")

		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("ttl expires the value and its metadata", func(t *testing.T) {
		s, mr := newRedisStore(t)

		err := s.Put(ctx, "entry", "v", kvstore.PutOptions{
			TTL:      time.Minute,
			Metadata: map[string]string{"cachedAt": "1"},
		})
		require.NoError(t, err)

		mr.FastForward(61 * time.Second)

		_, err = s.Get(ctx, "entry")
		assert.ErrorIs(t, err, kvstore.ErrNotFound)

		_, err = s.GetMetadata(ctx, "entry")
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("metadata readable without the value", func(t *testing.T) {
		s, _ := newRedisStore(t)

		err := s.Put(ctx, "entry", `{"big":"payload"}`, kvstore.PutOptions{
			Metadata: map[string]string{"cachedAt": "12345", "source": "ats"},
		})
		require.NoError(t, err)

		meta, err := s.GetMetadata(ctx, "entry")
		require.NoError(t, err)
		assert.Equal(t, "12345", meta["cachedAt"])
		assert.Equal(t, "ats", meta["source"])
	})

	t.Run("rewrite without metadata clears old metadata", func(t *testing.T) {
		s, _ := newRedisStore(t)

		require.NoError(t, s.Put(ctx, "entry", "v1", kvstore.PutOptions{
			Metadata: map[string]string{"cachedAt": "1"},
		}))
		require.NoError(t, s.Put(ctx, "entry", "v2", kvstore.PutOptions{}))

		meta, err := s.GetMetadata(ctx, "entry")
		require.NoError(t, err)
		assert.Empty(t, meta)
	})

	t.Run("delete removes value and metadata", func(t *testing.T) {
		s, _ := newRedisStore(t)

		require.NoError(t, s.Put(ctx, "entry", "v", kvstore.PutOptions{
			Metadata: map[string]string{"cachedAt": "1"},
		}))
		require.NoError(t, s.Delete(ctx, "entry"))

		_, err := s.Get(ctx, "entry")
		assert.ErrorIs(t, err, kvstore.ErrNotFound)

		_, err = s.GetMetadata(ctx, "entry")
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("list filters metadata keys and paginates", func(t *testing.T) {
		s, _ := newRedisStore(t)

		for _, key := range []string{"ns:a", "ns:b", "ns:c"} {
			require.NoError(t, s.Put(ctx, key, "v", kvstore.PutOptions{
				Metadata: map[string]string{"cachedAt": "1"},
			}))
		}

		var collected []string

		cursor := ""

		for {
			result, err := s.List(ctx, kvstore.ListOptions{Prefix: "ns:", Cursor: cursor, Limit: 2})
			require.NoError(t, err)

			collected = append(collected, result.Keys...)

			if result.IsComplete {
				break
			}

			cursor = result.Cursor
		}

		assert.ElementsMatch(t, []string{"ns:a", "ns:b", "ns:c"}, collected)
	})
}
