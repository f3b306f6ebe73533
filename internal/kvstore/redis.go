package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// metaSuffix marks the sibling key that carries entry metadata. The
	// key builder in internal/cache strips '#' from segments, so a data
	// key can never collide with a metadata key.
	metaSuffix = "#meta"

	defaultPageSize = 100
)

// RedisStore is a Redis implementation of Store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed key-value store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}

		return "", err
	}

	return value, nil
}

func (s *RedisStore) GetMetadata(ctx context.Context, key string) (map[string]string, error) {
	raw, err := s.client.Get(ctx, key+metaSuffix).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return nil, err
		}

		// No metadata entry; distinguish "key absent" from "no metadata".
		exists, err := s.client.Exists(ctx, key).Result()
		if err != nil {
			return nil, err
		}

		if exists == 0 {
			return nil, ErrNotFound
		}

		return map[string]string{}, nil
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, err
	}

	return meta, nil
}

func (s *RedisStore) Put(ctx context.Context, key, value string, opts PutOptions) error {
	ttl := expiry(opts)

	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, value, ttl)

	// Metadata travels with the value: replaced on every write, same expiry.
	if len(opts.Metadata) > 0 {
		raw, err := json.Marshal(opts.Metadata)
		if err != nil {
			return err
		}

		pipe.Set(ctx, key+metaSuffix, string(raw), ttl)
	} else {
		pipe.Del(ctx, key+metaSuffix)
	}

	_, err := pipe.Exec(ctx)

	return err
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key, key+metaSuffix).Err()
}

func (s *RedisStore) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	cursor := uint64(0)

	if opts.Cursor != "" {
		parsed, err := strconv.ParseUint(opts.Cursor, 10, 64)
		if err != nil {
			return ListResult{}, err
		}

		cursor = parsed
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	keys, next, err := s.client.Scan(ctx, cursor, opts.Prefix+"*", int64(limit)).Result()
	if err != nil {
		return ListResult{}, err
	}

	result := ListResult{
		Keys:       make([]string, 0, len(keys)),
		IsComplete: next == 0,
	}

	for _, key := range keys {
		if strings.HasSuffix(key, metaSuffix) {
			continue
		}

		result.Keys = append(result.Keys, key)
	}

	if !result.IsComplete {
		result.Cursor = strconv.FormatUint(next, 10)
	}

	return result, nil
}

// expiry resolves PutOptions into a relative TTL. ExpiresAt takes
// precedence over TTL; an ExpiresAt in the past degrades to one second so
// the write still lands and promptly expires.
func expiry(opts PutOptions) time.Duration {
	if !opts.ExpiresAt.IsZero() {
		ttl := time.Until(opts.ExpiresAt)
		if ttl <= 0 {
			return time.Second
		}

		return ttl
	}

	return opts.TTL
}

// Compile-time check.
var _ Store = (*RedisStore)(nil)
