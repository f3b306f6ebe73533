// Package cache provides cache-aside and stale-while-revalidate helpers
// over the edge key-value store. Every operation is best-effort: a store
// failure degrades to a miss or a false return, never to an error on the
// caller's request path.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/serroba/site-edge-go/internal/kvstore"
	"go.uber.org/zap"
)

// metaCachedAt is the metadata key carrying the write timestamp (unix
// milliseconds), used for staleness decisions.
const metaCachedAt = "cachedAt"

// populateTimeout bounds background cache writes and refreshes.
const populateTimeout = 10 * time.Second

// Options controls expiry and metadata for cache writes.
type Options struct {
	// TTL is the freshness lifetime. Zero means no expiry.
	TTL time.Duration
	// ExpiresAt is an absolute expiry; wins over TTL when set.
	ExpiresAt time.Time
	// Metadata is stored alongside the value.
	Metadata map[string]string
	// StaleWhileRevalidate extends how long GetOrFetchStale may serve an
	// entry past its TTL while a background refresh runs.
	StaleWhileRevalidate time.Duration
}

// Service is a typed cache over the key-value store.
type Service struct {
	store  kvstore.Store
	logger *zap.Logger
	now    func() time.Time
}

// New creates a cache service.
func New(store kvstore.Store, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Get reads and deserializes the value under key. Any failure — store
// error, absent key, corrupt payload — reports a miss.
func Get[T any](ctx context.Context, c *Service, key string) (T, bool) {
	var value T

	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			c.logger.Warn("cache read failed, treating as miss",
				zap.String("key", key), zap.Error(err))
		}

		return value, false
	}

	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		c.logger.Warn("cache entry corrupt, treating as miss",
			zap.String("key", key), zap.Error(err))

		var zero T

		return zero, false
	}

	return value, true
}

// Set serializes and writes the value. Returns false on any failure; cache
// writes must never break the caller's request path.
func (c *Service) Set(ctx context.Context, key string, value any, opts Options) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache value marshal failed",
			zap.String("key", key), zap.Error(err))

		return false
	}

	if err := c.store.Put(ctx, key, string(raw), c.putOptions(opts)); err != nil {
		c.logger.Warn("cache write failed",
			zap.String("key", key), zap.Error(err))

		return false
	}

	return true
}

// Delete removes a single key.
func (c *Service) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// DeleteMany removes the given keys, continuing past individual failures.
func (c *Service) DeleteMany(ctx context.Context, keys []string) error {
	var firstErr error

	for _, key := range keys {
		if err := c.store.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// DeleteByPrefix sweeps every key under the prefix, paging through the
// store until the listing is complete. Returns the number of keys deleted.
func (c *Service) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	deleted := 0
	cursor := ""

	for {
		page, err := c.store.List(ctx, kvstore.ListOptions{Prefix: prefix, Cursor: cursor})
		if err != nil {
			return deleted, err
		}

		for _, key := range page.Keys {
			if err := c.store.Delete(ctx, key); err != nil {
				return deleted, err
			}

			deleted++
		}

		if page.IsComplete {
			return deleted, nil
		}

		cursor = page.Cursor
	}
}

// Exists reports whether the key is present.
func (c *Service) Exists(ctx context.Context, key string) bool {
	_, err := c.store.Get(ctx, key)

	return err == nil
}

// GetOrFetch returns the cached value, or calls fetcher on a miss. The
// fetched value is returned immediately and written to the cache in the
// background; a cache-write failure cannot affect the returned value.
func GetOrFetch[T any](
	ctx context.Context,
	c *Service,
	key string,
	fetcher func(context.Context) (T, error),
	opts Options,
) (T, error) {
	if value, ok := Get[T](ctx, c, key); ok {
		return value, nil
	}

	value, err := fetcher(ctx)
	if err != nil {
		var zero T

		return zero, err
	}

	c.populate(ctx, key, value, opts)

	return value, nil
}

// GetOrFetchStale is GetOrFetch with stale-while-revalidate: an entry whose
// age is past TTL but within TTL+StaleWhileRevalidate is returned as-is
// while a background refresh replaces it. The response never waits on the
// refresh. Entries are stored with TTL+StaleWhileRevalidate so the stale
// body survives long enough to be served; freshness is judged from the
// cachedAt metadata, not from store expiry.
func GetOrFetchStale[T any](
	ctx context.Context,
	c *Service,
	key string,
	fetcher func(context.Context) (T, error),
	opts Options,
) (T, error) {
	value, ok := Get[T](ctx, c, key)
	if ok {
		switch c.freshness(ctx, key, opts) {
		case entryFresh:
			return value, nil
		case entryStale:
			go refreshEntry(ctx, c, key, fetcher, opts)

			return value, nil
		}
		// entryExpired falls through to a synchronous fetch.
	}

	value, err := fetcher(ctx)
	if err != nil {
		var zero T

		return zero, err
	}

	c.populate(ctx, key, value, swrOptions(opts))

	return value, nil
}

// Increment adds delta to the integer counter under key and returns the new
// value. It is a plain read-modify-write: concurrent increments can lose
// updates, so it must not be used where exact counts matter. Only an absent
// key starts the counter at zero; a failed read surfaces as an error so a
// transient outage cannot silently reset the tally.
func (c *Service) Increment(ctx context.Context, key string, delta int64, opts Options) (int64, error) {
	current := int64(0)

	raw, err := c.store.Get(ctx, key)

	switch {
	case err == nil:
		if parsed, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			current = parsed
		}
	case !errors.Is(err, kvstore.ErrNotFound):
		return 0, err
	}

	current += delta

	if err := c.store.Put(ctx, key, strconv.FormatInt(current, 10), c.putOptions(opts)); err != nil {
		return current, err
	}

	return current, nil
}

// Decrement subtracts delta from the counter under key. Same non-atomicity
// caveat as Increment.
func (c *Service) Decrement(ctx context.Context, key string, delta int64, opts Options) (int64, error) {
	return c.Increment(ctx, key, -delta, opts)
}

// GetMany reads several keys; absent or corrupt entries are simply omitted
// from the result.
func GetMany[T any](ctx context.Context, c *Service, keys []string) map[string]T {
	values := make(map[string]T, len(keys))

	for _, key := range keys {
		if value, ok := Get[T](ctx, c, key); ok {
			values[key] = value
		}
	}

	return values
}

// SetMany writes several entries with shared options. Returns false if any
// write failed.
func (c *Service) SetMany(ctx context.Context, entries map[string]any, opts Options) bool {
	ok := true

	for key, value := range entries {
		if !c.Set(ctx, key, value, opts) {
			ok = false
		}
	}

	return ok
}

// Touch re-reads and re-writes the entry purely to extend its expiry,
// preserving both content and metadata. Returns false on any failure.
func (c *Service) Touch(ctx context.Context, key string, ttl time.Duration) bool {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		return false
	}

	meta, err := c.store.GetMetadata(ctx, key)
	if err != nil {
		meta = nil
	}

	if err := c.store.Put(ctx, key, raw, kvstore.PutOptions{TTL: ttl, Metadata: meta}); err != nil {
		c.logger.Warn("cache touch failed", zap.String("key", key), zap.Error(err))

		return false
	}

	return true
}

// SetClock overrides the service's clock, for staleness tests.
func (c *Service) SetClock(now func() time.Time) {
	c.now = now
}

type entryAge int

const (
	entryFresh entryAge = iota
	entryStale
	entryExpired
)

// freshness classifies an entry by the cachedAt metadata stamp. Entries
// without a readable stamp are treated as expired.
func (c *Service) freshness(ctx context.Context, key string, opts Options) entryAge {
	meta, err := c.store.GetMetadata(ctx, key)
	if err != nil {
		return entryExpired
	}

	stamp, err := strconv.ParseInt(meta[metaCachedAt], 10, 64)
	if err != nil {
		return entryExpired
	}

	age := c.now().Sub(time.UnixMilli(stamp))

	switch {
	case opts.TTL <= 0 || age < opts.TTL:
		return entryFresh
	case age < opts.TTL+opts.StaleWhileRevalidate:
		return entryStale
	default:
		return entryExpired
	}
}

// populate writes the value in a detached goroutine so the caller's
// response is never delayed by the cache. The goroutine survives request
// cancellation but is bounded by its own timeout.
func (c *Service) populate(ctx context.Context, key string, value any, opts Options) {
	bgCtx := context.WithoutCancel(ctx)

	go func() {
		writeCtx, cancel := context.WithTimeout(bgCtx, populateTimeout)
		defer cancel()

		c.Set(writeCtx, key, value, opts)
	}()
}

// refresh re-runs the fetcher in the background and replaces the entry.
// Failures only log: the stale value already went out.
func refreshEntry[T any](
	ctx context.Context,
	c *Service,
	key string,
	fetcher func(context.Context) (T, error),
	opts Options,
) {
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), populateTimeout)
	defer cancel()

	value, err := fetcher(fetchCtx)
	if err != nil {
		c.logger.Warn("background cache refresh failed",
			zap.String("key", key), zap.Error(err))

		return
	}

	c.Set(fetchCtx, key, value, swrOptions(opts))
}

// putOptions converts cache Options into a store write, stamping cachedAt.
func (c *Service) putOptions(opts Options) kvstore.PutOptions {
	meta := make(map[string]string, len(opts.Metadata)+1)
	for k, v := range opts.Metadata {
		meta[k] = v
	}

	meta[metaCachedAt] = strconv.FormatInt(c.now().UnixMilli(), 10)

	return kvstore.PutOptions{
		TTL:       opts.TTL,
		ExpiresAt: opts.ExpiresAt,
		Metadata:  meta,
	}
}

// swrOptions extends the store expiry to cover the stale-serving grace
// period.
func swrOptions(opts Options) Options {
	if opts.TTL > 0 && opts.StaleWhileRevalidate > 0 {
		opts.TTL += opts.StaleWhileRevalidate
	}

	return opts
}
