package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/serroba/site-edge-go/internal/kvstore"
	"go.uber.org/zap"
)

const keyPrefix = "ratelimit:"

// Counter is the per-client window state kept in the key-value store.
type Counter struct {
	Count        int64 `json:"count"`
	FirstRequest int64 `json:"firstRequest"` // unix milliseconds
}

// Policy configures a limiter instance.
type Policy struct {
	// Type namespaces the storage key so independent policies applied to
	// the same client never share counters.
	Type string
	// Window is the rolling window length.
	Window time.Duration
	// Max is the number of requests allowed per window per client.
	Max int64
	// Message is returned to the caller when denied.
	Message string
	// SkipSuccessfulRequests refunds requests whose downstream response
	// status is below 400, so only failed attempts burn the budget.
	SkipSuccessfulRequests bool
}

// Decision is the outcome of a limit check for one request.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	// Reset is when the current window ends.
	Reset time.Time
	// RetryAfter is how long the client must wait. Set only on deny.
	RetryAfter time.Duration
}

// Limiter counts requests per (policy type, client) pair in fixed windows
// over an eventually-consistent store. Counting is approximate: two
// concurrent requests may both read the same counter and both pass, so the
// limit can transiently overshoot by a small margin. Every store failure is
// absorbed as fail-open — the limiter never makes the service unavailable.
type Limiter struct {
	store  kvstore.Store
	policy Policy
	logger *zap.Logger
	now    func() time.Time
}

// New creates a limiter for the given policy. Non-positive Max or Window
// values are replaced by the API preset fallbacks so a misconfigured policy
// can never disable limiting or produce a zero-sized window.
func New(store kvstore.Store, policy Policy, logger *zap.Logger) *Limiter {
	if policy.Max <= 0 {
		logger.Warn("rate limit policy has invalid max, using fallback",
			zap.String("type", policy.Type), zap.Int64("max", policy.Max))

		policy.Max = fallbackAPIMax
	}

	if policy.Window <= 0 {
		logger.Warn("rate limit policy has invalid window, using fallback",
			zap.String("type", policy.Type), zap.Duration("window", policy.Window))

		policy.Window = fallbackAPIWindow
	}

	return &Limiter{
		store:  store,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// Policy returns the limiter's effective policy.
func (l *Limiter) Policy() Policy {
	return l.policy
}

// Check records one request from the client and decides allow or deny.
// It never returns an error: an unreachable store degrades to allowing the
// request and skipping the bookkeeping.
func (l *Limiter) Check(ctx context.Context, clientID string) Decision {
	now := l.now()
	key := l.key(clientID)

	counter, found := l.read(ctx, key)

	windowStart := time.UnixMilli(counter.FirstRequest)
	if !found || now.Sub(windowStart) >= l.policy.Window {
		// Fresh window: either first sighting or the previous window ran out.
		counter = Counter{Count: 0, FirstRequest: now.UnixMilli()}
		windowStart = now
	}

	reset := windowStart.Add(l.policy.Window)
	newCount := counter.Count + 1

	if newCount > l.policy.Max {
		return Decision{
			Allowed:    false,
			Limit:      l.policy.Max,
			Remaining:  0,
			Reset:      reset,
			RetryAfter: reset.Sub(now),
		}
	}

	counter.Count = newCount
	l.write(ctx, key, counter)

	remaining := l.policy.Max - newCount
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   true,
		Limit:     l.policy.Max,
		Remaining: remaining,
		Reset:     reset,
	}
}

// Refund decrements the client's counter by one, clamped at zero. Used by
// SkipSuccessfulRequests to give back a slot after a non-error response.
// Best-effort: a failed read or write only logs.
func (l *Limiter) Refund(ctx context.Context, clientID string) {
	now := l.now()
	key := l.key(clientID)

	counter, found := l.read(ctx, key)
	if !found {
		return
	}

	if now.Sub(time.UnixMilli(counter.FirstRequest)) >= l.policy.Window {
		// Window already rolled over; nothing to give back.
		return
	}

	if counter.Count > 0 {
		counter.Count--
	}

	l.write(ctx, key, counter)
}

func (l *Limiter) key(clientID string) string {
	return keyPrefix + l.policy.Type + ":" + clientID
}

// read loads the counter for key. Store errors and corrupt records are both
// treated as "no record" per the fail-open contract.
func (l *Limiter) read(ctx context.Context, key string) (Counter, bool) {
	raw, err := l.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			l.logger.Warn("rate limit read failed, failing open",
				zap.String("key", key), zap.Error(err))
		}

		return Counter{}, false
	}

	var counter Counter
	if err := json.Unmarshal([]byte(raw), &counter); err != nil {
		l.logger.Warn("rate limit record corrupt, failing open",
			zap.String("key", key), zap.Error(err))

		return Counter{}, false
	}

	if counter.Count < 0 {
		counter.Count = 0
	}

	return counter, true
}

// write stores the counter with a TTL of one window, rounded up to whole
// seconds. The store's own expiry garbage-collects abandoned counters; the
// limiter never deletes them explicitly. Write failures only log.
func (l *Limiter) write(ctx context.Context, key string, counter Counter) {
	raw, err := json.Marshal(counter)
	if err != nil {
		l.logger.Warn("rate limit record marshal failed",
			zap.String("key", key), zap.Error(err))

		return
	}

	ttl := ceilSeconds(l.policy.Window)

	if err := l.store.Put(ctx, key, string(raw), kvstore.PutOptions{TTL: ttl}); err != nil {
		l.logger.Warn("rate limit write failed, failing open",
			zap.String("key", key), zap.Error(err))
	}
}

// SetClock overrides the limiter's clock, for window tests.
func (l *Limiter) SetClock(now func() time.Time) {
	l.now = now
}

func ceilSeconds(d time.Duration) time.Duration {
	secs := (d + time.Second - 1) / time.Second

	return secs * time.Second
}
