package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/site-edge-go/internal/ratelimit"
	"go.uber.org/zap"
)

// Middleware is the huma middleware shape. Limiters compose: several named
// policies can stack on one route, each with its own counter namespace.
type Middleware = func(ctx huma.Context, next func(huma.Context))

// DenyHandler overrides the default 429 response construction. It runs
// after the rate-limit headers are set.
type DenyHandler func(ctx huma.Context, retryAfter time.Duration)

// rateLimitedBody is the structured 429 response. It carries no internal
// detail beyond the policy message and the wait time.
type rateLimitedBody struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int64  `json:"retryAfter"`
}

// RateLimit returns a middleware enforcing the limiter's policy per client.
// The client identifier comes from the edge headers (see ClientIdentifier);
// counters live in the shared store, so all edge instances see roughly the
// same counts. Store failures fail open inside the limiter: this middleware
// never turns store downtime into a 5xx.
func RateLimit(limiter *ratelimit.Limiter, logger *zap.Logger, deny DenyHandler) Middleware {
	policy := limiter.Policy()

	return func(ctx huma.Context, next func(huma.Context)) {
		client := ClientIdentifier(ctx)

		decision := limiter.Check(ctx.Context(), client)

		ctx.SetHeader("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))

		if !decision.Allowed {
			logger.Warn("rate limit exceeded",
				zap.String("policy", policy.Type),
				zap.String("client", client),
				zap.Int64("limit", decision.Limit),
				zap.Duration("retry_after", decision.RetryAfter),
			)

			retryAfter := ceilSeconds(decision.RetryAfter)

			ctx.SetHeader("X-RateLimit-Remaining", "0")
			ctx.SetHeader("Retry-After", strconv.FormatInt(retryAfter, 10))

			if deny != nil {
				deny(ctx, decision.RetryAfter)

				return
			}

			writeRateLimited(ctx, policy.Message, retryAfter)

			return
		}

		ctx.SetHeader("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		ctx.SetHeader("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.UnixMilli(), 10))

		next(ctx)

		// Refund non-error outcomes so only failures burn the budget.
		// A handler error suppresses the refund by leaving status >= 400.
		if policy.SkipSuccessfulRequests && ctx.Status() < http.StatusBadRequest {
			limiter.Refund(ctx.Context(), client)
		}
	}
}

// ClientIdentifier derives the rate-limit client identity from the edge
// headers, first present wins: CF-Connecting-IP, then the first hop of
// X-Forwarded-For, then X-Real-IP, then the literal "unknown". The
// deployment model assumes a trusted edge network sets CF-Connecting-IP;
// behind untrusted proxies the remaining headers are spoofable, which is an
// accepted trade-off.
func ClientIdentifier(ctx huma.Context) string {
	if ip := ctx.Header("CF-Connecting-IP"); ip != "" {
		return ip
	}

	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if ip := ctx.Header("X-Real-IP"); ip != "" {
		return ip
	}

	return "unknown"
}

func writeRateLimited(ctx huma.Context, message string, retryAfter int64) {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetStatus(http.StatusTooManyRequests)

	_ = json.NewEncoder(ctx.BodyWriter()).Encode(rateLimitedBody{
		Success:    false,
		Error:      message,
		Code:       "RATE_LIMIT_EXCEEDED",
		RetryAfter: retryAfter,
	})
}

// ceilSeconds rounds a wait up to whole seconds, never below one: a client
// told to retry after zero seconds would immediately be denied again.
func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 1
	}

	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}

	return secs
}
