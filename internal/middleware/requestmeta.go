package middleware

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/site-edge-go/internal/handlers"
)

// RequestMeta adds client IP, user agent, and referrer to the request
// context for lead attribution. The IP uses the same header precedence as
// the rate limiter so both layers see the same client.
func RequestMeta(_ huma.API) Middleware {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:  ClientIdentifier(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}
