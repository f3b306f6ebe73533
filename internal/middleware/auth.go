package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/site-edge-go/internal/handlers"
	"go.uber.org/zap"
)

// SessionValidator checks a session token and returns the account it was
// issued to.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (string, error)
}

// unauthorizedBody is the structured 401 response.
type unauthorizedBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// RequireSession returns a middleware that admits only requests carrying a
// valid Bearer session token. Unlike the rate limiter this fails closed: a
// store failure during validation denies the request, because an admin
// write must never slip through on an outage.
func RequireSession(sessions SessionValidator, logger *zap.Logger) Middleware {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := bearerToken(ctx.Header("Authorization"))
		if token == "" {
			writeUnauthorized(ctx, "missing session token")

			return
		}

		if _, err := sessions.ValidateSession(ctx.Context(), token); err != nil {
			if !errors.Is(err, handlers.ErrInvalidCredentials) {
				logger.Error("session validation failed", zap.Error(err))
			}

			writeUnauthorized(ctx, "invalid or expired session")

			return
		}

		next(ctx)
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header; anything else yields the empty string.
func bearerToken(header string) string {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

func writeUnauthorized(ctx huma.Context, message string) {
	ctx.SetHeader("WWW-Authenticate", "Bearer")
	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetStatus(http.StatusUnauthorized)

	_ = json.NewEncoder(ctx.BodyWriter()).Encode(unauthorizedBody{
		Success: false,
		Error:   message,
		Code:    "UNAUTHORIZED",
	})
}
