package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/site-edge-go/internal/handlers"
	"github.com/serroba/site-edge-go/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSessions struct {
	email string
	err   error
	seen  []string
}

func (f *fakeSessions) ValidateSession(_ context.Context, token string) (string, error) {
	f.seen = append(f.seen, token)

	if f.err != nil {
		return "", f.err
	}

	return f.email, nil
}

func sessionRequest(mw middleware.Middleware, authorization string, next func(huma.Context)) *mockHumaContext {
	ctx := newMockHumaContext()
	if authorization != "" {
		ctx.reqHeaders["Authorization"] = authorization
	}

	if next == nil {
		next = func(huma.Context) {}
	}

	mw(ctx, next)

	return ctx
}

func TestRequireSession(t *testing.T) {
	t.Run("valid bearer token reaches the handler", func(t *testing.T) {
		sessions := &fakeSessions{email: "admin@example.com"}
		mw := middleware.RequireSession(sessions, zap.NewNop())

		nextCalled := false

		ctx := sessionRequest(mw, "Bearer session-token", func(huma.Context) { nextCalled = true })

		assert.True(t, nextCalled)
		assert.Equal(t, []string{"session-token"}, sessions.seen)
		assert.Empty(t, ctx.written)
	})

	t.Run("missing header is 401 without touching the handler", func(t *testing.T) {
		sessions := &fakeSessions{email: "admin@example.com"}
		mw := middleware.RequireSession(sessions, zap.NewNop())

		nextCalled := false

		ctx := sessionRequest(mw, "", func(huma.Context) { nextCalled = true })

		assert.False(t, nextCalled)
		assert.Equal(t, http.StatusUnauthorized, ctx.statusCode)
		assert.Equal(t, "Bearer", ctx.respHeaders["WWW-Authenticate"])
		assert.Empty(t, sessions.seen, "no token, no validation call")
	})

	t.Run("non-bearer scheme is 401", func(t *testing.T) {
		sessions := &fakeSessions{email: "admin@example.com"}
		mw := middleware.RequireSession(sessions, zap.NewNop())

		ctx := sessionRequest(mw, "Basic dXNlcjpwYXNz", nil)

		assert.Equal(t, http.StatusUnauthorized, ctx.statusCode)
		assert.Empty(t, sessions.seen)
	})

	t.Run("unknown or expired token is 401 with a structured body", func(t *testing.T) {
		sessions := &fakeSessions{err: handlers.ErrInvalidCredentials}
		mw := middleware.RequireSession(sessions, zap.NewNop())

		nextCalled := false

		ctx := sessionRequest(mw, "Bearer nope", func(huma.Context) { nextCalled = true })

		assert.False(t, nextCalled)
		assert.Equal(t, http.StatusUnauthorized, ctx.statusCode)

		var body struct {
			Success bool   `json:"success"`
			Code    string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(ctx.written, &body))
		assert.False(t, body.Success)
		assert.Equal(t, "UNAUTHORIZED", body.Code)
	})

	t.Run("store failure fails closed", func(t *testing.T) {
		sessions := &fakeSessions{err: errStoreDown}
		mw := middleware.RequireSession(sessions, zap.NewNop())

		nextCalled := false

		ctx := sessionRequest(mw, "Bearer session-token", func(huma.Context) { nextCalled = true })

		assert.False(t, nextCalled, "an outage must not admit an admin write")
		assert.Equal(t, http.StatusUnauthorized, ctx.statusCode)
	})
}
