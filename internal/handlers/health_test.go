package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(_ context.Context) error { return f.err }

func TestHealthHandler_Check(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		handler := NewHealthHandler(fakePinger{}, fakePinger{})

		resp, err := handler.Check(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Body.Status)
		assert.Equal(t, "healthy", resp.Body.Redis)
		assert.Equal(t, "healthy", resp.Body.Postgres)
	})

	t.Run("redis down degrades without failing", func(t *testing.T) {
		handler := NewHealthHandler(fakePinger{err: errors.New("refused")}, fakePinger{})

		resp, err := handler.Check(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "degraded", resp.Body.Status)
		assert.Equal(t, "unhealthy", resp.Body.Redis)
		assert.Equal(t, "healthy", resp.Body.Postgres)
	})

	t.Run("postgres down degrades without failing", func(t *testing.T) {
		handler := NewHealthHandler(fakePinger{}, fakePinger{err: errors.New("refused")})

		resp, err := handler.Check(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "degraded", resp.Body.Status)
		assert.Equal(t, "unhealthy", resp.Body.Postgres)
	})
}
