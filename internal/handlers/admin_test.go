package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/site-edge-go/internal/events"
	"github.com/serroba/site-edge-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuth struct {
	token       string
	authErr     error
	setupErr    error
	setupCalled bool
}

func (f *fakeAuth) Authenticate(_ context.Context, _, _ string) (string, error) {
	if f.authErr != nil {
		return "", f.authErr
	}

	return f.token, nil
}

func (f *fakeAuth) Setup(_ context.Context, _, _ string) error {
	f.setupCalled = true

	return f.setupErr
}

func loginRequest() *LoginRequest {
	req := &LoginRequest{}
	req.Body.Email = "admin@example.com"
	req.Body.Password = "hunter2hunter2"

	return req
}

func TestAdminHandler_Login(t *testing.T) {
	t.Run("valid credentials return a token", func(t *testing.T) {
		auth := &fakeAuth{token: "session-token"}
		handler := NewAdminHandler(auth, store.NewMemoryStore(), nil, zap.NewNop())

		resp, err := handler.Login(context.Background(), loginRequest())
		require.NoError(t, err)
		assert.Equal(t, "session-token", resp.Body.Token)
	})

	t.Run("bad credentials map to 401", func(t *testing.T) {
		auth := &fakeAuth{authErr: ErrInvalidCredentials}
		handler := NewAdminHandler(auth, store.NewMemoryStore(), nil, zap.NewNop())

		_, err := handler.Login(context.Background(), loginRequest())
		require.Error(t, err)
		assert.Equal(t, 401, statusOf(t, err))
	})

	t.Run("backend failure maps to 500", func(t *testing.T) {
		auth := &fakeAuth{authErr: errors.New("session store down")}
		handler := NewAdminHandler(auth, store.NewMemoryStore(), nil, zap.NewNop())

		_, err := handler.Login(context.Background(), loginRequest())
		require.Error(t, err)
		assert.Equal(t, 500, statusOf(t, err))
	})
}

func TestAdminHandler_Setup(t *testing.T) {
	setupRequest := func() *SetupRequest {
		req := &SetupRequest{}
		req.Body.Email = "admin@example.com"
		req.Body.Password = "hunter2hunter2"

		return req
	}

	t.Run("first run provisions", func(t *testing.T) {
		auth := &fakeAuth{}
		handler := NewAdminHandler(auth, store.NewMemoryStore(), nil, zap.NewNop())

		_, err := handler.Setup(context.Background(), setupRequest())
		require.NoError(t, err)
		assert.True(t, auth.setupCalled)
	})

	t.Run("second run maps to 409", func(t *testing.T) {
		auth := &fakeAuth{setupErr: ErrAlreadyProvisioned}
		handler := NewAdminHandler(auth, store.NewMemoryStore(), nil, zap.NewNop())

		_, err := handler.Setup(context.Background(), setupRequest())
		require.Error(t, err)
		assert.Equal(t, 409, statusOf(t, err))
	})
}

func TestAdminHandler_UpdateSection(t *testing.T) {
	repo := store.NewMemoryStore()

	var published []events.ContentUpdatedEvent
	publish := func(event *events.ContentUpdatedEvent) error {
		published = append(published, *event)

		return nil
	}

	handler := NewAdminHandler(&fakeAuth{}, repo, publish, zap.NewNop())

	req := &UpdateSectionRequest{Section: "hero"}
	req.Body.Content = `{"headline":"Ship faster"}`

	resp, err := handler.UpdateSection(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "hero", resp.Body.Section)

	saved, err := repo.GetSection(context.Background(), "hero")
	require.NoError(t, err)
	assert.Equal(t, `{"headline":"Ship faster"}`, saved.Body)

	require.Len(t, published, 1)
	assert.Equal(t, "hero", published[0].Section)
}

func TestAdminHandler_UpdateSectionPublishFailureStillSucceeds(t *testing.T) {
	repo := store.NewMemoryStore()
	publish := func(_ *events.ContentUpdatedEvent) error {
		return errors.New("broker down")
	}
	handler := NewAdminHandler(&fakeAuth{}, repo, publish, zap.NewNop())

	req := &UpdateSectionRequest{Section: "hero"}
	req.Body.Content = "updated"

	_, err := handler.UpdateSection(context.Background(), req)
	require.NoError(t, err)

	saved, err := repo.GetSection(context.Background(), "hero")
	require.NoError(t, err)
	assert.Equal(t, "updated", saved.Body)
}
