package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/serroba/site-edge-go/internal/events"
	"github.com/serroba/site-edge-go/internal/site"
	"github.com/serroba/site-edge-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLeadFixture(repo site.Repository) (*LeadHandler, *[]events.LeadCapturedEvent) {
	published := &[]events.LeadCapturedEvent{}
	publish := func(event *events.LeadCapturedEvent) error {
		*published = append(*published, *event)

		return nil
	}

	handler := NewLeadHandler(repo, func() string { return "ref12345" }, publish, zap.NewNop())

	return handler, published
}

func leadRequest() *CreateLeadRequest {
	req := &CreateLeadRequest{}
	req.Body.Name = "Dana Reyes"
	req.Body.Email = "dana@example.com"
	req.Body.Company = "Acme"
	req.Body.Message = "Interested in the enterprise plan."
	req.Body.SourcePage = "/pricing"

	return req
}

func TestLeadHandler_CreateLead(t *testing.T) {
	repo := store.NewMemoryStore()
	handler, published := newLeadFixture(repo)

	ctx := ContextWithRequestMeta(context.Background(), RequestMeta{
		ClientIP:  "203.0.113.7",
		UserAgent: "Mozilla/5.0",
	})

	resp, err := handler.CreateLead(ctx, leadRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "ref12345", resp.Body.RefCode)

	saved, ok := repo.Lead("ref12345")
	require.True(t, ok)
	assert.Equal(t, "dana@example.com", saved.Email)
	assert.Equal(t, "203.0.113.7", saved.ClientIP)
	assert.Equal(t, "/pricing", saved.SourcePage)

	require.Len(t, *published, 1)
	assert.Equal(t, "ref12345", (*published)[0].RefCode)
	assert.NotEmpty(t, (*published)[0].EventID)
}

func TestLeadHandler_SourcePageFallsBackToReferrer(t *testing.T) {
	repo := store.NewMemoryStore()
	handler, _ := newLeadFixture(repo)

	ctx := ContextWithRequestMeta(context.Background(), RequestMeta{
		Referrer: "https://example.com/features",
	})

	req := leadRequest()
	req.Body.SourcePage = ""

	_, err := handler.CreateLead(ctx, req)
	require.NoError(t, err)

	saved, ok := repo.Lead("ref12345")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/features", saved.SourcePage)
}

func TestLeadHandler_SaveFailureIs500(t *testing.T) {
	repo := store.NewMemoryStore()
	repo.FailWith(errors.New("connection refused"))
	handler, published := newLeadFixture(repo)

	_, err := handler.CreateLead(context.Background(), leadRequest())
	require.Error(t, err)
	assert.Equal(t, 500, statusOf(t, err))
	assert.Empty(t, *published)
}

func TestLeadHandler_PublishFailureStillSucceeds(t *testing.T) {
	repo := store.NewMemoryStore()
	publish := func(_ *events.LeadCapturedEvent) error {
		return errors.New("broker down")
	}
	handler := NewLeadHandler(repo, func() string { return "ref12345" }, publish, zap.NewNop())

	resp, err := handler.CreateLead(context.Background(), leadRequest())
	require.NoError(t, err)
	assert.Equal(t, "ref12345", resp.Body.RefCode)

	_, ok := repo.Lead("ref12345")
	assert.True(t, ok)
}
