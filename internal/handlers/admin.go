package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/serroba/site-edge-go/internal/events"
	"github.com/serroba/site-edge-go/internal/messaging"
	"github.com/serroba/site-edge-go/internal/site"
	"go.uber.org/zap"
)

// AdminHandler handles authenticated CMS operations.
type AdminHandler struct {
	auth           AuthService
	repo           site.Repository
	publishUpdated messaging.Publish[events.ContentUpdatedEvent]
	logger         *zap.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(
	auth AuthService,
	repo site.Repository,
	publishUpdated messaging.Publish[events.ContentUpdatedEvent],
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		auth:           auth,
		repo:           repo,
		publishUpdated: publishUpdated,
		logger:         logger,
	}
}

// Login exchanges credentials for a session token. A 401 here feeds the
// login rate-limit policy: only failed attempts burn the budget.
func (h *AdminHandler) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	token, err := h.auth.Authenticate(ctx, req.Body.Email, req.Body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, huma.Error401Unauthorized("invalid credentials")
		}

		h.logger.Error("login failed", zap.Error(err))

		return nil, huma.Error500InternalServerError("login unavailable")
	}

	resp := &LoginResponse{}
	resp.Body.Token = token

	return resp, nil
}

// Setup provisions the first admin account.
func (h *AdminHandler) Setup(ctx context.Context, req *SetupRequest) (*struct{}, error) {
	if err := h.auth.Setup(ctx, req.Body.Email, req.Body.Password); err != nil {
		if errors.Is(err, ErrAlreadyProvisioned) {
			return nil, huma.Error409Conflict("setup already completed")
		}

		h.logger.Error("setup failed", zap.Error(err))

		return nil, huma.Error500InternalServerError("setup unavailable")
	}

	return nil, nil
}

// UpdateSection replaces a content section and announces the change so
// consumers can sweep the affected cache namespaces.
func (h *AdminHandler) UpdateSection(ctx context.Context, req *UpdateSectionRequest) (*UpdateSectionResponse, error) {
	content := &site.ContentSection{
		Section:   req.Section,
		Body:      req.Body.Content,
		UpdatedAt: time.Now(),
	}

	if err := h.repo.UpsertSection(ctx, content); err != nil {
		h.logger.Error("section update failed",
			zap.String("section", req.Section), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to update section")
	}

	event := &events.ContentUpdatedEvent{
		EventID:   uuid.NewString(),
		Section:   content.Section,
		UpdatedAt: content.UpdatedAt,
	}

	if err := h.publishUpdated(event); err != nil {
		// The write landed; stale cache entries age out via TTL anyway.
		h.logger.Error("content event publish failed",
			zap.String("section", content.Section), zap.Error(err))
	}

	return &UpdateSectionResponse{Body: *content}, nil
}
