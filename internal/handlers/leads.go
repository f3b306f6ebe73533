package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/serroba/site-edge-go/internal/events"
	"github.com/serroba/site-edge-go/internal/messaging"
	"github.com/serroba/site-edge-go/internal/site"
	"go.uber.org/zap"
)

// LeadHandler captures sales contacts from the public lead form.
type LeadHandler struct {
	repo        site.Repository
	newRefCode  func() string
	publishLead messaging.Publish[events.LeadCapturedEvent]
	logger      *zap.Logger
}

// NewLeadHandler creates a lead handler. newRefCode generates the public
// reference code handed back to the visitor.
func NewLeadHandler(
	repo site.Repository,
	newRefCode func() string,
	publishLead messaging.Publish[events.LeadCapturedEvent],
	logger *zap.Logger,
) *LeadHandler {
	return &LeadHandler{
		repo:        repo,
		newRefCode:  newRefCode,
		publishLead: publishLead,
		logger:      logger,
	}
}

// CreateLead persists the submission and announces it. The event publish is
// best-effort: a broker outage must not lose the lead or fail the request.
func (h *LeadHandler) CreateLead(ctx context.Context, req *CreateLeadRequest) (*CreateLeadResponse, error) {
	meta := RequestMetaFromContext(ctx)

	lead := &site.Lead{
		RefCode:    h.newRefCode(),
		Name:       req.Body.Name,
		Email:      req.Body.Email,
		Company:    req.Body.Company,
		Message:    req.Body.Message,
		SourcePage: req.Body.SourcePage,
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		CreatedAt:  time.Now(),
	}

	if lead.SourcePage == "" {
		lead.SourcePage = meta.Referrer
	}

	if err := h.repo.SaveLead(ctx, lead); err != nil {
		h.logger.Error("lead save failed", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to save submission")
	}

	event := &events.LeadCapturedEvent{
		EventID:    uuid.NewString(),
		RefCode:    lead.RefCode,
		Email:      lead.Email,
		SourcePage: lead.SourcePage,
		CapturedAt: lead.CreatedAt,
	}

	if err := h.publishLead(event); err != nil {
		h.logger.Error("lead event publish failed",
			zap.String("ref_code", lead.RefCode), zap.Error(err))
	}

	resp := &CreateLeadResponse{Status: http.StatusCreated}
	resp.Body.RefCode = lead.RefCode

	return resp, nil
}
