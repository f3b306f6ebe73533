package handlers

import (
	"context"
	"errors"

	"github.com/serroba/site-edge-go/internal/ats"
	"github.com/serroba/site-edge-go/internal/site"
)

// ErrInvalidCredentials is returned by AuthService for a bad login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAlreadyProvisioned is returned by AuthService when setup ran before.
var ErrAlreadyProvisioned = errors.New("already provisioned")

// AuthService is the session-issuance collaborator. Implementations live
// outside this layer.
type AuthService interface {
	// Authenticate verifies credentials and returns a session token, or
	// ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (string, error)

	// Setup provisions the first admin account, or ErrAlreadyProvisioned.
	Setup(ctx context.Context, email, password string) error
}

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata for lead attribution.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

// JobsResponse lists the open positions.
type JobsResponse struct {
	Body struct {
		Jobs []ats.Job `json:"jobs"`
	}
}

// BlogListResponse lists published posts.
type BlogListResponse struct {
	Body struct {
		Posts []site.BlogPost `json:"posts"`
	}
}

// BlogPostRequest fetches one post by slug.
type BlogPostRequest struct {
	Slug string `doc:"The post slug" example:"scaling-our-edge" path:"slug"`
}

// BlogPostResponse is a single post.
type BlogPostResponse struct {
	Body site.BlogPost
}

// TestimonialsResponse lists customer testimonials.
type TestimonialsResponse struct {
	Body struct {
		Testimonials []site.Testimonial `json:"testimonials"`
	}
}

// SectionRequest fetches one content section.
type SectionRequest struct {
	Section string `doc:"The content section name" example:"hero" path:"section"`
}

// SectionResponse is one content section.
type SectionResponse struct {
	Body site.ContentSection
}

// CreateLeadRequest is the lead-capture form submission.
type CreateLeadRequest struct {
	Body struct {
		Name       string `doc:"Contact name"            json:"name"                 minLength:"1"`
		Email      string `doc:"Contact email"           format:"email"              json:"email"`
		Company    string `doc:"Company name"            json:"company,omitempty"`
		Message    string `doc:"Free-form message"       json:"message"              minLength:"1"`
		SourcePage string `doc:"Page the form was on"    json:"sourcePage,omitempty"`
	}
}

// CreateLeadResponse acknowledges a captured lead.
type CreateLeadResponse struct {
	Status int
	Body   struct {
		RefCode string `doc:"Reference code for follow-up" example:"k3j2h1g0" json:"refCode"`
	}
}

// LoginRequest is the admin login form.
type LoginRequest struct {
	Body struct {
		Email    string `doc:"Admin email" format:"email" json:"email"`
		Password string `doc:"Admin password" json:"password" minLength:"1"`
	}
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Body struct {
		Token string `json:"token"`
	}
}

// SetupRequest provisions the first admin account.
type SetupRequest struct {
	Body struct {
		Email    string `doc:"Admin email" format:"email" json:"email"`
		Password string `doc:"Admin password" json:"password" minLength:"8"`
	}
}

// UpdateSectionRequest replaces a content section.
type UpdateSectionRequest struct {
	Section string `doc:"The content section name" path:"section"`
	Body    struct {
		Content string `doc:"Section content as JSON or markdown" json:"content" minLength:"1"`
	}
}

// UpdateSectionResponse confirms the update.
type UpdateSectionResponse struct {
	Body site.ContentSection
}
