// Package site holds the marketing-site domain types and the repository
// contract their handlers depend on.
package site

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("site: not found")

// BlogPost is a published article.
type BlogPost struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Body        string    `json:"body"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Testimonial is a customer quote shown on the site.
type Testimonial struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Role    string `json:"role"`
	Company string `json:"company"`
	Quote   string `json:"quote"`
}

// Lead is a captured sales contact.
type Lead struct {
	RefCode    string    `json:"refCode"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Company    string    `json:"company"`
	Message    string    `json:"message"`
	SourcePage string    `json:"sourcePage"`
	ClientIP   string    `json:"-"`
	UserAgent  string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ContentSection is an admin-editable block of page content.
type ContentSection struct {
	Section   string    `json:"section"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository is the relational store behind the read-heavy public pages and
// the lead-capture form.
type Repository interface {
	ListBlogPosts(ctx context.Context) ([]BlogPost, error)
	GetBlogPost(ctx context.Context, slug string) (*BlogPost, error)
	ListTestimonials(ctx context.Context) ([]Testimonial, error)
	SaveLead(ctx context.Context, lead *Lead) error
	GetSection(ctx context.Context, section string) (*ContentSection, error)
	UpsertSection(ctx context.Context, content *ContentSection) error
}
