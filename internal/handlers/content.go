package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/site-edge-go/internal/cache"
	"github.com/serroba/site-edge-go/internal/site"
	"go.uber.org/zap"
)

var contentCacheOptions = cache.Options{TTL: 10 * time.Minute}

// ContentHandler serves the read-heavy public pages through the cache.
type ContentHandler struct {
	repo   site.Repository
	cache  *cache.Service
	logger *zap.Logger
}

// NewContentHandler creates a content handler.
func NewContentHandler(repo site.Repository, cacheService *cache.Service, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		repo:   repo,
		cache:  cacheService,
		logger: logger,
	}
}

// ListBlogPosts returns all published posts, cache-aside.
func (h *ContentHandler) ListBlogPosts(ctx context.Context, _ *struct{}) (*BlogListResponse, error) {
	key := cache.Key(cache.NamespaceBlog, "posts")

	posts, err := cache.GetOrFetch(ctx, h.cache, key, h.repo.ListBlogPosts, contentCacheOptions)
	if err != nil {
		h.logger.Error("blog listing failed", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to load posts")
	}

	resp := &BlogListResponse{}
	resp.Body.Posts = posts

	return resp, nil
}

// GetBlogPost returns one post by slug, cache-aside. Missing posts are not
// cached: the fetch error short-circuits before any cache write.
func (h *ContentHandler) GetBlogPost(ctx context.Context, req *BlogPostRequest) (*BlogPostResponse, error) {
	key := cache.Key(cache.NamespaceBlog, "posts", req.Slug)

	post, err := cache.GetOrFetch(ctx, h.cache, key, func(ctx context.Context) (*site.BlogPost, error) {
		return h.repo.GetBlogPost(ctx, req.Slug)
	}, contentCacheOptions)
	if err != nil {
		if errors.Is(err, site.ErrNotFound) {
			return nil, huma.Error404NotFound("post not found")
		}

		h.logger.Error("blog post load failed", zap.String("slug", req.Slug), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to load post")
	}

	return &BlogPostResponse{Body: *post}, nil
}

// ListTestimonials returns the customer quotes, cache-aside.
func (h *ContentHandler) ListTestimonials(ctx context.Context, _ *struct{}) (*TestimonialsResponse, error) {
	key := cache.Key(cache.NamespaceTestimonials, "all")

	testimonials, err := cache.GetOrFetch(ctx, h.cache, key, h.repo.ListTestimonials, contentCacheOptions)
	if err != nil {
		h.logger.Error("testimonials load failed", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to load testimonials")
	}

	resp := &TestimonialsResponse{}
	resp.Body.Testimonials = testimonials

	return resp, nil
}

// GetSection returns one admin-editable content section, cache-aside.
func (h *ContentHandler) GetSection(ctx context.Context, req *SectionRequest) (*SectionResponse, error) {
	key := cache.Key(cache.NamespaceContent, req.Section)

	content, err := cache.GetOrFetch(ctx, h.cache, key, func(ctx context.Context) (*site.ContentSection, error) {
		return h.repo.GetSection(ctx, req.Section)
	}, contentCacheOptions)
	if err != nil {
		if errors.Is(err, site.ErrNotFound) {
			return nil, huma.Error404NotFound("section not found")
		}

		h.logger.Error("section load failed", zap.String("section", req.Section), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to load section")
	}

	return &SectionResponse{Body: *content}, nil
}
