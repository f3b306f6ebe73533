package store

import (
	"context"
	"sort"
	"sync"

	"github.com/serroba/site-edge-go/internal/site"
)

// MemoryStore is an in-memory site.Repository for tests and local development.
type MemoryStore struct {
	mu           sync.RWMutex
	posts        map[string]site.BlogPost
	testimonials []site.Testimonial
	leads        map[string]site.Lead
	sections     map[string]site.ContentSection
	forcedErr    error
}

// NewMemoryStore creates a new in-memory site repository.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts:    make(map[string]site.BlogPost),
		leads:    make(map[string]site.Lead),
		sections: make(map[string]site.ContentSection),
	}
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.forcedErr = err
}

func (s *MemoryStore) ListBlogPosts(_ context.Context) ([]site.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.forcedErr != nil {
		return nil, s.forcedErr
	}

	posts := make([]site.BlogPost, 0, len(s.posts))
	for _, post := range s.posts {
		posts = append(posts, post)
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})

	return posts, nil
}

func (s *MemoryStore) GetBlogPost(_ context.Context, slug string) (*site.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.forcedErr != nil {
		return nil, s.forcedErr
	}

	post, ok := s.posts[slug]
	if !ok {
		return nil, site.ErrNotFound
	}

	return &post, nil
}

// AddBlogPost seeds a post.
func (s *MemoryStore) AddBlogPost(post site.BlogPost) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts[post.Slug] = post
}

func (s *MemoryStore) ListTestimonials(_ context.Context) ([]site.Testimonial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.forcedErr != nil {
		return nil, s.forcedErr
	}

	out := make([]site.Testimonial, len(s.testimonials))
	copy(out, s.testimonials)

	return out, nil
}

// AddTestimonial seeds a testimonial.
func (s *MemoryStore) AddTestimonial(item site.Testimonial) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.testimonials = append(s.testimonials, item)
}

func (s *MemoryStore) SaveLead(_ context.Context, lead *site.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.forcedErr != nil {
		return s.forcedErr
	}

	if _, exists := s.leads[lead.RefCode]; exists {
		return nil
	}

	s.leads[lead.RefCode] = *lead

	return nil
}

// Lead returns a saved lead by reference code.
func (s *MemoryStore) Lead(refCode string) (site.Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lead, ok := s.leads[refCode]

	return lead, ok
}

func (s *MemoryStore) GetSection(_ context.Context, section string) (*site.ContentSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.forcedErr != nil {
		return nil, s.forcedErr
	}

	content, ok := s.sections[section]
	if !ok {
		return nil, site.ErrNotFound
	}

	return &content, nil
}

func (s *MemoryStore) UpsertSection(_ context.Context, content *site.ContentSection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.forcedErr != nil {
		return s.forcedErr
	}

	s.sections[content.Section] = *content

	return nil
}

// Compile-time check.
var _ site.Repository = (*MemoryStore)(nil)
