package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/site-edge-go/internal/site"
)

// PostgresStore is a PostgreSQL implementation of site.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed site repository.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) ListBlogPosts(ctx context.Context) ([]site.BlogPost, error) {
	query := `
		SELECT slug, title, excerpt, body, published_at
		FROM blog_posts
		WHERE published_at <= now()
		ORDER BY published_at DESC
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []site.BlogPost

	for rows.Next() {
		var post site.BlogPost

		if err := rows.Scan(&post.Slug, &post.Title, &post.Excerpt, &post.Body, &post.PublishedAt); err != nil {
			return nil, err
		}

		posts = append(posts, post)
	}

	return posts, rows.Err()
}

func (p *PostgresStore) GetBlogPost(ctx context.Context, slug string) (*site.BlogPost, error) {
	query := `
		SELECT slug, title, excerpt, body, published_at
		FROM blog_posts
		WHERE slug = $1
	`

	var post site.BlogPost

	err := p.pool.QueryRow(ctx, query, slug).Scan(
		&post.Slug,
		&post.Title,
		&post.Excerpt,
		&post.Body,
		&post.PublishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, site.ErrNotFound
		}

		return nil, err
	}

	return &post, nil
}

func (p *PostgresStore) ListTestimonials(ctx context.Context) ([]site.Testimonial, error) {
	query := `
		SELECT id, author, role, company, quote
		FROM testimonials
		ORDER BY created_at DESC
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var testimonials []site.Testimonial

	for rows.Next() {
		var item site.Testimonial

		if err := rows.Scan(&item.ID, &item.Author, &item.Role, &item.Company, &item.Quote); err != nil {
			return nil, err
		}

		testimonials = append(testimonials, item)
	}

	return testimonials, rows.Err()
}

func (p *PostgresStore) SaveLead(ctx context.Context, lead *site.Lead) error {
	query := `
		INSERT INTO leads (ref_code, name, email, company, message, source_page, client_ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ref_code) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		lead.RefCode,
		lead.Name,
		lead.Email,
		nullableString(lead.Company),
		lead.Message,
		nullableString(lead.SourcePage),
		lead.ClientIP,
		lead.UserAgent,
		lead.CreatedAt,
	)

	return err
}

func (p *PostgresStore) GetSection(ctx context.Context, section string) (*site.ContentSection, error) {
	query := `
		SELECT section, body, updated_at
		FROM content_sections
		WHERE section = $1
	`

	var content site.ContentSection

	err := p.pool.QueryRow(ctx, query, section).Scan(
		&content.Section,
		&content.Body,
		&content.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, site.ErrNotFound
		}

		return nil, err
	}

	return &content, nil
}

func (p *PostgresStore) UpsertSection(ctx context.Context, content *site.ContentSection) error {
	query := `
		INSERT INTO content_sections (section, body, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (section) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
	`

	_, err := p.pool.Exec(ctx, query, content.Section, content.Body, content.UpdatedAt)

	return err
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

// Compile-time check.
var _ site.Repository = (*PostgresStore)(nil)
