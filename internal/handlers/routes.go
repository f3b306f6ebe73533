package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RouteMiddlewares carries the per-route middlewares. The api rate-limit
// policy is installed globally by the container; the login, lead, and setup
// limiters stack on top of it, each with its own counter namespace, and
// AdminSession guards the mutating CMS routes.
type RouteMiddlewares struct {
	LoginLimit   func(ctx huma.Context, next func(huma.Context))
	LeadLimit    func(ctx huma.Context, next func(huma.Context))
	SetupLimit   func(ctx huma.Context, next func(huma.Context))
	AdminSession func(ctx huma.Context, next func(huma.Context))
}

// Handlers groups everything RegisterRoutes wires up.
type Handlers struct {
	Content *ContentHandler
	Careers *CareersHandler
	Leads   *LeadHandler
	Admin   *AdminHandler
	Health  *HealthHandler
}

// RegisterRoutes registers the public pages, the lead form, and the admin
// CMS surface.
func RegisterRoutes(api huma.API, h Handlers, mw RouteMiddlewares) {
	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/blog",
		Summary:     "List blog posts",
		Description: "Returns all published blog posts, newest first.",
		Tags:        []string{"Content"},
	}, h.Content.ListBlogPosts)

	huma.Register(api, huma.Operation{
		Method:  http.MethodGet,
		Path:    "/blog/{slug}",
		Summary: "Get a blog post",
		Tags:    []string{"Content"},
	}, h.Content.GetBlogPost)

	huma.Register(api, huma.Operation{
		Method:  http.MethodGet,
		Path:    "/testimonials",
		Summary: "List testimonials",
		Tags:    []string{"Content"},
	}, h.Content.ListTestimonials)

	huma.Register(api, huma.Operation{
		Method:  http.MethodGet,
		Path:    "/content/{section}",
		Summary: "Get a content section",
		Tags:    []string{"Content"},
	}, h.Content.GetSection)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/careers/jobs",
		Summary:     "List open positions",
		Description: "Returns the job-board listings, served from cache with stale-while-revalidate.",
		Tags:        []string{"Careers"},
	}, h.Careers.ListJobs)

	huma.Register(api, huma.Operation{
		Method:        http.MethodPost,
		Path:          "/leads",
		Summary:       "Submit the lead form",
		Tags:          []string{"Leads"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{mw.LeadLimit},
	}, h.Leads.CreateLead)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/admin/login",
		Summary:     "Admin login",
		Tags:        []string{"Admin"},
		Middlewares: huma.Middlewares{mw.LoginLimit},
	}, h.Admin.Login)

	huma.Register(api, huma.Operation{
		Method:        http.MethodPost,
		Path:          "/admin/setup",
		Summary:       "Provision the first admin account",
		Tags:          []string{"Admin"},
		DefaultStatus: http.StatusNoContent,
		Middlewares:   huma.Middlewares{mw.SetupLimit},
	}, h.Admin.Setup)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPut,
		Path:        "/admin/content/{section}",
		Summary:     "Update a content section",
		Description: "Replaces the section body and broadcasts a cache invalidation event.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: huma.Middlewares{mw.AdminSession},
	}, h.Admin.UpdateSection)

	huma.Register(api, huma.Operation{
		Method:  http.MethodGet,
		Path:    "/health",
		Summary: "Service health",
		Tags:    []string{"Health"},
	}, h.Health.Check)
}
