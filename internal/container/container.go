// Package container wires the service graph. Each *Package function
// registers one concern's providers so the server and consumer binaries can
// compose only what they need.
package container

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/site-edge-go/internal/ats"
	"github.com/serroba/site-edge-go/internal/auth"
	"github.com/serroba/site-edge-go/internal/cache"
	"github.com/serroba/site-edge-go/internal/events"
	"github.com/serroba/site-edge-go/internal/handlers"
	"github.com/serroba/site-edge-go/internal/kvstore"
	"github.com/serroba/site-edge-go/internal/messaging"
	"github.com/serroba/site-edge-go/internal/middleware"
	"github.com/serroba/site-edge-go/internal/ratelimit"
	"github.com/serroba/site-edge-go/internal/site"
	"github.com/serroba/site-edge-go/internal/store"
	"go.uber.org/zap"
)

const (
	refCodeLength      = 8
	sessionTokenLength = 32
	consumerGroupName  = "site-edge"
)

// Options holds the service configuration, parsed by humacli from flags and
// environment variables.
type Options struct {
	Port        int    `default:"8888"                                        help:"Port to listen on"            short:"p"`
	RedisAddr   string `default:"localhost:6379"                              help:"Redis server address"         short:"r"`
	PostgresDSN string `default:"postgres://localhost:5432/site?sslmode=disable" help:"Postgres connection string"`
	ATSFeedURL  string `default:"https://jobs.example.com/api/feed"           help:"Job-board feed URL"`
	Environment string `default:"development"                                 help:"Deployment environment"       short:"e"`
	LogFormat   string `default:"console"                                     help:"Log format (console or json)"`
}

// Limiters holds one rate limiter per policy, each with its own counter
// namespace.
type Limiters struct {
	API   *ratelimit.Limiter
	Login *ratelimit.Limiter
	Lead  *ratelimit.Limiter
	Setup *ratelimit.Limiter
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the Redis client, the key-value store on top of it,
// and the cache service.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{Addr: options.RedisAddr}), nil
	})

	do.Provide(injector, func(i *do.Injector) (kvstore.Store, error) {
		return kvstore.NewRedisStore(do.MustInvoke[*redis.Client](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*cache.Service, error) {
		kv := do.MustInvoke[kvstore.Store](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return cache.New(kv, logger), nil
	})
}

// PostgresPackage provides the pgx connection pool.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)

		pool, err := pgxpool.New(context.Background(), options.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		return pool, nil
	})
}

// RepositoryPackage provides the relational site repository.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (site.Repository, error) {
		return store.NewPostgresStore(do.MustInvoke[*pgxpool.Pool](i)), nil
	})
}

// AuthPackage provides the admin auth service. The concrete type is
// provided so it can serve both credential checks and session validation.
func AuthPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*auth.Service, error) {
		newToken, err := nanoid.Standard(sessionTokenLength)
		if err != nil {
			return nil, fmt.Errorf("session token generator: %w", err)
		}

		kv := do.MustInvoke[kvstore.Store](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return auth.New(kv, newToken, logger), nil
	})
}

// RateLimitPackage provides one limiter per policy, all sharing the
// key-value store.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Limiters, error) {
		options := do.MustInvoke[*Options](i)
		kv := do.MustInvoke[kvstore.Store](i)
		logger := do.MustInvoke[*zap.Logger](i)

		limiter := func(presetType string) *ratelimit.Limiter {
			policy := ratelimit.PresetPolicy(presetType, options.Environment)

			return ratelimit.New(kv, policy, logger)
		}

		return &Limiters{
			API:   limiter(ratelimit.TypeAPI),
			Login: limiter(ratelimit.TypeLogin),
			Lead:  limiter(ratelimit.TypeLead),
			Setup: limiter(ratelimit.TypeSetup),
		}, nil
	})
}

// PublisherGroupPackage provides the Redis Streams event publisher.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*redis.Client](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client,
		}, watermill.NopLogger{})
		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ConsumerGroupPackage provides the event consumers: the cache invalidator
// and the lead tallier.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*redis.Client](i)
		cacheService := do.MustInvoke[*cache.Service](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: consumerGroupName,
		}, watermill.NopLogger{})
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, events.TopicContentUpdated,
			events.NewContentInvalidator(cacheService, logger), logger))
		group.Add(messaging.NewConsumer(subscriber, events.TopicLeadCaptured,
			events.NewLeadTallier(cacheService, logger), logger))

		return group, nil
	})
}

// HTTPPackage provides the router and the API with all routes registered.
// The api policy applies to every route; login, lead, and setup stack their
// stricter policies per route.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		client := do.MustInvoke[*redis.Client](i)
		pool := do.MustInvoke[*pgxpool.Pool](i)
		repo := do.MustInvoke[site.Repository](i)
		cacheService := do.MustInvoke[*cache.Service](i)
		limiters := do.MustInvoke[*Limiters](i)
		authService := do.MustInvoke[*auth.Service](i)
		publisherGroup := do.MustInvoke[*messaging.PublisherGroup](i)

		api := humachi.New(router, huma.DefaultConfig("Site Edge API", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.RateLimit(limiters.API, logger, nil),
		)

		newRefCode, err := nanoid.Standard(refCodeLength)
		if err != nil {
			return nil, fmt.Errorf("ref code generator: %w", err)
		}

		publishLead := messaging.NewPublishFunc[events.LeadCapturedEvent](
			publisherGroup.Publisher(), events.TopicLeadCaptured)
		publishUpdated := messaging.NewPublishFunc[events.ContentUpdatedEvent](
			publisherGroup.Publisher(), events.TopicContentUpdated)

		handlers.RegisterRoutes(api, handlers.Handlers{
			Content: handlers.NewContentHandler(repo, cacheService, logger),
			Careers: handlers.NewCareersHandler(ats.NewClient(options.ATSFeedURL), cacheService, logger),
			Leads:   handlers.NewLeadHandler(repo, newRefCode, publishLead, logger),
			Admin:   handlers.NewAdminHandler(authService, repo, publishUpdated, logger),
			Health: handlers.NewHealthHandler(
				handlers.NewRedisHealthChecker(client),
				handlers.NewPostgresHealthChecker(pool),
			),
		}, handlers.RouteMiddlewares{
			LoginLimit:   middleware.RateLimit(limiters.Login, logger, nil),
			LeadLimit:    middleware.RateLimit(limiters.Lead, logger, nil),
			SetupLimit:   middleware.RateLimit(limiters.Setup, logger, nil),
			AdminSession: middleware.RequireSession(authService, logger),
		})

		return api, nil
	})
}
