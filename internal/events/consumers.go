package events

import (
	"context"
	"time"

	"github.com/serroba/site-edge-go/internal/cache"
	"github.com/serroba/site-edge-go/internal/messaging"
	"go.uber.org/zap"
)

// sectionNamespaces maps an updated content section to the cache namespaces
// whose entries may embed it. Unknown sections sweep the content namespace.
var sectionNamespaces = map[string][]string{
	"blog":         {cache.NamespaceBlog},
	"testimonials": {cache.NamespaceTestimonials},
	"careers":      {cache.NamespaceIntegrations},
}

// NewContentInvalidator returns a handler that sweeps the cache namespaces
// affected by a content update. Sweeping is the bulk-invalidation path: the
// next read repopulates from the repository.
func NewContentInvalidator(c *cache.Service, logger *zap.Logger) messaging.Handler[ContentUpdatedEvent] {
	return func(ctx context.Context, event *ContentUpdatedEvent) error {
		namespaces, ok := sectionNamespaces[event.Section]
		if !ok {
			namespaces = []string{cache.NamespaceContent}
		}

		for _, namespace := range namespaces {
			deleted, err := c.DeleteByPrefix(ctx, cache.Prefix(namespace))
			if err != nil {
				return err
			}

			logger.Info("cache namespace invalidated",
				zap.String("section", event.Section),
				zap.String("namespace", namespace),
				zap.Int("deleted", deleted),
			)
		}

		return nil
	}
}

// NewLeadTallier returns a handler that bumps the per-day lead counter.
// The counter lives in the cache and is approximate by design; it feeds a
// dashboard, not billing.
func NewLeadTallier(c *cache.Service, logger *zap.Logger) messaging.Handler[LeadCapturedEvent] {
	return func(ctx context.Context, event *LeadCapturedEvent) error {
		day := event.CapturedAt.UTC().Format("2006-01-02")
		key := cache.Key(cache.NamespaceLeads, "daily", day)

		total, err := c.Increment(ctx, key, 1, cache.Options{TTL: 48 * time.Hour})
		if err != nil {
			// Best-effort tally; do not requeue the event over it.
			logger.Warn("lead tally failed", zap.String("key", key), zap.Error(err))

			return nil
		}

		logger.Debug("lead tallied",
			zap.String("day", day), zap.Int64("total", total))

		return nil
	}
}
