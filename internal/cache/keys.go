package cache

import (
	"regexp"
	"strings"
)

// Cache namespaces, one per feature area. Each namespace is independently
// prefix-sweepable for bulk invalidation.
const (
	NamespaceContent      = "content"
	NamespaceBlog         = "blog"
	NamespaceTestimonials = "testimonials"
	NamespaceIntegrations = "integrations"
	NamespaceLeads        = "leads"
)

var unsafeSegmentChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Key joins a namespace with sanitized path segments. Non-alphanumeric
// characters collapse to an underscore, so arbitrary input (slugs, URLs,
// dates) cannot break out of its namespace or collide with the store's
// metadata sibling keys.
func Key(namespace string, segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, namespace)

	for _, segment := range segments {
		parts = append(parts, unsafeSegmentChars.ReplaceAllString(segment, "_"))
	}

	return strings.Join(parts, ":")
}

// Prefix returns the sweepable prefix for a namespace, for use with
// DeleteByPrefix.
func Prefix(namespace string) string {
	return namespace + ":"
}
