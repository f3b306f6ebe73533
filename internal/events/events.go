// Package events defines the site's domain events and their consumers.
package events

import "time"

// Topics.
const (
	TopicContentUpdated = "site.content.updated"
	TopicLeadCaptured   = "site.lead.captured"
)

// ContentUpdatedEvent is published when an admin changes site content.
// Consumers invalidate the affected cache namespace.
type ContentUpdatedEvent struct {
	EventID   string    `json:"eventId"`
	Section   string    `json:"section"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LeadCapturedEvent is published when a visitor submits the lead form.
type LeadCapturedEvent struct {
	EventID    string    `json:"eventId"`
	RefCode    string    `json:"refCode"`
	Email      string    `json:"email"`
	SourcePage string    `json:"sourcePage"`
	CapturedAt time.Time `json:"capturedAt"`
}
