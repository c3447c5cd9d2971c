package domain

import "time"

// TrackingEventType enumerates the types of offer engagement events.
type TrackingEventType string

const (
	EventOpen        TrackingEventType = "open"
	EventClick       TrackingEventType = "click"
	EventUnsubscribe TrackingEventType = "unsubscribe"
	EventBounce      TrackingEventType = "bounce"
	EventComplaint   TrackingEventType = "complaint"
	EventDelivered   TrackingEventType = "delivered"
)

// TrackingEvent is a single engagement event resolved against an Offer,
// either from the pixel/redirect endpoints or a provider callback.
type TrackingEvent struct {
	ID        string            `json:"id"`
	TenantID  string            `json:"tenantId"`
	OfferID   string            `json:"offerId"`
	MessageID string            `json:"messageId,omitempty"`
	EventType TrackingEventType `json:"eventType"`
	IPAddress string            `json:"ipAddress,omitempty"`
	UserAgent string            `json:"userAgent,omitempty"`
	URL       string            `json:"url,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
