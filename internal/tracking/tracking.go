// Package tracking implements the tracking-and-suppression loop: the
// open-pixel and click-redirect surfaces, the unsubscribe form, and the
// provider-callback webhook, all keyed by an Offer's opaque trackingToken
// or the provider's messageId. The token deliberately encodes nothing — it
// is a random capability resolved by lookup, so a tracking URL leaks no
// tenant or campaign structure.
package tracking

import (
	"context"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// Repository resolves offers for the two lookup paths the ingestor needs:
// by trackingToken (pixel/click/unsubscribe) and by the ESP's messageId
// (provider webhook callbacks). ok=false means "not found"; both
// surfaces must still return their normal response on a miss rather than
// leaking existence.
type Repository interface {
	GetByToken(ctx context.Context, token string) (domain.Offer, bool, error)
	GetByMessageID(ctx context.Context, messageID string) (domain.Offer, bool, error)
}

// Gate is the subset of sendgate.Gate the ingestor drives: passive status
// transitions recorded as side effects of engagement events.
type Gate interface {
	RecordOpen(ctx context.Context, offerID string) (domain.Offer, error)
	RecordClick(ctx context.Context, offerID string) (domain.Offer, error)
	RecordResponse(ctx context.Context, offerID string) (domain.Offer, error)
}

// SuppressionAdder is the suppression-list write surface, invoked on
// bounce/complaint/unsubscribe with their global/per-tenant routing rules.
type SuppressionAdder interface {
	Add(ctx context.Context, email string, reason domain.SuppressionReason, tenantID string) (domain.Suppression, error)
}

// EngagementRecorder recomputes a lead's engagement score as a
// best-effort side effect after Open/Click. Failures are
// logged, never propagated: engagement scoring is not part of the
// correctness contract for offer state or suppression.
type EngagementRecorder interface {
	RecordEngagement(ctx context.Context, leadID string, kind domain.TrackingEventType, at time.Time) error
}

// EventLogger persists a TrackingEvent row for audit/replay, independent of
// the offer/suppression mutations it accompanies.
type EventLogger interface {
	Log(ctx context.Context, evt domain.TrackingEvent) error
}
