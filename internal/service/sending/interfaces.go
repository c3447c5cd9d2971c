// Package sending defines the interfaces the send gate uses to deliver
// an approved offer through an ESP without depending on which one.
package sending

import (
	"context"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// Sender transmits a single email through an ESP. Implementations must be
// safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error)
}

// SuppressionChecker performs the pre-send suppression check.
type SuppressionChecker interface {
	IsBlocked(email, tenantID string) bool
}

// RateLimiter performs the pre-send budget check. RecordSent is called
// only after a send actually commits — disallowed or failed sends never
// consume counters.
type RateLimiter interface {
	Evaluate(ctx context.Context, tenantID, recipientDomain string) (allowed bool, reason string, err error)
	RecordSent(ctx context.Context, tenantID, recipientDomain string) error
}

// TrackingInjector rewrites outgoing HTML with open pixels, click redirects,
// and unsubscribe links keyed by an opaque tracking token.
type TrackingInjector interface {
	InjectTracking(html, offerID, trackingToken string) string
	GenerateUnsubscribeURL(trackingToken string) string
}
