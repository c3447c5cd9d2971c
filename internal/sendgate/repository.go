package sendgate

import (
	"context"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// Repository is the durable store for offers. Transition persists the new
// status and whichever single timestamp field changed; for Send the gate
// checks run before transmit and the sent status commits after.
type Repository interface {
	Get(ctx context.Context, offerID string) (domain.Offer, error)
	Transition(ctx context.Context, offer domain.Offer) error

	// Create inserts a brand-new offer row, used by Recycle to persist the
	// cloned draft (it cannot reuse Transition, which only updates).
	Create(ctx context.Context, offer domain.Offer) error

	// ExpiryCandidates lists offers still sitting in pending_approval or
	// approved whose clock for that status started before cutoff, for the
	// expire_proposals maintenance job.
	ExpiryCandidates(ctx context.Context, cutoff time.Time) ([]domain.Offer, error)
}

// TenantRepository resolves the tenant owning a lead/offer, for rate-limit
// and suppression scoping.
type TenantRepository interface {
	Get(ctx context.Context, tenantID string) (domain.Tenant, error)
}
