package suppression

import (
	"context"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// Repository is the durable store behind the suppression engine. It is
// also the suppression.Repository the suppression.Store reloads its cache from.
type Repository interface {
	Upsert(ctx context.Context, s domain.Suppression) error
	Remove(ctx context.Context, tenantID, email string) (bool, error)
	ListUnsubscribes(ctx context.Context, tenantID string, limit int) ([]domain.Suppression, error)
	ListGlobal(ctx context.Context, limit int) ([]domain.Suppression, error)
	AllHashes(ctx context.Context, tenantID string) ([]string, error)
}
