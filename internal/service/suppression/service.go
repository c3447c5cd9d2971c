package suppression

import (
	"context"
	"fmt"
	"strings"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/suppression"
)

// Service is the validating suppression command surface. It wraps the
// bloom+binary-search engine (suppression.Store) for fast reads and the
// Repository for durability, matching the engine's cache to its backing
// store on every write.
type Service struct {
	store *suppression.Store
}

// NewService creates a suppression service backed by the given repository.
// The in-memory engine starts cold; call WarmCache once tenant IDs are known.
func NewService(repo Repository) *Service {
	return &Service{store: suppression.NewStore(repo, suppression.NewManager())}
}

// WarmCache loads the global list and every tenant's list into the engine.
// Call once at process startup before serving traffic.
func (s *Service) WarmCache(ctx context.Context, tenantIDs []string) error {
	return s.store.WarmCache(ctx, tenantIDs)
}

// IsBlocked checks whether an email should be blocked from sending to
// tenantID, consulting both the global list and the tenant's own list.
func (s *Service) IsBlocked(email, tenantID string) bool {
	return s.store.IsBlocked(email, tenantID)
}

// Add suppresses an email. Hard bounces and complaints are forced global;
// soft bounces, unsubscribes, and manual entries are tenant-scoped.
func (s *Service) Add(ctx context.Context, email string, reason domain.SuppressionReason, tenantID string) (domain.Suppression, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.Suppression{}, apperror.New(apperror.InvalidInput, fmt.Errorf("email is required"))
	}
	if !reason.Global() && tenantID == "" {
		return domain.Suppression{}, apperror.New(apperror.InvalidInput, fmt.Errorf("tenant-scoped reason %q requires a tenant", reason))
	}
	return s.store.Add(ctx, email, reason, tenantID)
}

// Remove deletes a suppression entry, returning ErrNotFound if none existed.
func (s *Service) Remove(ctx context.Context, email, tenantID string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	removed, err := s.store.Remove(ctx, email, tenantID)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.New(apperror.NotFound, ErrNotFound)
	}
	return nil
}

// ListUnsubscribes returns a tenant's own suppression entries (soft_bounce,
// unsubscribe, manual).
func (s *Service) ListUnsubscribes(ctx context.Context, tenantID string, limit int) ([]domain.Suppression, error) {
	return s.store.ListUnsubscribes(ctx, tenantID, limit)
}

// ListGlobal returns the hard_bounce/complaint entries shared across tenants.
func (s *Service) ListGlobal(ctx context.Context, limit int) ([]domain.Suppression, error) {
	return s.store.ListGlobal(ctx, limit)
}
