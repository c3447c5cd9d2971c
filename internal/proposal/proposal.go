// Package proposal implements the proposal.recyclable/proposal.recycle
// command surface: finding an existing AI-generated offer eligible for
// reuse and cloning it onto a new tenant via the send gate's Recycle.
package proposal

import (
	"context"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// OfferFinder locates a recyclable offer for an (industry, proposalType)
// pair. Satisfied by postgres.OfferRepo.
type OfferFinder interface {
	FindRecyclable(ctx context.Context, industry, proposalType string) (domain.Offer, bool, error)
}

// TenantResolver maps the operator-facing userCode to an internal tenant id.
// Satisfied by postgres.TenantRepo.
type TenantResolver interface {
	GetByUserCode(ctx context.Context, userCode string) (domain.Tenant, error)
}

// Recycler performs the clone itself. Satisfied by sendgate.Gate.
type Recycler interface {
	Recycle(ctx context.Context, offerID, newTenantID, newLeadID string) (domain.Offer, error)
}

// Service ties the three collaborators above into the two proposal.*
// operations.
type Service struct {
	Offers  OfferFinder
	Tenants TenantResolver
	Gate    Recycler
}

func NewService(offers OfferFinder, tenants TenantResolver, gate Recycler) *Service {
	return &Service{Offers: offers, Tenants: tenants, Gate: gate}
}

// Recyclable reports whether at least one offer matching industry+type is
// available to recycle (proposal.recyclable).
func (s *Service) Recyclable(ctx context.Context, industry, proposalType string) (bool, error) {
	_, ok, err := s.Offers.FindRecyclable(ctx, industry, proposalType)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Recycle resolves userCode to a tenant, finds a recyclable offer for
// industry+proposalType, and clones it onto that tenant (proposal.recycle).
// leadID overrides the clone's lead when the caller already resolved
// one for the destination tenant. Returns InvalidTransition (409) when no
// recyclable offer exists, matching the gate's own denial kind for an
// already-mapped 409 at the HTTP boundary.
func (s *Service) Recycle(ctx context.Context, userCode, industry, proposalType, leadID string) (domain.Offer, error) {
	tenant, err := s.Tenants.GetByUserCode(ctx, userCode)
	if err != nil {
		return domain.Offer{}, err
	}
	source, ok, err := s.Offers.FindRecyclable(ctx, industry, proposalType)
	if err != nil {
		return domain.Offer{}, err
	}
	if !ok {
		return domain.Offer{}, apperror.New(apperror.InvalidTransition, apperror.ErrNotRecyclable)
	}
	return s.Gate.Recycle(ctx, source.ID, tenant.ID, leadID)
}
