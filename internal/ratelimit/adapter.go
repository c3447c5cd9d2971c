package ratelimit

import (
	"context"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// TenantRateLimits resolves the configured limits for a tenant, so the gate
// adapter below can satisfy service/sending.RateLimiter without depending on
// a particular tenant repository.
type TenantRateLimits interface {
	RateLimitsFor(ctx context.Context, tenantID string) (domain.RateLimits, error)
}

// GateAdapter adapts Limiter to the narrow service/sending.RateLimiter
// interface the send gate depends on.
type GateAdapter struct {
	limiter *Limiter
	tenants TenantRateLimits
}

func NewGateAdapter(limiter *Limiter, tenants TenantRateLimits) *GateAdapter {
	return &GateAdapter{limiter: limiter, tenants: tenants}
}

func (a *GateAdapter) Evaluate(ctx context.Context, tenantID, recipientDomain string) (bool, string, error) {
	limits, err := a.tenants.RateLimitsFor(ctx, tenantID)
	if err != nil {
		return false, "", err
	}
	res, err := a.limiter.Evaluate(ctx, tenantID, limits, recipientDomain)
	if err != nil {
		return false, "", err
	}
	return res.Allowed, res.Reason, nil
}

func (a *GateAdapter) RecordSent(ctx context.Context, tenantID, recipientDomain string) error {
	return a.limiter.RecordSent(ctx, tenantID, recipientDomain)
}
