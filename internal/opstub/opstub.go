// Package opstub provides inert implementations of the external job
// collaborators this repo does not ship:
// the lead-discovery source, the AI proposal/offer copywriters, the
// screenshot renderer, and the ARES company registry client. Wiring one of
// these into cmd/worker keeps every job kind dispatchable without pulling in
// a concrete scraper, LLM client, headless browser, or registry API — an
// operator who needs the real thing replaces the stub with their own type
// satisfying the same narrow interface.
package opstub

import (
	"context"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
)

func notConfigured() error {
	return apperror.New(apperror.PermanentFailure, apperror.ErrNotConfigured)
}

// LeadDiscoverer is the no-op jobs.LeadDiscoverer.
type LeadDiscoverer struct{}

func (LeadDiscoverer) DiscoverLeads(ctx context.Context, source string, queries []string, tenantID string, limit int) (int, error) {
	return 0, notConfigured()
}

// ProposalGenerator is the no-op jobs.ProposalGenerator.
type ProposalGenerator struct{}

func (ProposalGenerator) GenerateProposal(ctx context.Context, leadID, tenantID, proposalType, analysisID string) error {
	return notConfigured()
}

// OfferGenerator is the no-op jobs.OfferGenerator.
type OfferGenerator struct{}

func (OfferGenerator) GenerateOffer(ctx context.Context, leadID, tenantID, proposalID, recipient string) error {
	return notConfigured()
}

// Screenshotter is the no-op jobs.Screenshotter.
type Screenshotter struct{}

func (Screenshotter) TakeScreenshot(ctx context.Context, leadID string) error {
	return notConfigured()
}

// CompanySyncer is the no-op jobs.CompanySyncer.
type CompanySyncer struct{}

func (CompanySyncer) SyncCompanyByICO(ctx context.Context, ico string) error {
	return notConfigured()
}
