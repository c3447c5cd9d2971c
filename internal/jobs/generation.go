package jobs

import (
	"context"
	"fmt"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
)

// ProposalGenerator produces proposal content for a lead (the AI
// copywriter lives outside this repo); leadID+type is its idempotency key.
type ProposalGenerator interface {
	GenerateProposal(ctx context.Context, leadID, tenantID, proposalType, analysisID string) error
}

// GenerateProposalBody is the decoded body of a generate_proposal job.
type GenerateProposalBody struct {
	LeadID     string `json:"leadId"`
	TenantID   string `json:"tenantId"`
	Type       string `json:"type"`
	AnalysisID string `json:"analysisId,omitempty"`
}

func GenerateProposalHandler(gen ProposalGenerator) func(ctx context.Context, body string) error {
	return func(ctx context.Context, body string) error {
		var b GenerateProposalBody
		if err := decode(body, &b); err != nil {
			return err
		}
		if b.LeadID == "" || b.TenantID == "" {
			return apperror.New(apperror.PermanentFailure, fmt.Errorf("generate_proposal body missing leadId/tenantId"))
		}
		return gen.GenerateProposal(ctx, b.LeadID, b.TenantID, b.Type, b.AnalysisID)
	}
}

// OfferGenerator turns a generated proposal into a draft Offer (template
// rendering and copy assembly live outside this repo); (leadID, recipient)
// is its idempotency key.
type OfferGenerator interface {
	GenerateOffer(ctx context.Context, leadID, tenantID, proposalID, recipient string) error
}

// GenerateOfferBody is the decoded body of a generate_offer job.
type GenerateOfferBody struct {
	LeadID     string `json:"leadId"`
	TenantID   string `json:"tenantId"`
	ProposalID string `json:"proposalId,omitempty"`
	Recipient  string `json:"recipient"`
}

func GenerateOfferHandler(gen OfferGenerator) func(ctx context.Context, body string) error {
	return func(ctx context.Context, body string) error {
		var b GenerateOfferBody
		if err := decode(body, &b); err != nil {
			return err
		}
		if b.LeadID == "" || b.Recipient == "" {
			return apperror.New(apperror.PermanentFailure, fmt.Errorf("generate_offer body missing leadId/recipient"))
		}
		return gen.GenerateOffer(ctx, b.LeadID, b.TenantID, b.ProposalID, b.Recipient)
	}
}

// CompanySyncer resolves company registry data for a set of ICOs (the ARES
// client lives outside this repo); each ico is its own idempotency key, so
// the handler keeps going after a single failed lookup rather than failing
// the whole batch.
type CompanySyncer interface {
	SyncCompanyByICO(ctx context.Context, ico string) error
}

// SyncCompanyByICOBody is the decoded body of a sync_company_by_ico job.
type SyncCompanyByICOBody struct {
	ICOs []string `json:"icos"`
}

func SyncCompanyByICOHandler(syncer CompanySyncer) func(ctx context.Context, body string) error {
	return func(ctx context.Context, body string) error {
		var b SyncCompanyByICOBody
		if err := decode(body, &b); err != nil {
			return err
		}
		var firstErr error
		for _, ico := range b.ICOs {
			if err := syncer.SyncCompanyByICO(ctx, ico); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if firstErr != nil {
			return asRetryable(firstErr)
		}
		return nil
	}
}
