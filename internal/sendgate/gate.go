// Package sendgate implements the offer state machine and the send
// protocol: suppression and rate-limit checks run before transmit, and the
// resulting status transition is committed only after the ESP accepts the
// message, together in one Repository.Transition call.
package sendgate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/metrics"
	"github.com/ignite/outreach-orchestrator/internal/service/sending"
)

// Gate owns the offer lifecycle: manual transitions (submit/approve/reject),
// the gated Send, and the passive transitions recorded by the tracking
// ingestor (open/click/respond/convert).
type Gate struct {
	repo        Repository
	suppression sending.SuppressionChecker
	limiter     sending.RateLimiter
	sender      sending.Sender
	tracking    sending.TrackingInjector

	// ExpiryWindow is how long an offer may sit in pending_approval or
	// approved before expire_proposals rejects it. 14 days: long enough that
	// a slow approval cycle isn't punished, short enough that an unacted
	// proposal doesn't block a lead's next offer forever.
	ExpiryWindow time.Duration
}

func NewGate(repo Repository, suppression sending.SuppressionChecker, limiter sending.RateLimiter, sender sending.Sender, tracking sending.TrackingInjector) *Gate {
	return &Gate{repo: repo, suppression: suppression, limiter: limiter, sender: sender, tracking: tracking, ExpiryWindow: 14 * 24 * time.Hour}
}

// transition applies event to offer's current status or fails with
// InvalidTransition, then persists via Repository.Transition.
func (g *Gate) transition(ctx context.Context, offerID, event string, stamp func(*domain.Offer)) (domain.Offer, error) {
	offer, err := g.repo.Get(ctx, offerID)
	if err != nil {
		return offer, err
	}
	next, ok := offer.Status.Next(event)
	if !ok {
		return offer, apperror.Newf(apperror.InvalidTransition, "cannot apply %q to offer in status %q", event, offer.Status)
	}
	offer.Status = next
	if stamp != nil {
		stamp(&offer)
	}
	if err := g.repo.Transition(ctx, offer); err != nil {
		return offer, err
	}
	return offer, nil
}

func (g *Gate) Submit(ctx context.Context, offerID string) (domain.Offer, error) {
	now := time.Now().UTC()
	return g.transition(ctx, offerID, "submit", func(o *domain.Offer) { o.SubmittedAt = &now })
}

func (g *Gate) Approve(ctx context.Context, offerID string) (domain.Offer, error) {
	now := time.Now().UTC()
	return g.transition(ctx, offerID, "approve", func(o *domain.Offer) { o.ApprovedAt = &now })
}

func (g *Gate) Reject(ctx context.Context, offerID, reason string) (domain.Offer, error) {
	now := time.Now().UTC()
	return g.transition(ctx, offerID, "reject", func(o *domain.Offer) {
		o.RejectedAt = &now
		o.RejectionReason = reason
	})
}

// Send executes the full send protocol: load, gate, transmit, commit.
// A suppressed recipient rejects the offer with reason "suppressed" and
// never reaches the sender; a rate-limit denial returns a retryable error
// with the offer untouched; a transmit failure leaves the offer Approved
// for retry by the dispatcher's retry policy instead of silently marking
// it Sent.
func (g *Gate) Send(ctx context.Context, offerID, tenantID, recipientDomain string) (domain.Offer, error) {
	offer, err := g.repo.Get(ctx, offerID)
	if err != nil {
		return offer, err
	}
	if _, ok := offer.Status.Next("send"); !ok {
		return offer, apperror.Newf(apperror.InvalidTransition, "cannot send offer in status %q", offer.Status)
	}

	if g.suppression.IsBlocked(offer.Recipient, tenantID) {
		metrics.SendGateDenials.WithLabelValues("suppressed").Inc()
		rejected, rerr := g.transition(ctx, offerID, "reject", func(o *domain.Offer) {
			now := time.Now().UTC()
			o.RejectedAt = &now
			o.RejectionReason = "suppressed"
		})
		if rerr != nil {
			return rejected, rerr
		}
		return rejected, apperror.New(apperror.Suppressed, apperror.ErrSuppressed)
	}

	allowed, reason, err := g.limiter.Evaluate(ctx, tenantID, recipientDomain)
	if err != nil {
		return offer, err
	}
	if !allowed {
		metrics.SendGateDenials.WithLabelValues("rate_limited").Inc()
		return offer, apperror.New(apperror.RateLimited, apperror.ErrRateLimited).WithHint(reason)
	}

	html := offer.HTMLBody
	if g.tracking != nil {
		html = g.tracking.InjectTracking(html, offer.ID, offer.TrackingToken)
	}

	msg := &domain.EmailMessage{
		OfferID:     offer.ID,
		Recipient:   offer.Recipient,
		Subject:     offer.Subject,
		HTMLContent: html,
		TextContent: offer.PlainTextBody,
	}
	result, err := g.sender.Send(ctx, msg)
	if err != nil {
		return offer, apperror.New(apperror.UpstreamUnavailable, err)
	}

	now := time.Now().UTC()
	sent, err := g.transition(ctx, offerID, "send", func(o *domain.Offer) {
		o.SentAt = &now
		if result != nil {
			o.ProviderMessageID = result.MessageID
		}
	})
	if err != nil {
		return sent, err
	}
	if err := g.limiter.RecordSent(ctx, tenantID, recipientDomain); err != nil {
		return sent, err
	}
	return sent, nil
}

// RecordOpen, RecordClick, RecordResponse, and RecordConversion are called
// by the tracking ingestor. They are idempotent: a repeated event for
// an already-recorded status is a no-op, not an error.
func (g *Gate) RecordOpen(ctx context.Context, offerID string) (domain.Offer, error) {
	return g.recordIfFirst(ctx, offerID, "open", func(o *domain.Offer) bool { return o.OpenedAt == nil },
		func(o *domain.Offer, now time.Time) { o.OpenedAt = &now })
}

func (g *Gate) RecordClick(ctx context.Context, offerID string) (domain.Offer, error) {
	return g.recordIfFirst(ctx, offerID, "click", func(o *domain.Offer) bool { return o.ClickedAt == nil },
		func(o *domain.Offer, now time.Time) { o.ClickedAt = &now })
}

func (g *Gate) RecordResponse(ctx context.Context, offerID string) (domain.Offer, error) {
	return g.recordIfFirst(ctx, offerID, "respond", func(o *domain.Offer) bool { return o.RespondedAt == nil },
		func(o *domain.Offer, now time.Time) { o.RespondedAt = &now })
}

func (g *Gate) RecordConversion(ctx context.Context, offerID string) (domain.Offer, error) {
	return g.recordIfFirst(ctx, offerID, "convert", func(o *domain.Offer) bool { return o.ConvertedAt == nil },
		func(o *domain.Offer, now time.Time) { o.ConvertedAt = &now })
}

func (g *Gate) recordIfFirst(ctx context.Context, offerID, event string, isFirst func(*domain.Offer) bool, stamp func(*domain.Offer, time.Time)) (domain.Offer, error) {
	offer, err := g.repo.Get(ctx, offerID)
	if err != nil {
		return offer, err
	}
	if !isFirst(&offer) {
		return offer, nil
	}
	now := time.Now().UTC()
	return g.transition(ctx, offerID, event, func(o *domain.Offer) { stamp(o, now) })
}

// ExpireProposals rejects every offer that has sat in pending_approval or
// approved longer than ExpiryWindow, implementing the expire_proposals
// maintenance job. Returns the number rejected; a failure on one
// offer does not abort the rest.
func (g *Gate) ExpireProposals(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-g.ExpiryWindow)
	candidates, err := g.repo.ExpiryCandidates(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, offer := range candidates {
		if _, err := g.transition(ctx, offer.ID, "expire", func(o *domain.Offer) {
			now := time.Now().UTC()
			o.RejectedAt = &now
			o.RejectionReason = "proposal window expired"
		}); err != nil {
			continue
		}
		expired++
	}
	return expired, nil
}

// Recycle reuses an AI-generated, non-customized, non-draft offer's content
// for a new draft on newTenantID (proposal.recycle), per Offer.Recyclable.
// newLeadID overrides the source's lead when the caller already resolved
// one for the destination tenant; empty keeps the source's lead.
func (g *Gate) Recycle(ctx context.Context, offerID, newTenantID, newLeadID string) (domain.Offer, error) {
	source, err := g.repo.Get(ctx, offerID)
	if err != nil {
		return domain.Offer{}, err
	}
	if !source.Recyclable() {
		return domain.Offer{}, apperror.New(apperror.InvalidTransition, apperror.ErrNotRecyclable)
	}
	leadID := source.LeadID
	if newLeadID != "" {
		leadID = newLeadID
	}
	clone := domain.Offer{
		ID:            uuid.NewString(),
		TenantID:      newTenantID,
		LeadID:        leadID,
		ProposalID:    source.ProposalID,
		Recipient:     source.Recipient,
		Subject:       source.Subject,
		HTMLBody:      source.HTMLBody,
		PlainTextBody: source.PlainTextBody,
		TrackingToken: domain.NewTrackingToken(),
		Status:        domain.OfferDraft,
		IsAIGenerated: true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := g.repo.Create(ctx, clone); err != nil {
		return domain.Offer{}, err
	}
	return clone, nil
}
