// Package jobs adapts the external-collaborator job kinds into
// dispatcher.Handler functions. The concrete extractors, the AI proposal/
// offer generators, and the ARES company-lookup client live outside this
// repo: every handler here decodes its job body and delegates to a narrow
// interface an operator wires to the real implementation, the same
// accept-interfaces shape internal/service/sending/interfaces.go uses for
// the mail-transport client.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/pkg/logger"
	"github.com/ignite/outreach-orchestrator/internal/urlcanon"
)

func decode(body string, dst interface{}) error {
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return apperror.New(apperror.PermanentFailure, fmt.Errorf("decode job body: %w", err))
	}
	return nil
}

// asRetryable wraps err as UpstreamUnavailable unless it already carries a
// kind, so a collaborator's PermanentFailure is not masked into a retry.
func asRetryable(err error) error {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperror.New(apperror.UpstreamUnavailable, err)
}

// OfferSender is the subset of sendgate.Gate the send_email job needs.
type OfferSender interface {
	Send(ctx context.Context, offerID, tenantID, recipientDomain string) (domain.Offer, error)
}

// OfferLookup resolves an offer's tenant and recipient so send_email's body
// (just an offerId) can derive the recipient domain it needs to
// pass to the gate.
type OfferLookup interface {
	Get(ctx context.Context, offerID string) (domain.Offer, error)
}

// SendEmailBody is the decoded body of a send_email job.
type SendEmailBody struct {
	OfferID string `json:"offerId"`
}

// SendEmailHandler drives the send gate for a queued offer. Idempotent on
// offerId: a retry against an already-sent offer hits the "send" transition
// guard and is consumed as a no-op. A suppressed recipient has already been
// rejected by the gate, so the job is likewise consumed with a warning
// rather than retried; only rate-limit and transmit failures propagate into
// the queue's retry policy.
func SendEmailHandler(lookup OfferLookup, sender OfferSender) func(ctx context.Context, body string) error {
	return func(ctx context.Context, body string) error {
		var b SendEmailBody
		if err := decode(body, &b); err != nil {
			return err
		}
		if b.OfferID == "" {
			return apperror.New(apperror.PermanentFailure, fmt.Errorf("send_email body missing offerId"))
		}
		offer, err := lookup.Get(ctx, b.OfferID)
		if err != nil {
			return asRetryable(err)
		}
		if _, err := sender.Send(ctx, b.OfferID, offer.TenantID, urlcanon.DomainOf(offer.Recipient)); err != nil {
			switch apperror.KindOf(err) {
			case apperror.Suppressed:
				logger.Warn("send_email: recipient suppressed, offer rejected", "offer_id", b.OfferID)
				return nil
			case apperror.InvalidTransition:
				logger.Warn("send_email: offer not in a sendable status, skipping", "offer_id", b.OfferID)
				return nil
			}
			return err
		}
		return nil
	}
}
