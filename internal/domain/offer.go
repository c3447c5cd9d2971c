package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// OfferStatus is a node in the offer send-gate state machine.
type OfferStatus string

const (
	OfferDraft           OfferStatus = "draft"
	OfferPendingApproval OfferStatus = "pending_approval"
	OfferApproved        OfferStatus = "approved"
	OfferRejected        OfferStatus = "rejected"
	OfferSent            OfferStatus = "sent"
	OfferOpened          OfferStatus = "opened"
	OfferClicked         OfferStatus = "clicked"
	OfferResponded       OfferStatus = "responded"
	OfferConverted       OfferStatus = "converted"
)

// offerTransitions enumerates the legal (from, event) -> to edges. Anything
// not listed here must fail with an InvalidTransition error.
var offerTransitions = map[OfferStatus]map[string]OfferStatus{
	OfferDraft:           {"submit": OfferPendingApproval},
	OfferPendingApproval: {"approve": OfferApproved, "reject": OfferRejected, "expire": OfferRejected},
	OfferApproved:        {"send": OfferSent, "reject": OfferRejected, "expire": OfferRejected},
	OfferSent:            {"open": OfferOpened, "click": OfferClicked},
	OfferOpened:          {"open": OfferOpened, "click": OfferClicked},
	OfferClicked:         {"click": OfferClicked, "respond": OfferResponded},
	OfferResponded:       {"respond": OfferResponded, "convert": OfferConverted},
	OfferConverted:       {"convert": OfferConverted},
}

// Next returns the resulting status for the given event, or ok=false if the
// transition is not legal from the current status.
func (s OfferStatus) Next(event string) (OfferStatus, bool) {
	edges, ok := offerTransitions[s]
	if !ok {
		return s, false
	}
	next, ok := edges[event]
	return next, ok
}

// IsTerminal reports whether the status is the sole terminal state.
func (s OfferStatus) IsTerminal() bool {
	return s == OfferConverted
}

// Offer is an outbound communication derived from a Proposal, owned by a
// Tenant and linked to a Lead.
type Offer struct {
	ID                string      `json:"id" db:"id"`
	TenantID          string      `json:"tenantId" db:"tenant_id"`
	LeadID            string      `json:"leadId" db:"lead_id"`
	ProposalID        string      `json:"proposalId,omitempty" db:"proposal_id"`
	Recipient         string      `json:"recipient" db:"recipient"`
	Subject           string      `json:"subject" db:"subject"`
	HTMLBody          string      `json:"htmlBody,omitempty" db:"html_body"`
	PlainTextBody     string      `json:"plainTextBody,omitempty" db:"plain_text_body"`
	TrackingToken     string      `json:"trackingToken" db:"tracking_token"`
	ProviderMessageID string      `json:"providerMessageId,omitempty" db:"provider_message_id"`
	Status            OfferStatus `json:"status" db:"status"`
	RejectionReason   string      `json:"rejectionReason,omitempty" db:"rejection_reason"`
	// ProposalType denormalizes the originating proposal's template family
	// (e.g. "cold_outreach", "reengagement"), so proposal.recyclable can be
	// scoped by industry+type without joining proposal internals, which
	// are not modeled here.
	ProposalType string `json:"proposalType,omitempty" db:"proposal_type"`

	SubmittedAt  *time.Time `json:"submittedAt,omitempty" db:"submitted_at"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty" db:"approved_at"`
	RejectedAt   *time.Time `json:"rejectedAt,omitempty" db:"rejected_at"`
	SentAt       *time.Time `json:"sentAt,omitempty" db:"sent_at"`
	OpenedAt     *time.Time `json:"openedAt,omitempty" db:"opened_at"`
	ClickedAt    *time.Time `json:"clickedAt,omitempty" db:"clicked_at"`
	RespondedAt  *time.Time `json:"respondedAt,omitempty" db:"responded_at"`
	ConvertedAt  *time.Time `json:"convertedAt,omitempty" db:"converted_at"`

	IsAIGenerated bool `json:"isAiGenerated" db:"is_ai_generated"`
	IsCustomized  bool `json:"isCustomized" db:"is_customized"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Recyclable reports whether the offer is eligible for proposal.recycle:
// an AI-generated, non-customized, non-draft offer.
func (o Offer) Recyclable() bool {
	return o.IsAIGenerated && !o.IsCustomized && o.Status != OfferDraft
}

// NewTrackingToken generates the 64 hex-character token bound to one
// Offer, from 32 cryptographically random bytes.
func NewTrackingToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("domain: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
