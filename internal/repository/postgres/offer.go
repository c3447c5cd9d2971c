package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// OfferSchema is the DDL for offers, satisfying sendgate.Repository and
// tracking.Repository's two lookup paths: by opaque trackingToken (pixel,
// click, unsubscribe surfaces) and by the ESP's providerMessageId (webhook
// callbacks). Both columns carry a unique index since either can be used as
// a direct lookup key.
const OfferSchema = `
CREATE TABLE IF NOT EXISTS offers (
	id                   UUID PRIMARY KEY,
	tenant_id            TEXT NOT NULL,
	lead_id              UUID NOT NULL,
	proposal_id          UUID,
	recipient            TEXT NOT NULL,
	subject              TEXT NOT NULL,
	html_body            TEXT,
	plain_text_body      TEXT,
	tracking_token       TEXT NOT NULL UNIQUE,
	provider_message_id  TEXT UNIQUE,
	status               TEXT NOT NULL,
	rejection_reason     TEXT,
	submitted_at         TIMESTAMPTZ,
	approved_at          TIMESTAMPTZ,
	rejected_at          TIMESTAMPTZ,
	sent_at              TIMESTAMPTZ,
	opened_at            TIMESTAMPTZ,
	clicked_at           TIMESTAMPTZ,
	responded_at         TIMESTAMPTZ,
	converted_at         TIMESTAMPTZ,
	is_ai_generated      BOOLEAN NOT NULL DEFAULT FALSE,
	is_customized        BOOLEAN NOT NULL DEFAULT FALSE,
	proposal_type        TEXT NOT NULL DEFAULT 'cold_outreach',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS offers_tenant_status_idx ON offers (tenant_id, status);
`

const offerColumns = `
	id, tenant_id, lead_id, proposal_id, recipient, subject, html_body, plain_text_body,
	tracking_token, provider_message_id, status, rejection_reason,
	submitted_at, approved_at, rejected_at, sent_at, opened_at, clicked_at, responded_at, converted_at,
	is_ai_generated, is_customized, proposal_type, created_at
`

// OfferRepo implements sendgate.Repository and tracking.Repository against
// PostgreSQL, one concrete type satisfying both narrow interfaces.
type OfferRepo struct{ db *sql.DB }

func NewOfferRepo(db *sql.DB) *OfferRepo { return &OfferRepo{db: db} }

func scanOffer(row interface{ Scan(...interface{}) error }) (domain.Offer, error) {
	var o domain.Offer
	var proposalID, htmlBody, plainText, providerMessageID, rejectionReason sql.NullString
	var submittedAt, approvedAt, rejectedAt, sentAt, openedAt, clickedAt, respondedAt, convertedAt sql.NullTime

	err := row.Scan(
		&o.ID, &o.TenantID, &o.LeadID, &proposalID, &o.Recipient, &o.Subject, &htmlBody, &plainText,
		&o.TrackingToken, &providerMessageID, &o.Status, &rejectionReason,
		&submittedAt, &approvedAt, &rejectedAt, &sentAt, &openedAt, &clickedAt, &respondedAt, &convertedAt,
		&o.IsAIGenerated, &o.IsCustomized, &o.ProposalType, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	o.ProposalID = proposalID.String
	o.HTMLBody = htmlBody.String
	o.PlainTextBody = plainText.String
	o.ProviderMessageID = providerMessageID.String
	o.RejectionReason = rejectionReason.String
	o.SubmittedAt = timePtr(submittedAt)
	o.ApprovedAt = timePtr(approvedAt)
	o.RejectedAt = timePtr(rejectedAt)
	o.SentAt = timePtr(sentAt)
	o.OpenedAt = timePtr(openedAt)
	o.ClickedAt = timePtr(clickedAt)
	o.RespondedAt = timePtr(respondedAt)
	o.ConvertedAt = timePtr(convertedAt)
	return o, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (r *OfferRepo) Get(ctx context.Context, offerID string) (domain.Offer, error) {
	o, err := scanOffer(r.db.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, offerID))
	if err != nil {
		return o, fmt.Errorf("get offer %s: %w", offerID, err)
	}
	return o, nil
}

func (r *OfferRepo) GetByToken(ctx context.Context, token string) (domain.Offer, bool, error) {
	o, err := scanOffer(r.db.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE tracking_token = $1`, token))
	if err == sql.ErrNoRows {
		return o, false, nil
	}
	if err != nil {
		return o, false, fmt.Errorf("get offer by token: %w", err)
	}
	return o, true, nil
}

func (r *OfferRepo) GetByMessageID(ctx context.Context, messageID string) (domain.Offer, bool, error) {
	o, err := scanOffer(r.db.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE provider_message_id = $1`, messageID))
	if err == sql.ErrNoRows {
		return o, false, nil
	}
	if err != nil {
		return o, false, fmt.Errorf("get offer by message id: %w", err)
	}
	return o, true, nil
}

// Transition persists the full row, since the gate mutates exactly one
// status plus at most one first-write timestamp at a time and the row is
// small enough that a blanket UPDATE is simpler than diffing columns.
func (r *OfferRepo) Transition(ctx context.Context, o domain.Offer) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE offers SET
			status = $2, rejection_reason = $3,
			provider_message_id = $4,
			submitted_at = $5, approved_at = $6, rejected_at = $7, sent_at = $8,
			opened_at = $9, clicked_at = $10, responded_at = $11, converted_at = $12
		WHERE id = $1
	`, o.ID, o.Status, nullString(o.RejectionReason), nullString(o.ProviderMessageID),
		o.SubmittedAt, o.ApprovedAt, o.RejectedAt, o.SentAt,
		o.OpenedAt, o.ClickedAt, o.RespondedAt, o.ConvertedAt)
	if err != nil {
		return fmt.Errorf("transition offer %s: %w", o.ID, err)
	}
	return nil
}

// Create inserts a new offer, e.g. from proposal.recycle's clone or the
// initial draft produced by offer generation upstream of this package.
func (r *OfferRepo) Create(ctx context.Context, o domain.Offer) error {
	proposalType := o.ProposalType
	if proposalType == "" {
		proposalType = "cold_outreach"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO offers (id, tenant_id, lead_id, proposal_id, recipient, subject, html_body,
			plain_text_body, tracking_token, status, is_ai_generated, is_customized, proposal_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
	`, o.ID, o.TenantID, o.LeadID, nullString(o.ProposalID), o.Recipient, o.Subject, nullString(o.HTMLBody),
		nullString(o.PlainTextBody), o.TrackingToken, o.Status, o.IsAIGenerated, o.IsCustomized, proposalType)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	return nil
}

// ExpiryCandidates lists offers in pending_approval past submitted_at or in
// approved past approved_at, relative to cutoff.
func (r *OfferRepo) ExpiryCandidates(ctx context.Context, cutoff time.Time) ([]domain.Offer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE (status = 'pending_approval' AND submitted_at < $1)
		   OR (status = 'approved' AND approved_at < $1)
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("expiry candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expiry candidate: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// FindRecyclable returns the first recyclable offer (AI-generated,
// non-customized, non-draft) matching industry+proposalType, joined through
// leads for the industry dimension.
func (r *OfferRepo) FindRecyclable(ctx context.Context, industry, proposalType string) (domain.Offer, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT o.id, o.tenant_id, o.lead_id, o.proposal_id, o.recipient, o.subject, o.html_body, o.plain_text_body,
		       o.tracking_token, o.provider_message_id, o.status, o.rejection_reason,
		       o.submitted_at, o.approved_at, o.rejected_at, o.sent_at, o.opened_at, o.clicked_at, o.responded_at, o.converted_at,
		       o.is_ai_generated, o.is_customized, o.proposal_type, o.created_at
		FROM offers o
		JOIN leads l ON l.id = o.lead_id
		WHERE o.is_ai_generated AND NOT o.is_customized AND o.status != 'draft'
		  AND o.proposal_type = $1 AND l.industry = $2
		ORDER BY o.created_at DESC
		LIMIT 1
	`, proposalType, industry)
	o, err := scanOffer(row)
	if err == sql.ErrNoRows {
		return o, false, nil
	}
	if err != nil {
		return o, false, fmt.Errorf("find recyclable offer: %w", err)
	}
	return o, true, nil
}
