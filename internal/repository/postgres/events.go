package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// TrackingEventSchema is the DDL for the audit/replay log tracking.EventLogger
// writes to, independent of the Offer/suppression mutations an event
// accompanies.
const TrackingEventSchema = `
CREATE TABLE IF NOT EXISTS tracking_events (
	id           UUID PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	offer_id     UUID NOT NULL,
	message_id   TEXT,
	event_type   TEXT NOT NULL,
	ip_address   TEXT,
	user_agent   TEXT,
	url          TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS tracking_events_offer_idx ON tracking_events (offer_id, created_at);
`

// EventRepo implements tracking.EventLogger directly against Postgres. It
// is also the durable sink an SQS-fed consumer writes into when events are
// published to a queue ahead of persistence (internal/tracking.SQSPublisher).
type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Log(ctx context.Context, evt domain.TrackingEvent) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracking_events (id, tenant_id, offer_id, message_id, event_type, ip_address, user_agent, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, evt.ID, evt.TenantID, evt.OfferID, nullableString(evt.MessageID), evt.EventType,
		nullableString(evt.IPAddress), nullableString(evt.UserAgent), nullableString(evt.URL), evt.CreatedAt)
	return err
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
