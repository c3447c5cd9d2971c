package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/pkg/logger"
)

// envelope is the provider-agnostic outer shape of a callback POST:
// {Type, Message|Payload}. SNS/SES wraps the real notification as a JSON
// string in Message; other providers may post the notification directly as
// Payload.
type envelope struct {
	Type         string          `json:"Type"`
	Message      string          `json:"Message"`
	Payload      json.RawMessage `json:"Payload"`
	SubscribeURL string          `json:"SubscribeURL"`
}

// notification is the parsed SES-style payload, regardless of whether it
// arrived nested in Message or directly as Payload.
type notification struct {
	NotificationType string `json:"notificationType"`
	Mail             struct {
		MessageID string `json:"messageId"`
	} `json:"mail"`
	Bounce *struct {
		BounceType string `json:"bounceType"`
	} `json:"bounce,omitempty"`
	Complaint *struct{} `json:"complaint,omitempty"`
}

// webhookResult is the JSON body returned to the provider
// (ignored / subscription_confirmed / per-type outcomes).
type webhookResult struct {
	Status string `json:"status"`
}

// WebhookHandler returns an http.HandlerFunc that ingests provider
// callbacks: Bounce (hard->global, soft->per-tenant suppression),
// Complaint (global suppression), Delivery (acknowledged, no state
// change), Open/Click (offer state),
// unknown messageIds logged and acknowledged, unknown types "ignored", and
// the SNS subscription-confirmation handshake short-circuited when no
// confirmation URL is present.
func (in *Ingestor) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		// The subscription-confirmation message type returns
		// subscription_confirmed without attempting the handshake if the
		// confirmation URL is absent. When a URL is present we still don't
		// perform the handshake here (an outbound confirmation GET is a
		// deployment concern, not a correctness one for this ingestor) but
		// report the same status either way.
		if env.Type == "SubscriptionConfirmation" {
			writeJSON(w, webhookResult{Status: "subscription_confirmed"})
			return
		}

		raw := env.Payload
		if len(raw) == 0 && env.Message != "" {
			raw = json.RawMessage(env.Message)
		}
		if len(raw) == 0 {
			writeJSON(w, webhookResult{Status: "ignored"})
			return
		}

		var n notification
		if err := json.Unmarshal(raw, &n); err != nil {
			logger.Error("tracking: webhook payload parse failed", "error", err.Error())
			writeJSON(w, webhookResult{Status: "ignored"})
			return
		}

		status := in.handleNotification(r.Context(), n)
		writeJSON(w, webhookResult{Status: status})
	}
}

// ProcessJobEvent replays one process_tracking_event job body
// through the same handleNotification path the synchronous webhook uses.
// The HTTP webhook (WebhookHandler) stays the primary ingestion path since
// providers expect a request/response contract an async job can't honor; this
// exists for callers that enqueue a raw notification for deferred or
// replayed processing instead of handling it inline.
func (in *Ingestor) ProcessJobEvent(ctx context.Context, body string) error {
	var n notification
	if err := json.Unmarshal([]byte(body), &n); err != nil {
		return fmt.Errorf("decode process_tracking_event body: %w", err)
	}
	in.handleNotification(ctx, n)
	return nil
}

// handleNotification routes by the provider's messageId.
// Unknown messageIds log and return "not_found" but still 200 (graceful);
// unknown notification types return "ignored" without a lookup.
func (in *Ingestor) handleNotification(ctx context.Context, n notification) string {
	switch n.NotificationType {
	case "Bounce":
		return in.handleBounce(ctx, n)
	case "Complaint":
		return in.handleComplaint(ctx, n)
	case "Delivery":
		return "delivered"
	case "Open":
		return in.handleRemoteOpen(ctx, n)
	case "Click":
		return in.handleRemoteClick(ctx, n)
	default:
		return "ignored"
	}
}

func (in *Ingestor) lookupByMessageID(ctx context.Context, messageID string) (domain.Offer, bool) {
	if messageID == "" {
		return domain.Offer{}, false
	}
	offer, ok, err := in.Repo.GetByMessageID(ctx, messageID)
	if err != nil {
		logger.Error("tracking: lookup by messageId failed", "message_id", messageID, "error", err.Error())
		return domain.Offer{}, false
	}
	if !ok {
		logger.Warn("tracking: webhook messageId not found", "message_id", messageID)
	}
	return offer, ok
}

// handleBounce sub-types Permanent (hard, global suppression) vs everything
// else (soft, per-tenant suppression).
func (in *Ingestor) handleBounce(ctx context.Context, n notification) string {
	offer, ok := in.lookupByMessageID(ctx, n.Mail.MessageID)
	if !ok {
		return "not_found"
	}
	reason := domain.ReasonSoftBounce
	tenant := offer.TenantID
	if n.Bounce != nil && n.Bounce.BounceType == "Permanent" {
		reason = domain.ReasonHardBounce
		tenant = "" // global
	}
	if _, err := in.Suppression.Add(ctx, offer.Recipient, reason, tenant); err != nil {
		logger.Error("tracking: bounce suppress failed", "offer_id", offer.ID, "error", err.Error())
	}
	in.logNotificationEvent(ctx, offer, domain.EventBounce)
	return string(reason)
}

func (in *Ingestor) handleComplaint(ctx context.Context, n notification) string {
	offer, ok := in.lookupByMessageID(ctx, n.Mail.MessageID)
	if !ok {
		return "not_found"
	}
	if _, err := in.Suppression.Add(ctx, offer.Recipient, domain.ReasonComplaint, ""); err != nil {
		logger.Error("tracking: complaint suppress failed", "offer_id", offer.ID, "error", err.Error())
	}
	in.logNotificationEvent(ctx, offer, domain.EventComplaint)
	return "complaint"
}

func (in *Ingestor) handleRemoteOpen(ctx context.Context, n notification) string {
	offer, ok := in.lookupByMessageID(ctx, n.Mail.MessageID)
	if !ok {
		return "not_found"
	}
	if offerOpenable[offer.Status] {
		if _, err := in.Gate.RecordOpen(ctx, offer.ID); err != nil {
			logger.Error("tracking: webhook record open failed", "offer_id", offer.ID, "error", err.Error())
		}
	}
	in.logNotificationEvent(ctx, offer, domain.EventOpen)
	return "opened"
}

func (in *Ingestor) handleRemoteClick(ctx context.Context, n notification) string {
	offer, ok := in.lookupByMessageID(ctx, n.Mail.MessageID)
	if !ok {
		return "not_found"
	}
	if offerOpenable[offer.Status] {
		if _, err := in.Gate.RecordClick(ctx, offer.ID); err != nil {
			logger.Error("tracking: webhook record click failed", "offer_id", offer.ID, "error", err.Error())
		}
	}
	in.logNotificationEvent(ctx, offer, domain.EventClick)
	return "clicked"
}

func (in *Ingestor) logNotificationEvent(ctx context.Context, offer domain.Offer, kind domain.TrackingEventType) {
	if in.Events == nil {
		return
	}
	evt := domain.TrackingEvent{
		TenantID:  offer.TenantID,
		OfferID:   offer.ID,
		MessageID: offer.ProviderMessageID,
		EventType: kind,
		CreatedAt: time.Now().UTC(),
	}
	if err := in.Events.Log(ctx, evt); err != nil {
		logger.Warn("tracking: webhook event log failed", "offer_id", offer.ID, "error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	b, _ := json.Marshal(v)
	w.Write(b)
}
