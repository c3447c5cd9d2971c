package tracking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

type fakeRepo struct {
	byToken     map[string]domain.Offer
	byMessageID map[string]domain.Offer
}

func (r *fakeRepo) GetByToken(ctx context.Context, token string) (domain.Offer, bool, error) {
	o, ok := r.byToken[token]
	return o, ok, nil
}

func (r *fakeRepo) GetByMessageID(ctx context.Context, messageID string) (domain.Offer, bool, error) {
	o, ok := r.byMessageID[messageID]
	return o, ok, nil
}

type fakeGate struct {
	opened, clicked []string
}

func (g *fakeGate) RecordOpen(ctx context.Context, offerID string) (domain.Offer, error) {
	g.opened = append(g.opened, offerID)
	return domain.Offer{ID: offerID}, nil
}

func (g *fakeGate) RecordClick(ctx context.Context, offerID string) (domain.Offer, error) {
	g.clicked = append(g.clicked, offerID)
	return domain.Offer{ID: offerID}, nil
}

func (g *fakeGate) RecordResponse(ctx context.Context, offerID string) (domain.Offer, error) {
	return domain.Offer{ID: offerID}, nil
}

type fakeSuppressionAdder struct {
	added []domain.SuppressionReason
}

func (f *fakeSuppressionAdder) Add(ctx context.Context, email string, reason domain.SuppressionReason, tenantID string) (domain.Suppression, error) {
	f.added = append(f.added, reason)
	return domain.Suppression{Email: email, Reason: reason, TenantID: tenantID}, nil
}

func TestHandleOpen_ValidTokenRecordsOpenAndServesGIF(t *testing.T) {
	repo := &fakeRepo{byToken: map[string]domain.Offer{
		"tok1": {ID: "o1", Status: domain.OfferSent},
	}}
	gate := &fakeGate{}
	in := NewIngestor(repo, gate, &fakeSuppressionAdder{})

	req := httptest.NewRequest(http.MethodGet, "/api/track/open/tok1", nil)
	w := httptest.NewRecorder()
	addChiParam(req, "token", "tok1")
	in.HandleOpen(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("Content-Type") != "image/gif" {
		t.Errorf("content-type = %q, want image/gif", w.Header().Get("Content-Type"))
	}
	if len(gate.opened) != 1 || gate.opened[0] != "o1" {
		t.Errorf("expected open recorded for o1, got %v", gate.opened)
	}
}

func TestHandleOpen_InvalidTokenStillServesGIFAndNoMutation(t *testing.T) {
	repo := &fakeRepo{byToken: map[string]domain.Offer{}}
	gate := &fakeGate{}
	in := NewIngestor(repo, gate, &fakeSuppressionAdder{})

	req := httptest.NewRequest(http.MethodGet, "/api/track/open/nonexistent", nil)
	w := httptest.NewRecorder()
	addChiParam(req, "token", "nonexistent")
	in.HandleOpen(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(gate.opened) != 0 {
		t.Error("invalid token must not mutate any offer")
	}
}

func TestHandleClick_JavascriptSchemeRejected(t *testing.T) {
	repo := &fakeRepo{byToken: map[string]domain.Offer{
		"tok1": {ID: "o1", Status: domain.OfferSent},
	}}
	gate := &fakeGate{}
	in := NewIngestor(repo, gate, &fakeSuppressionAdder{})

	req := httptest.NewRequest(http.MethodGet, "/api/track/click/tok1?url=javascript:alert(1)", nil)
	w := httptest.NewRecorder()
	addChiParam(req, "token", "tok1")
	in.HandleClick(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(gate.clicked) != 0 {
		t.Error("disallowed scheme must not mutate offer state")
	}
}

func TestHandleClick_ValidURLRedirects(t *testing.T) {
	repo := &fakeRepo{byToken: map[string]domain.Offer{
		"tok1": {ID: "o1", Status: domain.OfferSent},
	}}
	gate := &fakeGate{}
	in := NewIngestor(repo, gate, &fakeSuppressionAdder{})

	req := httptest.NewRequest(http.MethodGet, "/api/track/click/tok1?url=https://example.com/landing", nil)
	w := httptest.NewRecorder()
	addChiParam(req, "token", "tok1")
	in.HandleClick(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://example.com/landing" {
		t.Errorf("Location = %q", loc)
	}
	if len(gate.clicked) != 1 {
		t.Error("expected click recorded")
	}
}

func TestWebhook_HardBounceGlobalSuppression(t *testing.T) {
	repo := &fakeRepo{byMessageID: map[string]domain.Offer{
		"M1": {ID: "o1", TenantID: "t1", Recipient: "x@y.com", Status: domain.OfferSent},
	}}
	suppression := &fakeSuppressionAdder{}
	in := NewIngestor(repo, &fakeGate{}, suppression)

	body := `{"Type":"Notification","Message":"{\"notificationType\":\"Bounce\",\"bounce\":{\"bounceType\":\"Permanent\"},\"mail\":{\"messageId\":\"M1\"}}"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/provider", stringsReader(body))
	w := httptest.NewRecorder()
	in.WebhookHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(suppression.added) != 1 || suppression.added[0] != domain.ReasonHardBounce {
		t.Errorf("expected hard_bounce suppression, got %v", suppression.added)
	}
}

func TestWebhook_UnknownMessageIDGracefullyAcknowledged(t *testing.T) {
	repo := &fakeRepo{byMessageID: map[string]domain.Offer{}}
	in := NewIngestor(repo, &fakeGate{}, &fakeSuppressionAdder{})

	body := `{"Type":"Notification","Message":"{\"notificationType\":\"Bounce\",\"bounce\":{\"bounceType\":\"Permanent\"},\"mail\":{\"messageId\":\"unknown\"}}"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/provider", stringsReader(body))
	w := httptest.NewRecorder()
	in.WebhookHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestWebhook_UnknownTypeIgnored(t *testing.T) {
	in := NewIngestor(&fakeRepo{}, &fakeGate{}, &fakeSuppressionAdder{})

	body := `{"Type":"Notification","Message":"{\"notificationType\":\"SomethingElse\"}"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/provider", stringsReader(body))
	w := httptest.NewRecorder()
	in.WebhookHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestWebhook_SubscriptionConfirmationWithoutURL(t *testing.T) {
	in := NewIngestor(&fakeRepo{}, &fakeGate{}, &fakeSuppressionAdder{})

	body := `{"Type":"SubscriptionConfirmation"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/provider", stringsReader(body))
	w := httptest.NewRecorder()
	in.WebhookHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
