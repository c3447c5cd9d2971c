package tracking

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/pkg/logger"
)

// pixelGIF is a static 1x1 transparent GIF served for every open-pixel
// request, valid token or not: missing/invalid tokens still get the GIF
// rather than a response that leaks existence.
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// offerOpenable is the set of Offer statuses the Open/Click side effect
// applies to: anything at or past sent.
var offerOpenable = map[domain.OfferStatus]bool{
	domain.OfferSent:      true,
	domain.OfferOpened:    true,
	domain.OfferClicked:   true,
	domain.OfferResponded: true,
	domain.OfferConverted: true,
}

// allowedClickSchemes are the only URL schemes the click redirect
// accepts; javascript:, data:, ftp:, and the rest are rejected with 400.
var allowedClickSchemes = map[string]bool{
	"http":  true,
	"https": true,
}

// Ingestor serves the pixel, click-redirect, and unsubscribe HTTP surfaces.
type Ingestor struct {
	Repo        Repository
	Gate        Gate
	Suppression SuppressionAdder
	Engagement  EngagementRecorder // optional
	Events      EventLogger        // optional
}

func NewIngestor(repo Repository, gate Gate, suppression SuppressionAdder) *Ingestor {
	return &Ingestor{Repo: repo, Gate: gate, Suppression: suppression}
}

// Routes mounts the tracking endpoints:
// GET /api/track/open/{token}, GET /api/track/click/{token}, and the
// unsubscribe form at /unsubscribe/{token}.
func (in *Ingestor) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/track/open/{token}", in.HandleOpen)
	r.Get("/api/track/click/{token}", in.HandleClick)
	r.Get("/unsubscribe/{token}", in.HandleUnsubscribeForm)
	r.Post("/unsubscribe/{token}", in.HandleUnsubscribeSubmit)
	return r
}

func (in *Ingestor) HandleOpen(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	offer, ok, err := in.Repo.GetByToken(r.Context(), token)
	if err != nil {
		logger.Error("tracking: lookup by token failed", "error", err.Error())
	}
	if ok {
		in.recordOpen(r, offer)
	}
	servePixel(w)
}

func (in *Ingestor) HandleClick(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	target := r.URL.Query().Get("url")

	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme == "" || !allowedClickSchemes[parsed.Scheme] {
		http.Error(w, "invalid or disallowed url scheme", http.StatusBadRequest)
		return
	}

	offer, ok, err := in.Repo.GetByToken(r.Context(), token)
	if err != nil {
		logger.Error("tracking: lookup by token failed", "error", err.Error())
	}
	if ok {
		in.recordOpen(r, offer)
		in.recordClick(r, offer)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// recordOpen advances the offer to at least opened and logs the event.
// Invalid/unresolvable tokens never reach here: no info leak via the
// response, but nothing to mutate either.
func (in *Ingestor) recordOpen(r *http.Request, offer domain.Offer) {
	if !offerOpenable[offer.Status] {
		return
	}
	if _, err := in.Gate.RecordOpen(r.Context(), offer.ID); err != nil {
		logger.Error("tracking: record open failed", "offer_id", offer.ID, "error", err.Error())
		return
	}
	in.logEvent(r, offer, domain.EventOpen, "")
	in.recordEngagement(r, offer, domain.EventOpen)
}

func (in *Ingestor) recordClick(r *http.Request, offer domain.Offer) {
	if !offerOpenable[offer.Status] {
		return
	}
	target := r.URL.Query().Get("url")
	if _, err := in.Gate.RecordClick(r.Context(), offer.ID); err != nil {
		logger.Error("tracking: record click failed", "offer_id", offer.ID, "error", err.Error())
		return
	}
	in.logEvent(r, offer, domain.EventClick, target)
	in.recordEngagement(r, offer, domain.EventClick)
}

func (in *Ingestor) recordEngagement(r *http.Request, offer domain.Offer, kind domain.TrackingEventType) {
	if in.Engagement == nil {
		return
	}
	if err := in.Engagement.RecordEngagement(r.Context(), offer.LeadID, kind, time.Now().UTC()); err != nil {
		logger.Warn("tracking: engagement recompute failed", "lead_id", offer.LeadID, "error", err.Error())
	}
}

func (in *Ingestor) logEvent(r *http.Request, offer domain.Offer, kind domain.TrackingEventType, linkURL string) {
	if in.Events == nil {
		return
	}
	evt := domain.TrackingEvent{
		TenantID:  offer.TenantID,
		OfferID:   offer.ID,
		MessageID: offer.ProviderMessageID,
		EventType: kind,
		IPAddress: realIP(r),
		UserAgent: r.UserAgent(),
		URL:       linkURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := in.Events.Log(r.Context(), evt); err != nil {
		logger.Warn("tracking: event log failed", "offer_id", offer.ID, "error", err.Error())
	}
}

func (in *Ingestor) HandleUnsubscribeForm(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`<!DOCTYPE html><html><body style="font-family:Arial,sans-serif;text-align:center;padding:50px;">
<h1>Unsubscribe</h1>
<p>Confirm you no longer wish to receive these emails.</p>
<form method="POST" action="/unsubscribe/` + htmlEscape(token) + `">
<button type="submit">Unsubscribe</button>
</form>
</body></html>`))
}

// HandleUnsubscribeSubmit processes the unsubscribe, adding a per-tenant
// suppression entry keyed by the offer's tenant and recipient email.
// Idempotent: a second submission for an already-suppressed recipient is not
// an error (Store.Add upserts).
func (in *Ingestor) HandleUnsubscribeSubmit(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	offer, ok, err := in.Repo.GetByToken(r.Context(), token)
	if err != nil {
		logger.Error("tracking: lookup by token failed", "error", err.Error())
	}
	if ok {
		if _, err := in.Suppression.Add(r.Context(), offer.Recipient, domain.ReasonUnsubscribe, offer.TenantID); err != nil {
			logger.Error("tracking: unsubscribe suppress failed", "offer_id", offer.ID, "error", err.Error())
		}
		in.logEvent(r, offer, domain.EventUnsubscribe, "")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`<!DOCTYPE html><html><body style="font-family:Arial,sans-serif;text-align:center;padding:50px;">
<h1>You have been unsubscribed</h1>
<p>You will no longer receive emails from us.</p>
</body></html>`))
}

func servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(pixelGIF)
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func htmlEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '>', '"', '\'', '&':
			continue
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
