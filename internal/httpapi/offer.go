package httpapi

import (
	"errors"
	"net/http"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/pkg/httputil"
)

// offerIDBody is the common request shape for the single-offer lifecycle
// commands.
type offerIDBody struct {
	OfferID string `json:"offerId"`
	Reason  string `json:"reason,omitempty"`
}

// writeOffer renders a Gate result, mapping an apperror.Kind to its HTTP
// status (409 on InvalidTransition) instead of always 500.
func writeOffer(w http.ResponseWriter, offer domain.Offer, err error) {
	if err != nil {
		writeAppError(w, err)
		return
	}
	httputil.OK(w, offer)
}

func writeAppError(w http.ResponseWriter, err error) {
	kind := apperror.KindOf(err)
	var ae *apperror.Error
	if errors.As(err, &ae) {
		httputil.ErrorWith(w, kind.HTTPStatus(), ae.Error(), ae.Hint, ae.Context)
		return
	}
	httputil.Error(w, kind.HTTPStatus(), err.Error())
}

func (h *Handlers) handleOfferSubmit(w http.ResponseWriter, r *http.Request) {
	var b offerIDBody
	if !httputil.Decode(w, r, &b) {
		return
	}
	offer, err := h.Gate.Submit(r.Context(), b.OfferID)
	writeOffer(w, offer, err)
}

func (h *Handlers) handleOfferApprove(w http.ResponseWriter, r *http.Request) {
	var b offerIDBody
	if !httputil.Decode(w, r, &b) {
		return
	}
	offer, err := h.Gate.Approve(r.Context(), b.OfferID)
	writeOffer(w, offer, err)
}

func (h *Handlers) handleOfferReject(w http.ResponseWriter, r *http.Request) {
	var b offerIDBody
	if !httputil.Decode(w, r, &b) {
		return
	}
	offer, err := h.Gate.Reject(r.Context(), b.OfferID, b.Reason)
	writeOffer(w, offer, err)
}

func (h *Handlers) handleOfferResponded(w http.ResponseWriter, r *http.Request) {
	var b offerIDBody
	if !httputil.Decode(w, r, &b) {
		return
	}
	offer, err := h.Gate.RecordResponse(r.Context(), b.OfferID)
	writeOffer(w, offer, err)
}

func (h *Handlers) handleOfferConverted(w http.ResponseWriter, r *http.Request) {
	var b offerIDBody
	if !httputil.Decode(w, r, &b) {
		return
	}
	offer, err := h.Gate.RecordConversion(r.Context(), b.OfferID)
	writeOffer(w, offer, err)
}

// offerPreview is the response shape for offer.preview.
type offerPreview struct {
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	PlainTextBody string `json:"plainTextBody"`
	Recipient     string `json:"recipient"`
	TrackingToken string `json:"trackingToken"`
}

func (h *Handlers) handleOfferPreview(w http.ResponseWriter, r *http.Request) {
	offerID := r.URL.Query().Get("offerId")
	if offerID == "" {
		httputil.BadRequest(w, "offerId is required")
		return
	}
	offer, err := h.Offers.Get(r.Context(), offerID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	httputil.OK(w, offerPreview{
		Subject:       offer.Subject,
		Body:          offer.HTMLBody,
		PlainTextBody: offer.PlainTextBody,
		Recipient:     offer.Recipient,
		TrackingToken: offer.TrackingToken,
	})
}

// rateLimitsResponse is the response shape for offer.rateLimits.
type rateLimitsResponse struct {
	User      string             `json:"user"`
	Domain    string             `json:"domain,omitempty"`
	Limits    domain.RateLimits  `json:"limits"`
	Usage     ratelimitUsageView `json:"usage"`
	Remaining ratelimitUsageView `json:"remaining"`
}

type ratelimitUsageView struct {
	Day       int64 `json:"day"`
	Hour      int64 `json:"hour"`
	DomainDay int64 `json:"domainDay,omitempty"`
}

func (h *Handlers) handleOfferRateLimits(w http.ResponseWriter, r *http.Request) {
	userCode := r.URL.Query().Get("userCode")
	recipientDomain := r.URL.Query().Get("domain")
	if userCode == "" {
		httputil.BadRequest(w, "userCode is required")
		return
	}
	tenant, err := h.Tenants.GetByUserCode(r.Context(), userCode)
	if err != nil {
		writeAppError(w, err)
		return
	}
	result, err := h.Limiter.Evaluate(r.Context(), tenant.ID, tenant.RateLimits, recipientDomain)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, rateLimitsResponse{
		User:   userCode,
		Domain: recipientDomain,
		Limits: result.Limits,
		Usage: ratelimitUsageView{
			Day: result.Usage.Day, Hour: result.Usage.Hour, DomainDay: result.Usage.DomainDay,
		},
		Remaining: ratelimitUsageView{
			Day: result.Remaining.Day, Hour: result.Remaining.Hour, DomainDay: result.Remaining.DomainDay,
		},
	})
}
