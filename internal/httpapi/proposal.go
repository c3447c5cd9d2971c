package httpapi

import (
	"net/http"

	"github.com/ignite/outreach-orchestrator/internal/pkg/httputil"
)

// proposalRecyclableResponse is the response shape for proposal.recyclable.
type proposalRecyclableResponse struct {
	Industry            string `json:"industry"`
	Type                string `json:"type"`
	RecyclableAvailable bool   `json:"recyclableAvailable"`
}

func (h *Handlers) handleProposalRecyclable(w http.ResponseWriter, r *http.Request) {
	industry := r.URL.Query().Get("industry")
	proposalType := r.URL.Query().Get("type")

	ok, err := h.Proposals.Recyclable(r.Context(), industry, proposalType)
	if err != nil {
		writeAppError(w, err)
		return
	}
	httputil.OK(w, proposalRecyclableResponse{Industry: industry, Type: proposalType, RecyclableAvailable: ok})
}

// proposalRecycleRequest is the request shape for proposal.recycle.
// Industry and Type are accepted alongside {userCode, leadId?} so the
// caller can target a recyclable offer directly; when LeadID is given and
// Industry is omitted, the destination lead's own industry is used
// instead.
type proposalRecycleRequest struct {
	UserCode string `json:"userCode"`
	LeadID   string `json:"leadId,omitempty"`
	Industry string `json:"industry,omitempty"`
	Type     string `json:"type,omitempty"`
}

func (h *Handlers) handleProposalRecycle(w http.ResponseWriter, r *http.Request) {
	var b proposalRecycleRequest
	if !httputil.Decode(w, r, &b) {
		return
	}
	if b.UserCode == "" {
		httputil.BadRequest(w, "userCode is required")
		return
	}

	industry := b.Industry
	if b.LeadID != "" {
		lead, err := h.Leads.Get(r.Context(), b.LeadID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		if industry == "" {
			industry = lead.Industry
		}
	}

	offer, err := h.Proposals.Recycle(r.Context(), b.UserCode, industry, b.Type, b.LeadID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	httputil.OK(w, offer)
}
