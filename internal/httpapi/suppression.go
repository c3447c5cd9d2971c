package httpapi

import (
	"net/http"

	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/pkg/httputil"
)

func (h *Handlers) handleSuppressAdd(w http.ResponseWriter, r *http.Request) {
	var b struct {
		Email    string `json:"email"`
		Reason   string `json:"reason"`
		TenantID string `json:"tenantId,omitempty"`
	}
	if !httputil.Decode(w, r, &b) {
		return
	}
	if b.Email == "" || b.Reason == "" {
		httputil.BadRequest(w, "email and reason are required")
		return
	}
	entry, err := h.SuppressionSvc.Add(r.Context(), b.Email, domain.SuppressionReason(b.Reason), b.TenantID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	httputil.OK(w, entry)
}

func (h *Handlers) handleSuppressRemove(w http.ResponseWriter, r *http.Request) {
	var b struct {
		Email    string `json:"email"`
		TenantID string `json:"tenantId,omitempty"`
	}
	if !httputil.Decode(w, r, &b) {
		return
	}
	if b.Email == "" {
		httputil.BadRequest(w, "email is required")
		return
	}
	if err := h.SuppressionSvc.Remove(r.Context(), b.Email, b.TenantID); err != nil {
		writeAppError(w, err)
		return
	}
	httputil.OK(w, map[string]bool{"removed": true})
}

func (h *Handlers) handleSuppressList(w http.ResponseWriter, r *http.Request) {
	limit := 100
	tenantID := r.URL.Query().Get("tenantId")

	var (
		entries []domain.Suppression
		err     error
	)
	if tenantID == "" {
		entries, err = h.SuppressionSvc.ListGlobal(r.Context(), limit)
	} else {
		entries, err = h.SuppressionSvc.ListUnsubscribes(r.Context(), tenantID, limit)
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	httputil.OK(w, entries)
}
