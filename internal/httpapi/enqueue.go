package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/pkg/httputil"
)

// enqueueEnvelope is the only field the command surface interprets itself;
// everything else in the request body passes through verbatim as the
// job's body, since each job kind already owns its decoded shape
// (AnalyzeLeadBody, DiscoverLeadsBody, ...).
type enqueueEnvelope struct {
	Async *bool `json:"async,omitempty"`
}

// enqueueHandler implements the --async semantics shared by the five
// enqueue-capable commands: async (the default) writes straight to the
// job transport; async=false runs the same dispatcher.Handler inline on the
// request goroutine instead.
func (h *Handlers) enqueueHandler(kind domain.JobKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			httputil.BadRequest(w, "failed to read body")
			return
		}
		body := string(raw)
		if body == "" {
			body = "{}"
		}

		var env enqueueEnvelope
		if err := json.Unmarshal([]byte(body), &env); err != nil {
			httputil.BadRequest(w, "invalid JSON: "+err.Error())
			return
		}
		async := env.Async == nil || *env.Async

		if !async {
			handler, ok := h.JobHandlers[kind]
			if !ok {
				httputil.InternalError(w, errNoInlineHandler(kind))
				return
			}
			if err := handler(r.Context(), body); err != nil {
				writeAppError(w, err)
				return
			}
			httputil.OK(w, map[string]string{"status": "completed"})
			return
		}

		if _, err := h.Queue.Enqueue(r.Context(), kind.DefaultQueue(), kind, body, time.Now()); err != nil {
			httputil.InternalError(w, err)
			return
		}
		httputil.Created(w, map[string]string{"status": "queued"})
	}
}

type noInlineHandlerError struct{ kind domain.JobKind }

func (e noInlineHandlerError) Error() string {
	return "no inline handler registered for job kind " + string(e.kind)
}

func errNoInlineHandler(kind domain.JobKind) error { return noInlineHandlerError{kind: kind} }
