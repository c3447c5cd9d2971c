package httpapi

import (
	"net/http"
	"strconv"

	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/pkg/httputil"
)

func clampLimit(raw string, def, min, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

func nonNegativeInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// leadAnalysesResponse is the response shape for lead.analyses.
type leadAnalysesResponse struct {
	Analyses []domain.Analysis `json:"analyses"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

func (h *Handlers) handleLeadAnalyses(w http.ResponseWriter, r *http.Request) {
	leadID := r.URL.Query().Get("leadId")
	if leadID == "" {
		httputil.BadRequest(w, "leadId is required")
		return
	}
	limit := clampLimit(r.URL.Query().Get("limit"), 20, 1, 100)
	offset := nonNegativeInt(r.URL.Query().Get("offset"), 0)

	analyses, total, err := h.Analyses.ListByLead(r.Context(), leadID, limit, offset)
	if err != nil {
		writeAppError(w, err)
		return
	}
	httputil.OK(w, leadAnalysesResponse{Analyses: analyses, Total: total, Limit: limit, Offset: offset})
}

// leadTrendResponse is the response shape for lead.trend.
type leadTrendResponse struct {
	LeadID    string                `json:"leadId"`
	Period    domain.SnapshotPeriod `json:"period"`
	Snapshots []domain.Snapshot     `json:"snapshots"`
}

func (h *Handlers) handleLeadTrend(w http.ResponseWriter, r *http.Request) {
	leadID := r.URL.Query().Get("leadId")
	if leadID == "" {
		httputil.BadRequest(w, "leadId is required")
		return
	}
	period := domain.SnapshotPeriod(r.URL.Query().Get("period"))
	switch period {
	case domain.PeriodDay, domain.PeriodWeek, domain.PeriodMonth:
	case "":
		period = domain.PeriodWeek
	default:
		httputil.BadRequest(w, "period must be one of day, week, month")
		return
	}
	limit := clampLimit(r.URL.Query().Get("limit"), 20, 1, 100)

	snapshots, err := h.Benchmarks.SnapshotTrend(r.Context(), leadID, period, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	httputil.OK(w, leadTrendResponse{LeadID: leadID, Period: period, Snapshots: snapshots})
}

// leadBenchmarkResponse is the response shape for lead.benchmark.
type leadBenchmarkResponse struct {
	Lead      domain.Lead       `json:"lead"`
	Analysis  domain.Analysis   `json:"analysis"`
	Benchmark *domain.Benchmark `json:"benchmark"`
}

func (h *Handlers) handleLeadBenchmark(w http.ResponseWriter, r *http.Request) {
	leadID := r.URL.Query().Get("leadId")
	if leadID == "" {
		httputil.BadRequest(w, "leadId is required")
		return
	}
	lead, err := h.Leads.Get(r.Context(), leadID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	latest, err := h.Analyses.Latest(r.Context(), leadID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if latest == nil {
		httputil.NotFound(w, "lead has no analysis")
		return
	}
	if lead.Industry == "" {
		httputil.BadRequest(w, "lead industry is not set")
		return
	}
	bm, err := h.Benchmarks.LatestBenchmark(r.Context(), lead.TenantID, lead.Industry)
	if err != nil {
		writeAppError(w, err)
		return
	}
	httputil.OK(w, leadBenchmarkResponse{Lead: lead, Analysis: *latest, Benchmark: bm})
}

func (h *Handlers) handleIssuesRegistry(w http.ResponseWriter, r *http.Request) {
	defs, err := h.Issues.All(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	if defs == nil {
		defs = []domain.IssueDefinition{}
	}
	httputil.OK(w, defs)
}
