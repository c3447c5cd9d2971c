// Package httpapi implements the operator-facing command surface: offer
// lifecycle transitions, lead analyses/trend/benchmark reads, and proposal
// recycling, plus the five enqueue-capable job commands with --async
// semantics. Handlers decode, delegate to a service, and map error kinds
// to HTTP statuses — nothing more.
package httpapi

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/outreach-orchestrator/internal/dispatcher"
	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/proposal"
	"github.com/ignite/outreach-orchestrator/internal/ratelimit"
	suppressionsvc "github.com/ignite/outreach-orchestrator/internal/service/suppression"
)

// OfferStore is the subset of sendgate.Repository the preview endpoint needs
// directly (the lifecycle transitions go through Gate instead).
type OfferStore interface {
	Get(ctx context.Context, offerID string) (domain.Offer, error)
}

// Gate is the offer lifecycle surface the command endpoints drive.
type Gate interface {
	Submit(ctx context.Context, offerID string) (domain.Offer, error)
	Approve(ctx context.Context, offerID string) (domain.Offer, error)
	Reject(ctx context.Context, offerID, reason string) (domain.Offer, error)
	RecordResponse(ctx context.Context, offerID string) (domain.Offer, error)
	RecordConversion(ctx context.Context, offerID string) (domain.Offer, error)
}

// Tenants resolves tenants by the operator-facing userCode, used by
// offer.rateLimits and proposal.recycle.
type Tenants interface {
	GetByUserCode(ctx context.Context, userCode string) (domain.Tenant, error)
}

// Leads is the read surface lead.analyses/trend/benchmark needs.
type Leads interface {
	Get(ctx context.Context, leadID string) (domain.Lead, error)
}

// Analyses is the paginated read surface backing lead.analyses.
type Analyses interface {
	ListByLead(ctx context.Context, leadID string, limit, offset int) ([]domain.Analysis, int, error)
	Latest(ctx context.Context, leadID string) (*domain.Analysis, error)
}

// Benchmarks is the read surface backing lead.trend and lead.benchmark.
type Benchmarks interface {
	SnapshotTrend(ctx context.Context, leadID string, period domain.SnapshotPeriod, limit int) ([]domain.Snapshot, error)
	LatestBenchmark(ctx context.Context, tenantID, industry string) (*domain.Benchmark, error)
}

// IssueRegistry is the read surface over the persisted issue-code registry.
type IssueRegistry interface {
	All(ctx context.Context) ([]domain.IssueDefinition, error)
}

// Enqueuer is the job-transport write surface the five enqueue commands use
// for --async=true (the default). Satisfied by queue.Store.
type Enqueuer interface {
	Enqueue(ctx context.Context, queue domain.QueueName, kind domain.JobKind, body string, availableAt time.Time) (int64, error)
}

// Handlers holds every collaborator the command surface needs. JobHandlers
// supplies the same dispatcher.Handler functions the worker registers, so
// --async=false runs a command inline on the request goroutine through the
// identical code path a queued job would take.
type Handlers struct {
	Offers     OfferStore
	Gate       Gate
	Tenants    Tenants
	Leads      Leads
	Analyses   Analyses
	Benchmarks Benchmarks
	Proposals  *proposal.Service
	Limiter    *ratelimit.Limiter
	Queue      Enqueuer
	JobHandlers map[domain.JobKind]dispatcher.Handler

	// Issues backs issues.registry, the read-only view of the persisted
	// issue-code enumeration.
	Issues IssueRegistry

	// SuppressionSvc backs suppress.add/suppress.remove/suppress.list, the
	// validating command-surface wrapper around the engine sendgate and
	// tracking consult directly on the hot path.
	SuppressionSvc *suppressionsvc.Service

	CORSOrigins []string
}

// Routes mounts the full command surface under /api.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.originsOrDefault(),
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Route("/api", func(api chi.Router) {
		api.Post("/offer.submit", h.handleOfferSubmit)
		api.Post("/offer.approve", h.handleOfferApprove)
		api.Post("/offer.reject", h.handleOfferReject)
		api.Post("/offer.responded", h.handleOfferResponded)
		api.Post("/offer.converted", h.handleOfferConverted)
		api.Get("/offer.preview", h.handleOfferPreview)
		api.Get("/offer.rateLimits", h.handleOfferRateLimits)

		api.Get("/lead.analyses", h.handleLeadAnalyses)
		api.Get("/lead.trend", h.handleLeadTrend)
		api.Get("/lead.benchmark", h.handleLeadBenchmark)

		api.Get("/proposal.recyclable", h.handleProposalRecyclable)
		api.Post("/proposal.recycle", h.handleProposalRecycle)

		api.Post("/analyze_lead", h.enqueueHandler(domain.JobAnalyzeLead))
		api.Post("/discover_leads", h.enqueueHandler(domain.JobDiscoverLeads))
		api.Post("/generate_proposal", h.enqueueHandler(domain.JobGenerateProposal))
		api.Post("/generate_offer", h.enqueueHandler(domain.JobGenerateOffer))
		api.Post("/sync_company_by_ico", h.enqueueHandler(domain.JobSyncCompanyByICO))

		api.Get("/issues.registry", h.handleIssuesRegistry)

		api.Post("/suppress.add", h.handleSuppressAdd)
		api.Post("/suppress.remove", h.handleSuppressRemove)
		api.Get("/suppress.list", h.handleSuppressList)
	})
	return r
}

func (h *Handlers) originsOrDefault() []string {
	if len(h.CORSOrigins) > 0 {
		return h.CORSOrigins
	}
	return []string{"*"}
}
