package analysis

import (
	"context"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// LeadRepository is the subset of lead persistence the pipeline needs: read
// the lead being analyzed, and apply the post-run Lead mutation.
type LeadRepository interface {
	Get(ctx context.Context, leadID string) (domain.Lead, error)
	Update(ctx context.Context, lead domain.Lead) error
	DiscoveryProfile(ctx context.Context, leadID string) (*domain.DiscoveryProfile, error)
}

// Repository is the durable store for Analysis and AnalysisResult rows.
// HasRunning backs the one-running-analysis-per-lead precondition;
// it must be checked and the new row inserted under a uniqueness guarantee
// the caller can rely on (a partial unique index in Postgres).
type Repository interface {
	HasRunning(ctx context.Context, leadID string) (bool, error)
	Latest(ctx context.Context, leadID string) (*domain.Analysis, error)
	LatestResults(ctx context.Context, analysisID string) ([]domain.AnalysisResult, error)

	CreateAnalysis(ctx context.Context, a domain.Analysis) (string, error)
	UpdateAnalysis(ctx context.Context, a domain.Analysis) error

	CreateResult(ctx context.Context, r domain.AnalysisResult) (string, error)
	UpdateResult(ctx context.Context, r domain.AnalysisResult) error
}

// SnapshotWriter is the narrow write surface the pipeline invokes after
// a completed Analysis.
type SnapshotWriter interface {
	Upsert(ctx context.Context, lead domain.Lead, a domain.Analysis, results []domain.AnalysisResult) error
}

// Enqueuer is the job-transport write surface the pipeline needs to enqueue
// the follow-up take_screenshot job. Satisfied by queue.Store.
type Enqueuer interface {
	Enqueue(ctx context.Context, q domain.QueueName, kind domain.JobKind, body string, availableAt time.Time) (int64, error)
}
