package benchmark

import (
	"context"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// Scope is one completed Analysis plus its per-category results, the unit
// a Benchmark aggregates over.
type Scope struct {
	Analysis domain.Analysis
	Results  []domain.AnalysisResult
}

// Source supplies the analyses in scope for one (tenant, industry) shard and
// enumerates the shards that exist, so the weekly job doesn't need a
// tenant/industry list supplied by its caller.
type Source interface {
	Shards(ctx context.Context) ([]Shard, error)
	ScopedAnalyses(ctx context.Context, tenantID, industry string, since time.Time) ([]Scope, error)
}

// Shard identifies one (tenant, industry) pair a Benchmark is computed for.
type Shard struct {
	TenantID string
	Industry string
}

// Repository is the durable write surface for Snapshot and Benchmark rows.
type Repository interface {
	UpsertSnapshot(ctx context.Context, s domain.Snapshot) error
	UpsertBenchmark(ctx context.Context, b domain.Benchmark) error
}
