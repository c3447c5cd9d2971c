package benchmark

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/pkg/logger"
)

const topIssuesPerBenchmark = 10

// Engine computes Benchmark rows by fanning out one goroutine per
// (tenant, industry) shard, a bounded one-shot fan-out/fan-in rather than
// a persistent worker pool, since a weekly aggregation job has no natural
// owning worker to run continuously.
type Engine struct {
	Source      Source
	Repo        Repository
	LookbackBy  domain.SnapshotPeriod // which PeriodStart boundary a run aggregates
	Concurrency int
}

func NewEngine(source Source, repo Repository) *Engine {
	return &Engine{Source: source, Repo: repo, LookbackBy: domain.PeriodWeek, Concurrency: 8}
}

// Run computes and persists a Benchmark for every shard the Source reports,
// bounded to e.Concurrency concurrent shards via errgroup.
func (e *Engine) Run(ctx context.Context, now time.Time) error {
	shards, err := e.Source.Shards(ctx)
	if err != nil {
		return fmt.Errorf("list benchmark shards: %w", err)
	}

	periodStart := PeriodStart(e.LookbackBy, now)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency())

	for _, shard := range shards {
		shard := shard
		g.Go(func() error {
			b, err := e.computeOne(gctx, shard, periodStart)
			if err != nil {
				logger.Error("benchmark aggregation failed", "tenant", shard.TenantID, "industry", shard.Industry, "error", err.Error())
				return nil // one bad shard must not abort the others
			}
			if b == nil {
				return nil
			}
			if err := e.Repo.UpsertBenchmark(gctx, *b); err != nil {
				logger.Error("benchmark upsert failed", "tenant", shard.TenantID, "industry", shard.Industry, "error", err.Error())
			}
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) concurrency() int {
	if e.Concurrency <= 0 {
		return 8
	}
	return e.Concurrency
}

// computeOne aggregates a single shard. A shard with zero analyses in scope
// returns (nil, nil): nothing to persist, not an error.
func (e *Engine) computeOne(ctx context.Context, shard Shard, periodStart time.Time) (*domain.Benchmark, error) {
	scopes, err := e.Source.ScopedAnalyses(ctx, shard.TenantID, shard.Industry, periodStart)
	if err != nil {
		return nil, fmt.Errorf("load scoped analyses: %w", err)
	}
	if len(scopes) == 0 {
		return nil, nil
	}

	scores := make([]int, 0, len(scopes))
	categoryScores := make([]map[string]int, 0, len(scopes))
	codeSets := make([]map[string]struct{}, 0, len(scopes))
	for _, sc := range scopes {
		scores = append(scores, sc.Analysis.TotalScore)

		cs := make(map[string]int, len(sc.Results))
		codes := make(map[string]struct{})
		for _, r := range sc.Results {
			if r.Status != domain.ResultCompleted {
				continue
			}
			cs[r.Category] = r.Score
			for _, code := range r.Codes() {
				codes[code] = struct{}{}
			}
		}
		categoryScores = append(categoryScores, cs)
		codeSets = append(codeSets, codes)
	}

	top := topOccurrences(codeSets, len(scopes), topIssuesPerBenchmark)
	topIssues := make([]domain.TopIssue, len(top))
	for i, t := range top {
		topIssues[i] = domain.TopIssue{
			Code:       t.Code,
			Count:      t.Count,
			Percentage: 100 * float64(t.Count) / float64(len(scopes)),
		}
	}

	return &domain.Benchmark{
		TenantID:          shard.TenantID,
		Industry:          shard.Industry,
		PeriodStart:       periodStart,
		AvgScore:          mean(scores),
		MedianScore:       median(scores),
		Percentiles:       percentiles(scores),
		AvgCategoryScores: meanByCategory(categoryScores),
		TopIssues:         topIssues,
		SampleSize:        len(scopes),
		CreatedAt:         time.Now().UTC(),
	}, nil
}
