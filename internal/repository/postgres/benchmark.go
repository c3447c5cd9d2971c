package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/benchmark"
	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// BenchmarkSchema is the DDL for the two aggregate tables: Snapshot
// (one row per lead per period) and Benchmark (one row per tenant/industry
// shard per period), upserted on their natural keys.
const BenchmarkSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	lead_id              UUID NOT NULL,
	period_type          TEXT NOT NULL,
	period_start         TIMESTAMPTZ NOT NULL,
	total_score          INT NOT NULL,
	category_scores      JSONB,
	issue_count          INT NOT NULL DEFAULT 0,
	critical_issue_count INT NOT NULL DEFAULT 0,
	top_issues           JSONB,
	score_delta          INT,
	created_at           TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS snapshots_lead_period_idx ON snapshots (lead_id, period_type, period_start);

CREATE TABLE IF NOT EXISTS benchmarks (
	id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	tenant_id            TEXT NOT NULL,
	industry             TEXT NOT NULL,
	period_start         TIMESTAMPTZ NOT NULL,
	avg_score            DOUBLE PRECISION NOT NULL,
	median_score         DOUBLE PRECISION NOT NULL,
	percentiles          JSONB,
	avg_category_scores  JSONB,
	top_issues           JSONB,
	sample_size          INT NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS benchmarks_tenant_industry_period_idx
	ON benchmarks (tenant_id, industry, period_start);
`

// BenchmarkRepo implements both benchmark.Repository (snapshot/benchmark
// writes) and benchmark.Source (the weekly job's read side) over the
// tenant/industry shard model.
type BenchmarkRepo struct{ db *sql.DB }

func NewBenchmarkRepo(db *sql.DB) *BenchmarkRepo { return &BenchmarkRepo{db: db} }

func (r *BenchmarkRepo) UpsertSnapshot(ctx context.Context, s domain.Snapshot) error {
	categoryScores, err := json.Marshal(s.CategoryScores)
	if err != nil {
		return fmt.Errorf("marshal category scores: %w", err)
	}
	topIssues, err := json.Marshal(s.TopIssues)
	if err != nil {
		return fmt.Errorf("marshal top issues: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (lead_id, period_type, period_start, total_score, category_scores,
			issue_count, critical_issue_count, top_issues, score_delta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (lead_id, period_type, period_start) DO UPDATE SET
			total_score = EXCLUDED.total_score,
			category_scores = EXCLUDED.category_scores,
			issue_count = EXCLUDED.issue_count,
			critical_issue_count = EXCLUDED.critical_issue_count,
			top_issues = EXCLUDED.top_issues,
			score_delta = EXCLUDED.score_delta
	`, s.LeadID, s.PeriodType, s.PeriodStart, s.TotalScore, categoryScores,
		s.IssueCount, s.CriticalIssueCount, topIssues, s.ScoreDelta, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert snapshot for lead %s: %w", s.LeadID, err)
	}
	return nil
}

func (r *BenchmarkRepo) UpsertBenchmark(ctx context.Context, b domain.Benchmark) error {
	percentiles, err := json.Marshal(b.Percentiles)
	if err != nil {
		return fmt.Errorf("marshal percentiles: %w", err)
	}
	avgCategoryScores, err := json.Marshal(b.AvgCategoryScores)
	if err != nil {
		return fmt.Errorf("marshal avg category scores: %w", err)
	}
	topIssues, err := json.Marshal(b.TopIssues)
	if err != nil {
		return fmt.Errorf("marshal top issues: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO benchmarks (tenant_id, industry, period_start, avg_score, median_score,
			percentiles, avg_category_scores, top_issues, sample_size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, industry, period_start) DO UPDATE SET
			avg_score = EXCLUDED.avg_score,
			median_score = EXCLUDED.median_score,
			percentiles = EXCLUDED.percentiles,
			avg_category_scores = EXCLUDED.avg_category_scores,
			top_issues = EXCLUDED.top_issues,
			sample_size = EXCLUDED.sample_size
	`, b.TenantID, b.Industry, b.PeriodStart, b.AvgScore, b.MedianScore,
		percentiles, avgCategoryScores, topIssues, b.SampleSize, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert benchmark for %s/%s: %w", b.TenantID, b.Industry, err)
	}
	return nil
}

// SnapshotTrend returns a lead's snapshots for one period type, newest-first,
// capped at limit (lead.trend).
func (r *BenchmarkRepo) SnapshotTrend(ctx context.Context, leadID string, period domain.SnapshotPeriod, limit int) ([]domain.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lead_id, period_type, period_start, total_score, category_scores,
		       issue_count, critical_issue_count, top_issues, score_delta, created_at
		FROM snapshots
		WHERE lead_id = $1 AND period_type = $2
		ORDER BY period_start DESC
		LIMIT $3
	`, leadID, period, limit)
	if err != nil {
		return nil, fmt.Errorf("snapshot trend for lead %s: %w", leadID, err)
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSnapshot(rows *sql.Rows) (domain.Snapshot, error) {
	var s domain.Snapshot
	var categoryScores, topIssues []byte
	var scoreDelta sql.NullInt64
	err := rows.Scan(&s.ID, &s.LeadID, &s.PeriodType, &s.PeriodStart, &s.TotalScore, &categoryScores,
		&s.IssueCount, &s.CriticalIssueCount, &topIssues, &scoreDelta, &s.CreatedAt)
	if err != nil {
		return s, err
	}
	if scoreDelta.Valid {
		v := int(scoreDelta.Int64)
		s.ScoreDelta = &v
	}
	if len(categoryScores) > 0 {
		_ = json.Unmarshal(categoryScores, &s.CategoryScores)
	}
	if len(topIssues) > 0 {
		_ = json.Unmarshal(topIssues, &s.TopIssues)
	}
	return s, nil
}

// LatestBenchmark returns the most recent benchmark for a tenant/industry
// shard, or nil if none has been computed yet (lead.benchmark).
func (r *BenchmarkRepo) LatestBenchmark(ctx context.Context, tenantID, industry string) (*domain.Benchmark, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, industry, period_start, avg_score, median_score,
		       percentiles, avg_category_scores, top_issues, sample_size, created_at
		FROM benchmarks
		WHERE tenant_id = $1 AND industry = $2
		ORDER BY period_start DESC
		LIMIT 1
	`, tenantID, industry)
	b, err := scanBenchmark(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest benchmark for %s/%s: %w", tenantID, industry, err)
	}
	return &b, nil
}

func scanBenchmark(row interface{ Scan(...interface{}) error }) (domain.Benchmark, error) {
	var b domain.Benchmark
	var percentiles, avgCategoryScores, topIssues []byte
	err := row.Scan(&b.ID, &b.TenantID, &b.Industry, &b.PeriodStart, &b.AvgScore, &b.MedianScore,
		&percentiles, &avgCategoryScores, &topIssues, &b.SampleSize, &b.CreatedAt)
	if err != nil {
		return b, err
	}
	if len(percentiles) > 0 {
		_ = json.Unmarshal(percentiles, &b.Percentiles)
	}
	if len(avgCategoryScores) > 0 {
		_ = json.Unmarshal(avgCategoryScores, &b.AvgCategoryScores)
	}
	if len(topIssues) > 0 {
		_ = json.Unmarshal(topIssues, &b.TopIssues)
	}
	return b, nil
}

// Shards enumerates every distinct (tenant, industry) pair with at least one
// completed analysis, so the weekly aggregator doesn't need an externally
// supplied tenant list.
func (r *BenchmarkRepo) Shards(ctx context.Context) ([]benchmark.Shard, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT l.tenant_id, a.industry
		FROM analyses a
		JOIN leads l ON l.id = a.lead_id
		WHERE a.status = 'completed' AND a.industry IS NOT NULL AND a.industry != ''
	`)
	if err != nil {
		return nil, fmt.Errorf("list benchmark shards: %w", err)
	}
	defer rows.Close()

	var out []benchmark.Shard
	for rows.Next() {
		var sh benchmark.Shard
		if err := rows.Scan(&sh.TenantID, &sh.Industry); err != nil {
			return nil, fmt.Errorf("scan shard: %w", err)
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

// ScopedAnalyses loads every completed analysis (with its results) for one
// tenant/industry shard, no older than since, the unit benchmark.Aggregate
// reduces over.
func (r *BenchmarkRepo) ScopedAnalyses(ctx context.Context, tenantID, industry string, since time.Time) ([]benchmark.Scope, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.lead_id, a.sequence_number, a.previous_analysis_id, a.status, a.industry,
		       a.is_eshop, a.total_score, a.score_delta, a.is_improved, a.created_at, a.completed_at
		FROM analyses a
		JOIN leads l ON l.id = a.lead_id
		WHERE l.tenant_id = $1 AND a.industry = $2 AND a.status = 'completed' AND a.created_at >= $3
	`, tenantID, industry, since)
	if err != nil {
		return nil, fmt.Errorf("scoped analyses for %s/%s: %w", tenantID, industry, err)
	}
	defer rows.Close()

	var analyses []domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scoped analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	scopes := make([]benchmark.Scope, 0, len(analyses))
	for _, a := range analyses {
		results, err := r.analysisResultsFor(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, benchmark.Scope{Analysis: a, Results: results})
	}
	return scopes, nil
}

func (r *BenchmarkRepo) analysisResultsFor(ctx context.Context, analysisID string) ([]domain.AnalysisResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, analysis_id, category, status, raw_data, issues, score, error_message
		FROM analysis_results WHERE analysis_id = $1
	`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("results for analysis %s: %w", analysisID, err)
	}
	defer rows.Close()

	var out []domain.AnalysisResult
	for rows.Next() {
		res, err := scanResultRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
