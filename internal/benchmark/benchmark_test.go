package benchmark

import (
	"context"
	"testing"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

func TestPeriodStart(t *testing.T) {
	// Wednesday 2026-07-29
	ref := time.Date(2026, 7, 29, 15, 4, 5, 0, time.UTC)

	cases := []struct {
		period domain.SnapshotPeriod
		want   time.Time
	}{
		{domain.PeriodDay, time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)},
		{domain.PeriodWeek, time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)}, // Monday
		{domain.PeriodMonth, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got := PeriodStart(c.period, ref)
		if !got.Equal(c.want) {
			t.Errorf("PeriodStart(%s, %s) = %s, want %s", c.period, ref, got, c.want)
		}
	}
}

func TestPeriodStart_SundayRollsBackToMonday(t *testing.T) {
	sunday := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)
	want := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	got := PeriodStart(domain.PeriodWeek, sunday)
	if !got.Equal(want) {
		t.Errorf("PeriodStart(week, sunday) = %s, want %s", got, want)
	}
}

func TestPercentiles(t *testing.T) {
	scores := []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	p := percentiles(scores)
	if p["p50"] != median(scores) {
		t.Errorf("p50 = %v, median = %v, want equal", p["p50"], median(scores))
	}
	if p["p90"] <= p["p75"] || p["p75"] <= p["p50"] || p["p50"] <= p["p25"] || p["p25"] <= p["p10"] {
		t.Errorf("percentiles not monotonically increasing: %+v", p)
	}
}

func TestPercentiles_Empty(t *testing.T) {
	p := percentiles(nil)
	if len(p) != 0 {
		t.Errorf("expected empty map for no scores, got %+v", p)
	}
}

func TestMean(t *testing.T) {
	if got := mean([]int{10, 20, 30}); got != 20 {
		t.Errorf("mean = %v, want 20", got)
	}
}

func TestTopOccurrences_TieBrokenAlphabetically(t *testing.T) {
	sets := []map[string]struct{}{
		{"B": {}, "A": {}},
		{"A": {}},
	}
	top := topOccurrences(sets, 2, 10)
	if len(top) != 2 || top[0].Code != "A" || top[0].Count != 2 {
		t.Fatalf("unexpected ranking: %+v", top)
	}
	if top[1].Code != "B" || top[1].Count != 1 {
		t.Fatalf("unexpected second place: %+v", top)
	}
}

type fakeSnapshotRepo struct {
	snapshots  []domain.Snapshot
	benchmarks []domain.Benchmark
}

func (f *fakeSnapshotRepo) UpsertSnapshot(_ context.Context, s domain.Snapshot) error {
	f.snapshots = append(f.snapshots, s)
	return nil
}

func (f *fakeSnapshotRepo) UpsertBenchmark(_ context.Context, b domain.Benchmark) error {
	f.benchmarks = append(f.benchmarks, b)
	return nil
}

func TestSnapshotService_Upsert(t *testing.T) {
	repo := &fakeSnapshotRepo{}
	svc := &SnapshotService{Repo: repo}

	lead := domain.Lead{ID: "lead-1", Industry: "eshop"}
	createdAt := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	a := domain.Analysis{TotalScore: 75, CreatedAt: createdAt, CompletedAt: &createdAt}
	results := []domain.AnalysisResult{
		{Category: "performance", Status: domain.ResultCompleted, Score: 40, Issues: []domain.Issue{
			{Code: "SLOW_TTFB", Severity: domain.SeverityMedium},
		}},
		{Category: "security", Status: domain.ResultCompleted, Score: 35, Issues: []domain.Issue{
			{Code: "NO_TLS", Severity: domain.SeverityCritical},
		}},
		{Category: "broken", Status: domain.ResultFailed},
	}

	if err := svc.Upsert(context.Background(), lead, a, results); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if len(repo.snapshots) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(repo.snapshots))
	}
	snap := repo.snapshots[0]
	if snap.TotalScore != 75 {
		t.Errorf("totalScore = %d, want 75", snap.TotalScore)
	}
	if snap.CategoryScores["performance"] != 40 || snap.CategoryScores["security"] != 35 {
		t.Errorf("unexpected categoryScores: %+v", snap.CategoryScores)
	}
	if _, ok := snap.CategoryScores["broken"]; ok {
		t.Error("a failed result must not contribute a category score")
	}
	if snap.CriticalIssueCount != 1 {
		t.Errorf("criticalIssueCount = %d, want 1", snap.CriticalIssueCount)
	}
	if len(snap.TopIssues) == 0 || snap.TopIssues[0] != "NO_TLS" {
		t.Errorf("expected NO_TLS (critical) ranked first, got %+v", snap.TopIssues)
	}
	if !snap.PeriodStart.Equal(time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("periodStart = %s, want week-of start", snap.PeriodStart)
	}
}

type fakeSource struct {
	shards []Shard
	scopes map[string][]Scope // key: tenantID+"/"+industry
}

func (f *fakeSource) Shards(_ context.Context) ([]Shard, error) { return f.shards, nil }

func (f *fakeSource) ScopedAnalyses(_ context.Context, tenantID, industry string, _ time.Time) ([]Scope, error) {
	return f.scopes[tenantID+"/"+industry], nil
}

func TestEngine_Run_AggregatesPerShard(t *testing.T) {
	src := &fakeSource{
		shards: []Shard{{TenantID: "t1", Industry: "eshop"}, {TenantID: "t1", Industry: "saas"}},
		scopes: map[string][]Scope{
			"t1/eshop": {
				{Analysis: domain.Analysis{TotalScore: 50}, Results: []domain.AnalysisResult{
					{Category: "performance", Status: domain.ResultCompleted, Score: 50, Issues: []domain.Issue{{Code: "A"}}},
				}},
				{Analysis: domain.Analysis{TotalScore: 70}, Results: []domain.AnalysisResult{
					{Category: "performance", Status: domain.ResultCompleted, Score: 70, Issues: []domain.Issue{{Code: "A"}}},
				}},
			},
			"t1/saas": {},
		},
	}
	repo := &fakeSnapshotRepo{}
	e := NewEngine(src, repo)

	if err := e.Run(context.Background(), time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(repo.benchmarks) != 1 {
		t.Fatalf("expected exactly one benchmark (saas shard is empty), got %d", len(repo.benchmarks))
	}
	b := repo.benchmarks[0]
	if b.SampleSize != 2 {
		t.Errorf("sampleSize = %d, want 2", b.SampleSize)
	}
	if b.AvgScore != 60 {
		t.Errorf("avgScore = %v, want 60", b.AvgScore)
	}
	if len(b.TopIssues) != 1 || b.TopIssues[0].Code != "A" || b.TopIssues[0].Percentage != 100 {
		t.Errorf("unexpected topIssues: %+v", b.TopIssues)
	}
}

func TestBenchmarkRank(t *testing.T) {
	b := domain.Benchmark{Percentiles: map[string]float64{"p10": 20, "p25": 40, "p50": 60, "p75": 80, "p90": 95}}
	cases := []struct {
		score int
		want  domain.PercentileRank
	}{
		{97, domain.RankTop10},
		{85, domain.RankTop25},
		{65, domain.RankAboveAverage},
		{45, domain.RankBelowAverage},
		{10, domain.RankBottom25},
	}
	for _, c := range cases {
		if got := b.Rank(c.score); got != c.want {
			t.Errorf("Rank(%d) = %s, want %s", c.score, got, c.want)
		}
	}
	if (domain.Benchmark{}).Rank(50) != domain.RankUnknown {
		t.Error("empty percentile map must rank unknown")
	}
}
