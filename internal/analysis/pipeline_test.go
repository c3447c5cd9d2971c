package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

type fakeRepo struct {
	analyses map[string]domain.Analysis
	results  map[string][]domain.AnalysisResult // analysisID -> results
	running  map[string]bool                    // leadID -> has running
	nextID   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		analyses: make(map[string]domain.Analysis),
		results:  make(map[string][]domain.AnalysisResult),
		running:  make(map[string]bool),
	}
}

func (r *fakeRepo) id() string {
	r.nextID++
	return string(rune('a' + r.nextID))
}

func (r *fakeRepo) HasRunning(_ context.Context, leadID string) (bool, error) {
	return r.running[leadID], nil
}

func (r *fakeRepo) Latest(_ context.Context, leadID string) (*domain.Analysis, error) {
	var latest *domain.Analysis
	for _, a := range r.analyses {
		if a.LeadID != leadID {
			continue
		}
		if latest == nil || a.SequenceNumber > latest.SequenceNumber {
			cp := a
			latest = &cp
		}
	}
	return latest, nil
}

func (r *fakeRepo) LatestResults(_ context.Context, analysisID string) ([]domain.AnalysisResult, error) {
	return r.results[analysisID], nil
}

func (r *fakeRepo) CreateAnalysis(_ context.Context, a domain.Analysis) (string, error) {
	id := r.id()
	a.ID = id
	r.analyses[id] = a
	r.running[a.LeadID] = true
	return id, nil
}

func (r *fakeRepo) UpdateAnalysis(_ context.Context, a domain.Analysis) error {
	r.analyses[a.ID] = a
	if a.Status != domain.AnalysisRunning && a.Status != domain.AnalysisPending {
		r.running[a.LeadID] = false
	}
	return nil
}

func (r *fakeRepo) CreateResult(_ context.Context, res domain.AnalysisResult) (string, error) {
	id := r.id()
	res.ID = id
	r.results[res.AnalysisID] = append(r.results[res.AnalysisID], res)
	return id, nil
}

func (r *fakeRepo) UpdateResult(_ context.Context, res domain.AnalysisResult) error {
	list := r.results[res.AnalysisID]
	for i, existing := range list {
		if existing.ID == res.ID {
			list[i] = res
			return nil
		}
	}
	return nil
}

type fakeLeads struct {
	leads    map[string]domain.Lead
	profiles map[string]*domain.DiscoveryProfile
}

func (f *fakeLeads) Get(_ context.Context, id string) (domain.Lead, error) { return f.leads[id], nil }
func (f *fakeLeads) Update(_ context.Context, l domain.Lead) error {
	f.leads[l.ID] = l
	return nil
}
func (f *fakeLeads) DiscoveryProfile(_ context.Context, leadID string) (*domain.DiscoveryProfile, error) {
	return f.profiles[leadID], nil
}

type fakeSnapshots struct{ calls int }

func (f *fakeSnapshots) Upsert(_ context.Context, _ domain.Lead, _ domain.Analysis, _ []domain.AnalysisResult) error {
	f.calls++
	return nil
}

type fakeQueue struct{ enqueued int }

func (f *fakeQueue) Enqueue(_ context.Context, _ domain.QueueName, _ domain.JobKind, _ string, _ time.Time) (int64, error) {
	f.enqueued++
	return 1, nil
}

type fakeThresholds struct{ t domain.ScoreThresholds }

func (f fakeThresholds) ScoreThresholdsFor(_ context.Context, _ string) (domain.ScoreThresholds, error) {
	return f.t, nil
}

func analyzerReturning(category string, score int, issues ...domain.Issue) Analyzer {
	return Analyzer{
		Category:    category,
		IsUniversal: true,
		Run: func(ctx context.Context, lead domain.Lead) (Outcome, error) {
			return Outcome{Success: true, Score: score, Issues: issues}, nil
		},
	}
}

func newTestEngine(repo *fakeRepo, leads *fakeLeads, reg *Registry) (*Engine, *fakeSnapshots, *fakeQueue) {
	snaps := &fakeSnapshots{}
	q := &fakeQueue{}
	e := NewEngine(reg, repo, leads, snaps, q, fakeThresholds{t: domain.ScoreThresholds{
		QualifiedScore: 60, DisqualifiedScore: 20, MaxCriticalForQualified: 0,
	}})
	return e, snaps, q
}

// First analysis on an empty lead.
func TestRun_FirstAnalysis(t *testing.T) {
	reg := NewRegistry()
	reg.Register(analyzerReturning("performance", 40))

	leads := &fakeLeads{leads: map[string]domain.Lead{
		"lead-1": {ID: "lead-1", TenantID: "t1", Industry: "eshop"},
	}}
	repo := newFakeRepo()
	e, snaps, q := newTestEngine(repo, leads, reg)

	a, err := e.Run(context.Background(), "lead-1", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a == nil {
		t.Fatal("expected a non-nil analysis")
	}
	if a.SequenceNumber != 1 {
		t.Errorf("sequenceNumber = %d, want 1", a.SequenceNumber)
	}
	if a.PreviousAnalysisID != "" {
		t.Errorf("previousAnalysisId = %q, want empty", a.PreviousAnalysisID)
	}
	if a.ScoreDelta != nil {
		t.Errorf("scoreDelta = %v, want nil", *a.ScoreDelta)
	}
	if a.IsImproved {
		t.Error("isImproved should be false with no previous analysis")
	}
	if leads.leads["lead-1"].AnalysisCount != 1 {
		t.Errorf("analysisCount = %d, want 1", leads.leads["lead-1"].AnalysisCount)
	}
	if snaps.calls != 1 {
		t.Errorf("expected one snapshot upsert, got %d", snaps.calls)
	}
	if q.enqueued != 1 {
		t.Errorf("expected one take_screenshot enqueue, got %d", q.enqueued)
	}
}

// Delta computation on a second analysis.
func TestRun_SecondAnalysisComputesDelta(t *testing.T) {
	reg := NewRegistry()
	reg.Register(analyzerReturning("performance", 30, domain.Issue{Code: "B"}, domain.Issue{Code: "C"}))
	reg.Register(analyzerReturning("security", 30, domain.Issue{Code: "D"}))

	repo := newFakeRepo()
	leads := &fakeLeads{leads: map[string]domain.Lead{
		"lead-1": {ID: "lead-1", TenantID: "t1", Industry: "eshop"},
	}}
	e, _, _ := newTestEngine(repo, leads, reg)

	prevID, _ := repo.CreateAnalysis(context.Background(), domain.Analysis{
		LeadID: "lead-1", SequenceNumber: 1, TotalScore: 40, Status: domain.AnalysisCompleted,
	})
	repo.running["lead-1"] = false
	prev := repo.analyses[prevID]
	prev.TotalScore = 40
	repo.analyses[prevID] = prev
	for _, code := range []string{"A", "B", "C"} {
		repo.CreateResult(context.Background(), domain.AnalysisResult{
			AnalysisID: prevID, Category: "x", Status: domain.ResultCompleted,
			Issues: []domain.Issue{{Code: code}},
		})
	}

	a, err := e.Run(context.Background(), "lead-1", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.SequenceNumber != 2 {
		t.Errorf("sequenceNumber = %d, want 2", a.SequenceNumber)
	}
	if a.TotalScore != 60 {
		t.Errorf("totalScore = %d, want 60", a.TotalScore)
	}
	if a.ScoreDelta == nil || *a.ScoreDelta != 20 {
		t.Errorf("scoreDelta = %v, want 20", a.ScoreDelta)
	}
	if !a.IsImproved {
		t.Error("isImproved should be true for a non-negative delta")
	}
	if len(a.IssueDelta.Added) != 1 || a.IssueDelta.Added[0] != "D" {
		t.Errorf("issueDelta.added = %v, want [D]", a.IssueDelta.Added)
	}
	if len(a.IssueDelta.Removed) != 1 || a.IssueDelta.Removed[0] != "A" {
		t.Errorf("issueDelta.removed = %v, want [A]", a.IssueDelta.Removed)
	}
	if a.IssueDelta.UnchangedCount != 2 {
		t.Errorf("issueDelta.unchangedCount = %d, want 2", a.IssueDelta.UnchangedCount)
	}
}

// A concurrent dispatch finds a run already in flight and no-ops.
func TestRun_ConcurrentRunIsNoOp(t *testing.T) {
	reg := NewRegistry()
	repo := newFakeRepo()
	repo.running["lead-1"] = true
	leads := &fakeLeads{leads: map[string]domain.Lead{"lead-1": {ID: "lead-1"}}}
	e, snaps, q := newTestEngine(repo, leads, reg)

	a, err := e.Run(context.Background(), "lead-1", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a != nil {
		t.Errorf("expected nil analysis for a no-op run, got %+v", a)
	}
	if snaps.calls != 0 || q.enqueued != 0 {
		t.Error("no-op run must not write a snapshot or enqueue a screenshot job")
	}
}

func TestRun_AllAnalyzersFailed(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Analyzer{
		Category:    "performance",
		IsUniversal: true,
		Run: func(ctx context.Context, lead domain.Lead) (Outcome, error) {
			return Outcome{Success: false, ErrorMessage: "timed out"}, nil
		},
	})
	repo := newFakeRepo()
	leads := &fakeLeads{leads: map[string]domain.Lead{"lead-1": {ID: "lead-1"}}}
	e, snaps, _ := newTestEngine(repo, leads, reg)

	a, err := e.Run(context.Background(), "lead-1", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Status != domain.AnalysisFailed {
		t.Errorf("status = %s, want failed", a.Status)
	}
	if snaps.calls != 0 {
		t.Error("a failed analysis must not produce a snapshot")
	}
}

func TestSelect_DropsDisabledAndMismatchedIndustry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Analyzer{Category: "universal_a", IsUniversal: true, Priority: 1})
	reg.Register(Analyzer{Category: "eshop_only", Industry: "eshop", Priority: 2})
	reg.Register(Analyzer{Category: "saas_only", Industry: "saas", Priority: 3})
	reg.Register(Analyzer{Category: "disabled_one", IsUniversal: true, Priority: 0})

	profile := &DiscoveryProfileView{DisabledCategories: []string{"disabled_one"}}
	selected := Select(reg, profile, "eshop")

	if len(selected) != 2 {
		t.Fatalf("expected 2 analyzers, got %d: %+v", len(selected), selected)
	}
	if selected[0].Category != "universal_a" || selected[1].Category != "eshop_only" {
		t.Errorf("unexpected selection/order: %+v", selected)
	}
}

func TestSelect_NoIndustryKeepsOnlyUniversal(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Analyzer{Category: "universal_a", IsUniversal: true})
	reg.Register(Analyzer{Category: "eshop_only", Industry: "eshop"})

	selected := Select(reg, nil, "")
	if len(selected) != 1 || selected[0].Category != "universal_a" {
		t.Errorf("expected only universal_a, got %+v", selected)
	}
}

func TestMapStatus(t *testing.T) {
	th := domain.ScoreThresholds{QualifiedScore: 60, DisqualifiedScore: 20, MaxCriticalForQualified: 1}

	cases := []struct {
		name               string
		score, criticals   int
		isEshop            bool
		want               domain.LeadStatus
	}{
		{"qualified", 70, 0, false, domain.LeadStatusQualified},
		{"disqualified", 10, 0, false, domain.LeadStatusDisqualified},
		{"needs review on critical overflow", 70, 2, false, domain.LeadStatusNeedsReview},
		{"eshop tighter critical bar", 70, 1, true, domain.LeadStatusNeedsReview},
		{"eshop allows zero criticals", 70, 0, true, domain.LeadStatusQualified},
		{"middle band needs review", 40, 0, false, domain.LeadStatusNeedsReview},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := MapStatus(c.score, c.criticals, c.isEshop, th)
			if got != c.want {
				t.Errorf("MapStatus(%d,%d,%v) = %s, want %s", c.score, c.criticals, c.isEshop, got, c.want)
			}
		})
	}
}
