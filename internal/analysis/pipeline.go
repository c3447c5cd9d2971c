package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/metrics"
)

// ThresholdResolver resolves a tenant's score thresholds: tenant
// configuration, not code.
type ThresholdResolver interface {
	ScoreThresholdsFor(ctx context.Context, tenantID string) (domain.ScoreThresholds, error)
}

// Engine runs the analysis pipeline and invokes the lead-status mapper
// and snapshot writer as the last steps of one run.
type Engine struct {
	Registry        *Registry
	Repo            Repository
	Leads           LeadRepository
	Snapshots       SnapshotWriter
	Queue           Enqueuer
	Thresholds      ThresholdResolver
	AnalyzerTimeout time.Duration
}

func NewEngine(reg *Registry, repo Repository, leads LeadRepository, snapshots SnapshotWriter, q Enqueuer, thresholds ThresholdResolver) *Engine {
	return &Engine{
		Registry:        reg,
		Repo:            repo,
		Leads:           leads,
		Snapshots:       snapshots,
		Queue:           q,
		Thresholds:      thresholds,
		AnalyzerTimeout: 30 * time.Second,
	}
}

// Run executes one full pipeline pass for leadID. industryOverride,
// if non-empty, is used when the lead has no industry set yet. A nil
// Analysis with a nil error means a concurrent run was already in flight and
// this invocation was a no-op consume — callers must still treat
// the job as handled, not failed.
func (e *Engine) Run(ctx context.Context, leadID, industryOverride string) (*domain.Analysis, error) {
	start := time.Now()
	lead, err := e.Leads.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	defer func() {
		metrics.AnalysisDuration.WithLabelValues(lead.Industry).Observe(time.Since(start).Seconds())
	}()

	running, err := e.Repo.HasRunning(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("check running analysis: %w", err)
	}
	if running {
		return nil, nil
	}

	industry := lead.Industry
	if industry == "" {
		industry = industryOverride
	}

	previous, err := e.Repo.Latest(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("load previous analysis: %w", err)
	}

	a := domain.Analysis{
		LeadID:         leadID,
		SequenceNumber: 1,
		Status:         domain.AnalysisRunning,
		Industry:       industry,
		CreatedAt:      time.Now().UTC(),
	}
	if previous != nil {
		a.SequenceNumber = previous.SequenceNumber + 1
		a.PreviousAnalysisID = previous.ID
	}

	id, err := e.Repo.CreateAnalysis(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create analysis: %w", err)
	}
	a.ID = id

	profile, err := e.Leads.DiscoveryProfile(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("load discovery profile: %w", err)
	}
	profileView := profileViewOf(profile)

	var previousResults []domain.AnalysisResult
	if previous != nil {
		previousResults, err = e.Repo.LatestResults(ctx, previous.ID)
		if err != nil {
			return nil, fmt.Errorf("load previous results: %w", err)
		}
	}
	previousCodes := codesOf(previousResults)

	selected := Select(e.Registry, profileView, industry)
	results := make([]domain.AnalysisResult, 0, len(selected))

	for _, az := range selected {
		result := domain.AnalysisResult{AnalysisID: id, Category: az.Category, Status: domain.ResultRunning}
		resultID, err := e.Repo.CreateResult(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("create result for %s: %w", az.Category, err)
		}
		result.ID = resultID

		runCtx, cancel := context.WithTimeout(ctx, e.analyzerTimeout())
		outcome, runErr := az.Run(runCtx, lead)
		cancel()

		switch {
		case runErr != nil:
			result.Status = domain.ResultFailed
			result.ErrorMessage = runErr.Error()
		case !outcome.Success:
			result.Status = domain.ResultFailed
			result.ErrorMessage = outcome.ErrorMessage
		default:
			result.Status = domain.ResultCompleted
			result.Issues = filterIgnored(outcome.Issues, profileView.IgnoredCodes(az.Category))
			result.RawData = outcome.RawData
			result.Score = outcome.Score
			if az.Category == domain.ESHOPDetectionCategory {
				if v, ok := outcome.RawData["isEshop"].(bool); ok {
					a.IsEshop = v
				}
			}
		}

		if err := e.Repo.UpdateResult(ctx, result); err != nil {
			return nil, fmt.Errorf("persist result for %s: %w", az.Category, err)
		}
		results = append(results, result)
	}

	totalScore := 0
	anyCompleted := false
	for _, r := range results {
		if r.Status == domain.ResultCompleted {
			totalScore += r.Score
			anyCompleted = true
		}
	}
	a.TotalScore = totalScore
	if anyCompleted || len(results) == 0 {
		a.Status = domain.AnalysisCompleted
	} else {
		a.Status = domain.AnalysisFailed
	}

	if previous != nil {
		delta := totalScore - previous.TotalScore
		a.ScoreDelta = &delta
		a.IsImproved = delta >= 0
	} else {
		a.ScoreDelta = nil
		a.IsImproved = false
	}

	currentCodes := codesOf(results)
	a.IssueDelta = diffCodes(currentCodes, previousCodes)

	now := time.Now().UTC()
	a.CompletedAt = &now
	if err := e.Repo.UpdateAnalysis(ctx, a); err != nil {
		return nil, fmt.Errorf("finalize analysis: %w", err)
	}

	lead.LatestAnalysisID = a.ID
	lead.AnalysisCount++
	lead.AnalyzedAt = &now
	if lead.Industry == "" {
		lead.Industry = industry
	}

	thresholds, err := e.Thresholds.ScoreThresholdsFor(ctx, lead.TenantID)
	if err != nil {
		return nil, fmt.Errorf("resolve score thresholds: %w", err)
	}
	critical := domain.CriticalIssueCount(results)
	lead.Status = MapStatus(a.TotalScore, critical, a.IsEshop, thresholds)

	if err := e.Leads.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("update lead: %w", err)
	}

	if a.Status == domain.AnalysisCompleted && e.Snapshots != nil {
		if err := e.Snapshots.Upsert(ctx, lead, a, results); err != nil {
			return nil, fmt.Errorf("upsert snapshot: %w", err)
		}
	}

	if e.Queue != nil {
		body := fmt.Sprintf(`{"leadId":%q}`, leadID)
		if _, err := e.Queue.Enqueue(ctx, domain.QueueLow, domain.JobTakeScreenshot, body, time.Now()); err != nil {
			return nil, fmt.Errorf("enqueue screenshot job: %w", err)
		}
	}

	return &a, nil
}

func (e *Engine) analyzerTimeout() time.Duration {
	if e.AnalyzerTimeout <= 0 {
		return 30 * time.Second
	}
	return e.AnalyzerTimeout
}

func profileViewOf(p *domain.DiscoveryProfile) *DiscoveryProfileView {
	if p == nil {
		return nil
	}
	return &DiscoveryProfileView{
		DisabledCategories: p.DisabledCategories,
		PriorityOverrides:  p.PriorityOverrides,
		IgnoreCodes:        p.IgnoreCodes,
	}
}

func filterIgnored(issues []domain.Issue, ignored []string) []domain.Issue {
	if len(ignored) == 0 {
		return issues
	}
	skip := make(map[string]struct{}, len(ignored))
	for _, c := range ignored {
		skip[c] = struct{}{}
	}
	out := make([]domain.Issue, 0, len(issues))
	for _, iss := range issues {
		if _, drop := skip[iss.Code]; drop {
			continue
		}
		out = append(out, iss)
	}
	return out
}

// codesOf returns the deduplicated set of issue codes across every
// result, regardless of result status.
func codesOf(results []domain.AnalysisResult) map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range results {
		for _, c := range r.Codes() {
			set[c] = struct{}{}
		}
	}
	return set
}

func diffCodes(current, previous map[string]struct{}) domain.IssueDelta {
	var added, removed []string
	unchanged := 0
	for c := range current {
		if _, ok := previous[c]; ok {
			unchanged++
		} else {
			added = append(added, c)
		}
	}
	for c := range previous {
		if _, ok := current[c]; !ok {
			removed = append(removed, c)
		}
	}
	return domain.IssueDelta{Added: added, Removed: removed, UnchangedCount: unchanged}
}
