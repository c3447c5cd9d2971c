package benchmark

import (
	"context"
	"fmt"
	"sort"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// topIssuesPerSnapshot bounds how many issue codes a single Snapshot row
// carries; the full set lives on the AnalysisResult rows it's derived from.
const topIssuesPerSnapshot = 5

// SnapshotService implements internal/analysis's SnapshotWriter, called once
// per completed Analysis. It is intentionally narrow: it has no opinion on
// cross-lead aggregation, which is Engine's job (aggregator.go).
type SnapshotService struct {
	Repo             Repository
	IndustryDefaults map[string]domain.SnapshotPeriod
}

func (s *SnapshotService) Upsert(ctx context.Context, lead domain.Lead, a domain.Analysis, results []domain.AnalysisResult) error {
	period := lead.EffectiveSnapshotPeriod(s.IndustryDefaults)
	at := a.CreatedAt
	if a.CompletedAt != nil {
		at = *a.CompletedAt
	}

	categoryScores := make(map[string]int, len(results))
	issueCount := 0
	for _, r := range results {
		if r.Status != domain.ResultCompleted {
			continue
		}
		categoryScores[r.Category] = r.Score
		issueCount += len(r.Issues)
	}

	snap := domain.Snapshot{
		LeadID:             lead.ID,
		PeriodType:         period,
		PeriodStart:        PeriodStart(period, at),
		TotalScore:         a.TotalScore,
		CategoryScores:     categoryScores,
		IssueCount:         issueCount,
		CriticalIssueCount: domain.CriticalIssueCount(results),
		TopIssues:          topCodesBySeverity(results, topIssuesPerSnapshot),
		ScoreDelta:         a.ScoreDelta,
		CreatedAt:          at,
	}

	if err := s.Repo.UpsertSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("upsert snapshot for lead %s: %w", lead.ID, err)
	}
	return nil
}

var severityRank = map[domain.IssueSeverity]int{
	domain.SeverityCritical: 0,
	domain.SeverityHigh:     1,
	domain.SeverityMedium:   2,
	domain.SeverityLow:      3,
	domain.SeverityInfo:     4,
}

// topCodesBySeverity orders this analysis's own issues worst-first and
// returns at most limit codes, deduplicated.
func topCodesBySeverity(results []domain.AnalysisResult, limit int) []string {
	type scored struct {
		code string
		rank int
	}
	seen := make(map[string]struct{})
	var all []scored
	for _, r := range results {
		for _, iss := range r.Issues {
			if _, ok := seen[iss.Code]; ok {
				continue
			}
			seen[iss.Code] = struct{}{}
			all = append(all, scored{code: iss.Code, rank: severityRank[iss.Severity]})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].rank != all[j].rank {
			return all[i].rank < all[j].rank
		}
		return all[i].code < all[j].code
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]string, len(all))
	for i, s := range all {
		out[i] = s.code
	}
	return out
}
