package domain

import "time"

// Snapshot is a periodic aggregate of an Analysis, keyed by
// (lead, periodType, periodStart), used for trending.
type Snapshot struct {
	ID                 string         `json:"id" db:"id"`
	LeadID             string         `json:"leadId" db:"lead_id"`
	PeriodType         SnapshotPeriod `json:"periodType" db:"period_type"`
	PeriodStart        time.Time      `json:"periodStart" db:"period_start"`
	TotalScore         int            `json:"totalScore" db:"total_score"`
	CategoryScores     map[string]int `json:"categoryScores" db:"category_scores"`
	IssueCount         int            `json:"issueCount" db:"issue_count"`
	CriticalIssueCount int            `json:"criticalIssueCount" db:"critical_issue_count"`
	TopIssues          []string       `json:"topIssues" db:"top_issues"`
	ScoreDelta         *int           `json:"scoreDelta,omitempty" db:"score_delta"`
	CreatedAt          time.Time      `json:"createdAt" db:"created_at"`
}
