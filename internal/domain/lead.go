package domain

import "time"

// LeadStatus is the qualification status assigned by the lead-status
// mapper. The concrete set is tenant-agnostic; thresholds
// that choose between them are tenant config.
type LeadStatus string

const (
	LeadStatusNew          LeadStatus = "new"
	LeadStatusAnalyzing    LeadStatus = "analyzing"
	LeadStatusQualified    LeadStatus = "qualified"
	LeadStatusDisqualified LeadStatus = "disqualified"
	LeadStatusNeedsReview  LeadStatus = "needs_review"
)

// SnapshotPeriod is the aggregation granularity for a Lead's trend data.
type SnapshotPeriod string

const (
	PeriodDay   SnapshotPeriod = "day"
	PeriodWeek  SnapshotPeriod = "week"
	PeriodMonth SnapshotPeriod = "month"
)

// Lead is a target domain tracked through discover -> analyze -> score ->
// propose -> send. Unique on (TenantID, Domain).
type Lead struct {
	ID                   string         `json:"id" db:"id"`
	TenantID             string         `json:"tenantId" db:"tenant_id"`
	Domain               string         `json:"domain" db:"domain"`
	URL                  string         `json:"url" db:"url"`
	Status               LeadStatus     `json:"status" db:"status"`
	Industry             string         `json:"industry,omitempty" db:"industry"`
	SnapshotPeriod       SnapshotPeriod `json:"snapshotPeriod,omitempty" db:"snapshot_period"`
	LatestAnalysisID     string         `json:"latestAnalysisId,omitempty" db:"latest_analysis_id"`
	AnalysisCount        int            `json:"analysisCount" db:"analysis_count"`
	AnalyzedAt           *time.Time     `json:"analyzedAt,omitempty" db:"analyzed_at"`
	DiscoveryProfileID   string         `json:"discoveryProfileId,omitempty" db:"discovery_profile_id"`
	CreatedAt            time.Time      `json:"createdAt" db:"created_at"`
}

// EffectiveSnapshotPeriod returns the Lead's override if set, otherwise the
// industry default (fast-moving industries prefer day, stable ones week;
// default week). industryDefaults maps industry -> period for industries
// with a non-default preference.
func (l Lead) EffectiveSnapshotPeriod(industryDefaults map[string]SnapshotPeriod) SnapshotPeriod {
	if l.SnapshotPeriod != "" {
		return l.SnapshotPeriod
	}
	if p, ok := industryDefaults[l.Industry]; ok {
		return p
	}
	return PeriodWeek
}
