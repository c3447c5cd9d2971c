package analysis

import "github.com/ignite/outreach-orchestrator/internal/domain"

// MapStatus maps a completed Analysis to a Lead status: a pure,
// deterministic function of its total score, critical-issue count, and
// eshop flag, thresholded by tenant configuration. The concrete numeric
// thresholds are config, not code; only the decision tree's shape lives
// here.
//
// isEshop tightens the critical-issue bar rather than the score bar: a
// storefront with a checkout-path critical issue (e.g. broken cart, no
// TLS on payment pages) is held to one fewer critical issue than a
// brochure site before it can qualify.
func MapStatus(totalScore, criticalIssueCount int, isEshop bool, t domain.ScoreThresholds) domain.LeadStatus {
	maxCritical := t.MaxCriticalForQualified
	if isEshop && maxCritical > 0 {
		maxCritical--
	}

	switch {
	case criticalIssueCount > maxCritical:
		return domain.LeadStatusNeedsReview
	case totalScore >= t.QualifiedScore:
		return domain.LeadStatusQualified
	case totalScore <= t.DisqualifiedScore:
		return domain.LeadStatusDisqualified
	default:
		return domain.LeadStatusNeedsReview
	}
}
