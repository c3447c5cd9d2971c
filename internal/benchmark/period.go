// Package benchmark implements the snapshot and benchmark service: a
// per-lead trend snapshot taken after every completed Analysis, and a
// periodic cross-lead aggregate used for percentile ranking.
package benchmark

import (
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// PeriodStart floors t to the start of the bucket named by period: the UTC
// calendar day, the Monday of its ISO week, or the first of its UTC month.
func PeriodStart(period domain.SnapshotPeriod, t time.Time) time.Time {
	t = t.UTC()
	switch period {
	case domain.PeriodDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case domain.PeriodMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case domain.PeriodWeek:
		fallthrough
	default:
		day := t.Day()
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7 // ISO: Sunday is day 7, not 0
		}
		monday := time.Date(t.Year(), t.Month(), day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(weekday - 1))
		return monday
	}
}
