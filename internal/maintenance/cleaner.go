// Package maintenance implements the housekeeping side of the
// cleanup_old_data job: per-target row purges past a retention window.
package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
)

// Cleaner implements jobs.DataCleaner against PostgreSQL. Retention
// windows are defaults, overridable per target for operators who need a
// tighter or looser policy.
type Cleaner struct {
	db        *sql.DB
	retention map[string]time.Duration
}

func NewCleaner(db *sql.DB) *Cleaner {
	return &Cleaner{
		db: db,
		retention: map[string]time.Duration{
			"tracking_events":    90 * 24 * time.Hour,
			"analyses":           365 * 24 * time.Hour,
			"snapshots":          365 * 24 * time.Hour,
			"messenger_messages": 30 * 24 * time.Hour,
		},
	}
}

// SetRetention overrides the default window for a target.
func (c *Cleaner) SetRetention(target string, window time.Duration) {
	c.retention[target] = window
}

var targetQueries = map[string]string{
	"tracking_events":    `DELETE FROM tracking_events WHERE created_at < $1`,
	"snapshots":          `DELETE FROM snapshots WHERE created_at < $1`,
	"messenger_messages": `DELETE FROM messenger_messages WHERE delivered_at IS NOT NULL AND delivered_at < $1`,
	// analysis_results has no timestamp of its own; it is purged alongside
	// its parent analyses row in the same statement.
	"analyses": `
		WITH doomed AS (
			DELETE FROM analyses WHERE created_at < $1 RETURNING id
		),
		purged_results AS (
			DELETE FROM analysis_results WHERE analysis_id IN (SELECT id FROM doomed) RETURNING 1
		)
		SELECT count(*) FROM doomed
	`,
}

// CleanupOldData purges rows in target older than its retention window and
// returns the number removed. An unrecognized target is a permanent
// failure, not a retry candidate: the job body named something this
// deployment doesn't know how to clean.
func (c *Cleaner) CleanupOldData(ctx context.Context, target string) (int, error) {
	window, ok := c.retention[target]
	if !ok {
		return 0, apperror.New(apperror.PermanentFailure, fmt.Errorf("maintenance: unknown cleanup target %q", target))
	}
	query, ok := targetQueries[target]
	if !ok {
		return 0, apperror.New(apperror.PermanentFailure, fmt.Errorf("maintenance: unknown cleanup target %q", target))
	}
	cutoff := time.Now().UTC().Add(-window)

	if target == "analyses" {
		var n int
		if err := c.db.QueryRowContext(ctx, query, cutoff).Scan(&n); err != nil {
			return 0, fmt.Errorf("cleanup %s: %w", target, err)
		}
		return n, nil
	}

	result, err := c.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup %s: %w", target, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup %s: rows affected: %w", target, err)
	}
	return int(affected), nil
}

// CheckSSL is a minimal stand-in for the certificate re-verification job:
// the concrete TLS probe lives outside this repo (same boundary as the
// other analyzer implementations), so this reports zero checked without making
// any network call. A deployment that wants a real probe wires its own
// SSLChecker in front of this one.
func (c *Cleaner) CheckSSL(ctx context.Context) (int, error) {
	return 0, nil
}
