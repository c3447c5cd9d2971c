package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// TenantSchema is the DDL for tenant config: rate limits and score
// thresholds are tenant data, not code.
const TenantSchema = `
CREATE TABLE IF NOT EXISTS tenants (
	id                          TEXT PRIMARY KEY,
	user_code                   TEXT NOT NULL,
	industry                    TEXT,
	excluded_domains            TEXT[],
	parent_tenant_id            TEXT,
	per_day                     INT NOT NULL DEFAULT 0,
	per_hour                    INT NOT NULL DEFAULT 0,
	per_domain_per_day          INT NOT NULL DEFAULT 0,
	qualified_score             INT NOT NULL DEFAULT 70,
	disqualified_score          INT NOT NULL DEFAULT 30,
	max_critical_for_qualified  INT NOT NULL DEFAULT 0
);
`

// TenantRepo implements sendgate.TenantRepository, analysis.ThresholdResolver,
// and ratelimit.TenantRateLimits: three narrow interfaces over the one
// tenants table, each consumer depending only on the slice it needs.
type TenantRepo struct{ db *sql.DB }

func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{db: db} }

func (r *TenantRepo) Get(ctx context.Context, tenantID string) (domain.Tenant, error) {
	var t domain.Tenant
	var industry, parent sql.NullString
	var excluded pq.StringArray
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_code, industry, excluded_domains, parent_tenant_id,
		       per_day, per_hour, per_domain_per_day,
		       qualified_score, disqualified_score, max_critical_for_qualified
		FROM tenants WHERE id = $1
	`, tenantID).Scan(&t.ID, &t.UserCode, &industry, &excluded, &parent,
		&t.RateLimits.PerDay, &t.RateLimits.PerHour, &t.RateLimits.PerDomainPerDay,
		&t.ScoreThresholds.QualifiedScore, &t.ScoreThresholds.DisqualifiedScore, &t.ScoreThresholds.MaxCriticalForQualified)
	if err != nil {
		return t, fmt.Errorf("get tenant %s: %w", tenantID, err)
	}
	t.Industry = industry.String
	t.ParentTenantID = parent.String
	t.ExcludedDomains = []string(excluded)
	return t, nil
}

// GetByUserCode resolves the operator-facing userCode to a tenant, used by
// the HTTP command surface, which addresses tenants by userCode rather
// than internal id.
func (r *TenantRepo) GetByUserCode(ctx context.Context, userCode string) (domain.Tenant, error) {
	var id string
	if err := r.db.QueryRowContext(ctx, `SELECT id FROM tenants WHERE user_code = $1`, userCode).Scan(&id); err != nil {
		return domain.Tenant{}, fmt.Errorf("get tenant by user_code %s: %w", userCode, err)
	}
	return r.Get(ctx, id)
}

func (r *TenantRepo) RateLimitsFor(ctx context.Context, tenantID string) (domain.RateLimits, error) {
	t, err := r.Get(ctx, tenantID)
	if err != nil {
		return domain.RateLimits{}, err
	}
	return t.RateLimits, nil
}

func (r *TenantRepo) ScoreThresholdsFor(ctx context.Context, tenantID string) (domain.ScoreThresholds, error) {
	t, err := r.Get(ctx, tenantID)
	if err != nil {
		return domain.ScoreThresholds{}, err
	}
	return t.ScoreThresholds, nil
}
