package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/urlcanon"
)

// LeadSchema is the DDL for leads and their optional discovery profiles.
// The unique index on (tenant_id, domain) is the load-bearing invariant
// enforcer: one Lead per tenant per domain.
const LeadSchema = `
CREATE TABLE IF NOT EXISTS leads (
	id                   UUID PRIMARY KEY,
	tenant_id            TEXT NOT NULL,
	domain               TEXT NOT NULL,
	url                  TEXT NOT NULL,
	status               TEXT NOT NULL,
	industry             TEXT,
	snapshot_period      TEXT,
	latest_analysis_id   UUID,
	analysis_count       INT NOT NULL DEFAULT 0,
	analyzed_at          TIMESTAMPTZ,
	discovery_profile_id UUID,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS leads_tenant_domain_idx ON leads (tenant_id, domain);

CREATE TABLE IF NOT EXISTS discovery_profiles (
	id                  UUID PRIMARY KEY,
	tenant_id           TEXT NOT NULL,
	source              TEXT NOT NULL,
	queries             JSONB,
	disabled_categories JSONB,
	priority_overrides  JSONB,
	ignore_codes        JSONB,
	analyzer_limit      INT
);
`

// LeadRepo implements analysis.LeadRepository against PostgreSQL.
type LeadRepo struct{ db *sql.DB }

func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{db: db} }

func (r *LeadRepo) Get(ctx context.Context, leadID string) (domain.Lead, error) {
	var l domain.Lead
	var industry, snapshotPeriod, latestAnalysisID, profileID sql.NullString
	var analyzedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, domain, url, status, industry, snapshot_period,
		       latest_analysis_id, analysis_count, analyzed_at, discovery_profile_id, created_at
		FROM leads WHERE id = $1
	`, leadID).Scan(&l.ID, &l.TenantID, &l.Domain, &l.URL, &l.Status, &industry, &snapshotPeriod,
		&latestAnalysisID, &l.AnalysisCount, &analyzedAt, &profileID, &l.CreatedAt)
	if err != nil {
		return l, fmt.Errorf("get lead %s: %w", leadID, err)
	}
	l.Industry = industry.String
	l.SnapshotPeriod = domain.SnapshotPeriod(snapshotPeriod.String)
	l.LatestAnalysisID = latestAnalysisID.String
	l.DiscoveryProfileID = profileID.String
	if analyzedAt.Valid {
		l.AnalyzedAt = &analyzedAt.Time
	}
	return l, nil
}

func (r *LeadRepo) Update(ctx context.Context, lead domain.Lead) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE leads SET status = $2, industry = $3, snapshot_period = $4,
			latest_analysis_id = $5, analysis_count = $6, analyzed_at = $7
		WHERE id = $1
	`, lead.ID, lead.Status, nullString(lead.Industry), nullString(string(lead.SnapshotPeriod)),
		nullUUIDString(lead.LatestAnalysisID), lead.AnalysisCount, lead.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("update lead %s: %w", lead.ID, err)
	}
	return nil
}

func (r *LeadRepo) DiscoveryProfile(ctx context.Context, leadID string) (*domain.DiscoveryProfile, error) {
	var profileID sql.NullString
	if err := r.db.QueryRowContext(ctx, `SELECT discovery_profile_id FROM leads WHERE id = $1`, leadID).Scan(&profileID); err != nil {
		return nil, fmt.Errorf("lookup discovery profile for lead %s: %w", leadID, err)
	}
	if !profileID.Valid || profileID.String == "" {
		return nil, nil
	}

	var p domain.DiscoveryProfile
	var queries, disabled, overrides, ignore []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, source, queries, disabled_categories, priority_overrides, ignore_codes, analyzer_limit
		FROM discovery_profiles WHERE id = $1
	`, profileID.String).Scan(&p.ID, &p.TenantID, &p.Source, &queries, &disabled, &overrides, &ignore, &p.AnalyzerLimit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get discovery profile %s: %w", profileID.String, err)
	}
	_ = json.Unmarshal(queries, &p.Queries)
	_ = json.Unmarshal(disabled, &p.DisabledCategories)
	_ = json.Unmarshal(overrides, &p.PriorityOverrides)
	_ = json.Unmarshal(ignore, &p.IgnoreCodes)
	return &p, nil
}

// GetProfile loads one DiscoveryProfile by id, used to re-resolve fresh
// profile state when a batch_discovery job fires (jobs.ProfileResolver).
func (r *LeadRepo) GetProfile(ctx context.Context, profileID string) (domain.DiscoveryProfile, error) {
	var p domain.DiscoveryProfile
	var queries, disabled, overrides, ignore []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, source, queries, disabled_categories, priority_overrides, ignore_codes, analyzer_limit
		FROM discovery_profiles WHERE id = $1
	`, profileID).Scan(&p.ID, &p.TenantID, &p.Source, &queries, &disabled, &overrides, &ignore, &p.AnalyzerLimit)
	if err != nil {
		return p, fmt.Errorf("get discovery profile %s: %w", profileID, err)
	}
	_ = json.Unmarshal(queries, &p.Queries)
	_ = json.Unmarshal(disabled, &p.DisabledCategories)
	_ = json.Unmarshal(overrides, &p.PriorityOverrides)
	_ = json.Unmarshal(ignore, &p.IgnoreCodes)
	return p, nil
}

// ActiveProfiles lists every discovery profile, the fan-out set for the
// daily batch_discovery tick (jobs.ProfileLister). All profiles are
// considered active; pausing one is left to discover_leads' idempotency key
// tolerating a no-op run rather than a separate enabled flag.
func (r *LeadRepo) ActiveProfiles(ctx context.Context) ([]domain.DiscoveryProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, source, queries, disabled_categories, priority_overrides, ignore_codes, analyzer_limit
		FROM discovery_profiles
	`)
	if err != nil {
		return nil, fmt.Errorf("list discovery profiles: %w", err)
	}
	defer rows.Close()

	var out []domain.DiscoveryProfile
	for rows.Next() {
		var p domain.DiscoveryProfile
		var queries, disabled, overrides, ignore []byte
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Source, &queries, &disabled, &overrides, &ignore, &p.AnalyzerLimit); err != nil {
			return nil, fmt.Errorf("scan discovery profile: %w", err)
		}
		_ = json.Unmarshal(queries, &p.Queries)
		_ = json.Unmarshal(disabled, &p.DisabledCategories)
		_ = json.Unmarshal(overrides, &p.PriorityOverrides)
		_ = json.Unmarshal(ignore, &p.IgnoreCodes)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a new lead, generating its ID if unset. Uniqueness on
// (tenant_id, domain) is enforced by the DB, not the application. The URL
// is canonicalized and its domain re-derived here rather than trusted from
// the caller, so the (tenant_id, domain) dedup key holds
// regardless of whether the discoverer that found this URL normalized it.
func (r *LeadRepo) Create(ctx context.Context, l domain.Lead) (string, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if canon, err := urlcanon.Canonicalize(l.URL); err == nil {
		l.URL = canon
	}
	if d, err := urlcanon.Domain(l.URL); err == nil && d != "" {
		l.Domain = d
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads (id, tenant_id, domain, url, status, industry, snapshot_period, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`, l.ID, l.TenantID, l.Domain, l.URL, l.Status, nullString(l.Industry), nullString(string(l.SnapshotPeriod)))
	if err != nil {
		return "", fmt.Errorf("create lead: %w", err)
	}
	return l.ID, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullUUIDString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
