package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// SuppressionSchema is the DDL for the tenant-scoped suppression table.
// tenant_id NULL means the entry is global (hard_bounce/complaint); a
// partial unique index enforces one row per (tenant, email) and a second
// one per (email) among global rows.
const SuppressionSchema = `
CREATE TABLE IF NOT EXISTS suppressions (
	id         UUID PRIMARY KEY,
	tenant_id  TEXT,
	email      TEXT NOT NULL,
	md5_hash   TEXT NOT NULL,
	reason     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS suppressions_tenant_email_idx
	ON suppressions (tenant_id, email) WHERE tenant_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS suppressions_global_email_idx
	ON suppressions (email) WHERE tenant_id IS NULL;
`

// SuppressionRepo implements service/suppression.Repository against
// PostgreSQL, with tenant_id NULL marking global entries.
type SuppressionRepo struct{ db *sql.DB }

func NewSuppressionRepo(db *sql.DB) *SuppressionRepo { return &SuppressionRepo{db: db} }

func nullTenant(tenantID string) sql.NullString {
	if tenantID == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: tenantID, Valid: true}
}

// Upsert is idempotent on (tenant_id, email): a second Upsert for the same
// pair preserves the original reason and created_at.
func (r *SuppressionRepo) Upsert(ctx context.Context, s domain.Suppression) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	tenant := nullTenant(s.TenantID)
	conflictTarget := "(email) WHERE tenant_id IS NULL"
	if s.TenantID != "" {
		conflictTarget = "(tenant_id, email) WHERE tenant_id IS NOT NULL"
	}
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO suppressions (id, tenant_id, email, md5_hash, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT %s DO NOTHING
	`, conflictTarget), s.ID, tenant, s.Email, s.MD5Hash, s.Reason)
	if err != nil {
		return fmt.Errorf("upsert suppression: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) Remove(ctx context.Context, tenantID, email string) (bool, error) {
	var res sql.Result
	var err error
	if tenantID == "" {
		res, err = r.db.ExecContext(ctx,
			`DELETE FROM suppressions WHERE email = $1 AND tenant_id IS NULL`, email)
	} else {
		res, err = r.db.ExecContext(ctx,
			`DELETE FROM suppressions WHERE email = $1 AND tenant_id = $2`, email, tenantID)
	}
	if err != nil {
		return false, fmt.Errorf("remove suppression: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *SuppressionRepo) ListUnsubscribes(ctx context.Context, tenantID string, limit int) ([]domain.Suppression, error) {
	return r.list(ctx, `tenant_id = $1`, tenantID, limit)
}

func (r *SuppressionRepo) ListGlobal(ctx context.Context, limit int) ([]domain.Suppression, error) {
	return r.list(ctx, `tenant_id IS NULL`, nil, limit)
}

func (r *SuppressionRepo) list(ctx context.Context, where string, arg interface{}, limit int) ([]domain.Suppression, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, email, md5_hash, reason, created_at
		FROM suppressions WHERE %s ORDER BY created_at DESC`, where)
	var args []interface{}
	if arg != nil {
		args = append(args, arg)
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list suppressions: %w", err)
	}
	defer rows.Close()

	var out []domain.Suppression
	for rows.Next() {
		var s domain.Suppression
		var tenant sql.NullString
		if err := rows.Scan(&s.ID, &tenant, &s.Email, &s.MD5Hash, &s.Reason, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan suppression: %w", err)
		}
		s.TenantID = tenant.String
		out = append(out, s)
	}
	return out, nil
}

// AllHashes returns the hex MD5 hashes for a list reload: tenantID "" means
// the global list, otherwise that tenant's own entries.
func (r *SuppressionRepo) AllHashes(ctx context.Context, tenantID string) ([]string, error) {
	var rows *sql.Rows
	var err error
	if tenantID == "" {
		rows, err = r.db.QueryContext(ctx, `SELECT md5_hash FROM suppressions WHERE tenant_id IS NULL`)
	} else {
		rows, err = r.db.QueryContext(ctx, `SELECT md5_hash FROM suppressions WHERE tenant_id = $1`, tenantID)
	}
	if err != nil {
		return nil, fmt.Errorf("all suppression hashes: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}
