package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// IssueRegistrySchema is the DDL for the persisted issue-code registry.
// Codes outlive analyzer code: a code registered here must keep its meaning
// across releases, so rows are only ever upserted, never renamed.
const IssueRegistrySchema = `
CREATE TABLE IF NOT EXISTS issue_definitions (
	code          TEXT PRIMARY KEY,
	severity      TEXT NOT NULL,
	category      TEXT NOT NULL,
	human_message TEXT NOT NULL
);
`

// IssueRegistryRepo persists the issue-code registry.
type IssueRegistryRepo struct{ db *sql.DB }

func NewIssueRegistryRepo(db *sql.DB) *IssueRegistryRepo { return &IssueRegistryRepo{db: db} }

// Upsert registers or updates one definition. The code itself is immutable
// (it is the key); severity, category, and message may evolve.
func (r *IssueRegistryRepo) Upsert(ctx context.Context, def domain.IssueDefinition) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO issue_definitions (code, severity, category, human_message)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET
			severity = EXCLUDED.severity,
			category = EXCLUDED.category,
			human_message = EXCLUDED.human_message
	`, def.Code, def.Severity, def.Category, def.HumanMessage)
	if err != nil {
		return fmt.Errorf("upsert issue definition %s: %w", def.Code, err)
	}
	return nil
}

// All returns every registered definition, code-sorted.
func (r *IssueRegistryRepo) All(ctx context.Context) ([]domain.IssueDefinition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, severity, category, human_message
		FROM issue_definitions ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("list issue definitions: %w", err)
	}
	defer rows.Close()

	var out []domain.IssueDefinition
	for rows.Next() {
		var d domain.IssueDefinition
		if err := rows.Scan(&d.Code, &d.Severity, &d.Category, &d.HumanMessage); err != nil {
			return nil, fmt.Errorf("scan issue definition: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
