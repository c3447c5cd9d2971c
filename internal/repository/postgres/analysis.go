package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// AnalysisSchema is the DDL for Analysis/AnalysisResult rows. The partial
// unique index on (lead_id) WHERE status = 'running' is what HasRunning's
// caller actually relies on: a concurrent CreateAnalysis racing another
// in-flight run fails at the DB rather than the application.
const AnalysisSchema = `
CREATE TABLE IF NOT EXISTS analyses (
	id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	lead_id              UUID NOT NULL,
	sequence_number      INT NOT NULL,
	previous_analysis_id UUID,
	status               TEXT NOT NULL,
	industry             TEXT,
	is_eshop             BOOLEAN NOT NULL DEFAULT FALSE,
	total_score          INT NOT NULL DEFAULT 0,
	score_delta          INT,
	is_improved          BOOLEAN NOT NULL DEFAULT FALSE,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at         TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS analyses_one_running_per_lead
	ON analyses (lead_id) WHERE status = 'running';
CREATE INDEX IF NOT EXISTS analyses_lead_seq_idx ON analyses (lead_id, sequence_number DESC);

CREATE TABLE IF NOT EXISTS analysis_results (
	id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	analysis_id   UUID NOT NULL,
	category      TEXT NOT NULL,
	status        TEXT NOT NULL,
	raw_data      JSONB,
	issues        JSONB,
	score         INT NOT NULL DEFAULT 0,
	error_message TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS analysis_results_analysis_category_idx
	ON analysis_results (analysis_id, category);
`

// AnalysisRepo implements analysis.Repository against PostgreSQL.
type AnalysisRepo struct{ db *sql.DB }

func NewAnalysisRepo(db *sql.DB) *AnalysisRepo { return &AnalysisRepo{db: db} }

func (r *AnalysisRepo) HasRunning(ctx context.Context, leadID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM analyses WHERE lead_id = $1 AND status = 'running')
	`, leadID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check running analysis for lead %s: %w", leadID, err)
	}
	return exists, nil
}

func (r *AnalysisRepo) Latest(ctx context.Context, leadID string) (*domain.Analysis, error) {
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, `
		SELECT id, lead_id, sequence_number, previous_analysis_id, status, industry, is_eshop,
		       total_score, score_delta, is_improved, created_at, completed_at
		FROM analyses
		WHERE lead_id = $1 AND status IN ('completed', 'failed')
		ORDER BY sequence_number DESC
		LIMIT 1
	`, leadID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest analysis for lead %s: %w", leadID, err)
	}
	return &a, nil
}

func scanAnalysis(row interface{ Scan(...interface{}) error }) (domain.Analysis, error) {
	var a domain.Analysis
	var previousID, industry sql.NullString
	var scoreDelta sql.NullInt64
	var completedAt sql.NullTime
	err := row.Scan(&a.ID, &a.LeadID, &a.SequenceNumber, &previousID, &a.Status, &industry, &a.IsEshop,
		&a.TotalScore, &scoreDelta, &a.IsImproved, &a.CreatedAt, &completedAt)
	if err != nil {
		return a, err
	}
	a.PreviousAnalysisID = previousID.String
	a.Industry = industry.String
	if scoreDelta.Valid {
		v := int(scoreDelta.Int64)
		a.ScoreDelta = &v
	}
	a.CompletedAt = timePtr(completedAt)
	return a, nil
}

// ListByLead returns a page of a lead's analyses newest-first, along with
// the total row count for pagination (lead.analyses).
func (r *AnalysisRepo) ListByLead(ctx context.Context, leadID string, limit, offset int) ([]domain.Analysis, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM analyses WHERE lead_id = $1`, leadID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count analyses for lead %s: %w", leadID, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lead_id, sequence_number, previous_analysis_id, status, industry, is_eshop,
		       total_score, score_delta, is_improved, created_at, completed_at
		FROM analyses
		WHERE lead_id = $1
		ORDER BY sequence_number DESC
		LIMIT $2 OFFSET $3
	`, leadID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list analyses for lead %s: %w", leadID, err)
	}
	defer rows.Close()

	var out []domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *AnalysisRepo) LatestResults(ctx context.Context, analysisID string) ([]domain.AnalysisResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, analysis_id, category, status, raw_data, issues, score, error_message
		FROM analysis_results WHERE analysis_id = $1
	`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("latest results for analysis %s: %w", analysisID, err)
	}
	defer rows.Close()

	var out []domain.AnalysisResult
	for rows.Next() {
		res, err := scanResultRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func scanResultRow(rows *sql.Rows) (domain.AnalysisResult, error) {
	var res domain.AnalysisResult
	var rawData, issues []byte
	var errMsg sql.NullString
	if err := rows.Scan(&res.ID, &res.AnalysisID, &res.Category, &res.Status, &rawData, &issues, &res.Score, &errMsg); err != nil {
		return res, err
	}
	res.ErrorMessage = errMsg.String
	if len(rawData) > 0 {
		_ = json.Unmarshal(rawData, &res.RawData)
	}
	if len(issues) > 0 {
		_ = json.Unmarshal(issues, &res.Issues)
	}
	return res, nil
}

func (r *AnalysisRepo) CreateAnalysis(ctx context.Context, a domain.Analysis) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO analyses (lead_id, sequence_number, previous_analysis_id, status, industry, is_eshop, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, a.LeadID, a.SequenceNumber, nullUUIDString(a.PreviousAnalysisID), a.Status, nullString(a.Industry), a.IsEshop, a.CreatedAt).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create analysis: %w", err)
	}
	return id, nil
}

func (r *AnalysisRepo) UpdateAnalysis(ctx context.Context, a domain.Analysis) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE analyses SET status = $2, is_eshop = $3, total_score = $4, score_delta = $5,
			is_improved = $6, completed_at = $7
		WHERE id = $1
	`, a.ID, a.Status, a.IsEshop, a.TotalScore, a.ScoreDelta, a.IsImproved, a.CompletedAt)
	if err != nil {
		return fmt.Errorf("update analysis %s: %w", a.ID, err)
	}
	return nil
}

func (r *AnalysisRepo) CreateResult(ctx context.Context, res domain.AnalysisResult) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO analysis_results (analysis_id, category, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`, res.AnalysisID, res.Category, res.Status).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create result for %s: %w", res.Category, err)
	}
	return id, nil
}

func (r *AnalysisRepo) UpdateResult(ctx context.Context, res domain.AnalysisResult) error {
	rawData, err := json.Marshal(res.RawData)
	if err != nil {
		return fmt.Errorf("marshal raw data: %w", err)
	}
	issues, err := json.Marshal(res.Issues)
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE analysis_results SET status = $2, raw_data = $3, issues = $4, score = $5, error_message = $6
		WHERE id = $1
	`, res.ID, res.Status, rawData, issues, res.Score, nullString(res.ErrorMessage))
	if err != nil {
		return fmt.Errorf("update result %s: %w", res.ID, err)
	}
	return nil
}
