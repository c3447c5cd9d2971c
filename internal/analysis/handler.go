package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
)

// AnalyzeLeadBody is the decoded body of an analyze_lead job.
type AnalyzeLeadBody struct {
	LeadID    string `json:"leadId"`
	Reanalyze bool   `json:"reanalyze,omitempty"`
	Industry  string `json:"industry,omitempty"`
	ProfileID string `json:"profile,omitempty"`
}

// Handler returns a dispatcher.Handler that decodes the job body and runs
// the pipeline. A concurrent-run no-op (Engine.Run returning a nil analysis
// and nil error) still reports success so the job is deleted, not retried.
func Handler(engine *Engine) func(ctx context.Context, body string) error {
	return func(ctx context.Context, body string) error {
		var b AnalyzeLeadBody
		if err := json.Unmarshal([]byte(body), &b); err != nil {
			return apperror.New(apperror.PermanentFailure, fmt.Errorf("decode analyze_lead body: %w", err))
		}
		if b.LeadID == "" {
			return apperror.New(apperror.PermanentFailure, fmt.Errorf("analyze_lead body missing leadId"))
		}

		_, err := engine.Run(ctx, b.LeadID, b.Industry)
		if err != nil {
			return apperror.New(apperror.UpstreamUnavailable, err)
		}
		return nil
	}
}
