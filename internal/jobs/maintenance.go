package jobs

import (
	"context"
	"fmt"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
)

// Screenshotter captures a lead's current homepage screenshot (the
// headless browser lives outside this repo); leadID is its idempotency key.
type Screenshotter interface {
	TakeScreenshot(ctx context.Context, leadID string) error
}

// TakeScreenshotBody is the decoded body of a take_screenshot job, enqueued
// by the analysis pipeline after a completed run.
type TakeScreenshotBody struct {
	LeadID string `json:"leadId"`
}

func TakeScreenshotHandler(shot Screenshotter) func(ctx context.Context, body string) error {
	return func(ctx context.Context, body string) error {
		var b TakeScreenshotBody
		if err := decode(body, &b); err != nil {
			return err
		}
		if b.LeadID == "" {
			return apperror.New(apperror.PermanentFailure, fmt.Errorf("take_screenshot body missing leadId"))
		}
		if err := shot.TakeScreenshot(ctx, b.LeadID); err != nil {
			return asRetryable(err)
		}
		return nil
	}
}

// ProposalExpirer transitions stale pending_approval/approved offers whose
// proposal window has lapsed back out of circulation. No parameters in the
// job body; the handler scans on its own.
type ProposalExpirer interface {
	ExpireProposals(ctx context.Context) (int, error)
}

func ExpireProposalsHandler(exp ProposalExpirer) func(ctx context.Context, body string) error {
	return func(ctx context.Context, body string) error {
		if _, err := exp.ExpireProposals(ctx); err != nil {
			return asRetryable(err)
		}
		return nil
	}
}

// SSLChecker re-verifies each tracked lead domain's certificate state
// (the concrete TLS probe lives outside this repo, same as the other
// analyzer implementations).
type SSLChecker interface {
	CheckSSL(ctx context.Context) (int, error)
}

func CheckSSLHandler(chk SSLChecker) func(ctx context.Context, body string) error {
	return func(ctx context.Context, body string) error {
		if _, err := chk.CheckSSL(ctx); err != nil {
			return asRetryable(err)
		}
		return nil
	}
}

// DataCleaner purges rows past their retention window for one named target
// (e.g. "analyses"), per the cleanup_old_data(target) body shape.
type DataCleaner interface {
	CleanupOldData(ctx context.Context, target string) (int, error)
}

// CleanupOldDataBody is the decoded body of a cleanup_old_data job.
type CleanupOldDataBody struct {
	Target string `json:"target"`
}

func CleanupOldDataHandler(cleaner DataCleaner) func(ctx context.Context, body string) error {
	return func(ctx context.Context, body string) error {
		var b CleanupOldDataBody
		if err := decode(body, &b); err != nil {
			return err
		}
		if _, err := cleaner.CleanupOldData(ctx, b.Target); err != nil {
			return asRetryable(err)
		}
		return nil
	}
}
