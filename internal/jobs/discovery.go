package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// LeadDiscoverer runs a single discover_leads query against a source (the
// concrete scraper/search-API client lives outside this repo) and reports
// how many new leads it created; callers dedup per-result domain before
// this is called since that is its idempotency key.
type LeadDiscoverer interface {
	DiscoverLeads(ctx context.Context, source string, queries []string, tenantID string, limit int) (int, error)
}

// DiscoverLeadsBody is the decoded body of a discover_leads job.
type DiscoverLeadsBody struct {
	Source   string   `json:"source"`
	Queries  []string `json:"queries"`
	TenantID string   `json:"tenantId"`
	Limit    int      `json:"limit,omitempty"`
}

func DiscoverLeadsHandler(disc LeadDiscoverer) func(ctx context.Context, body string) error {
	return func(ctx context.Context, body string) error {
		var b DiscoverLeadsBody
		if err := decode(body, &b); err != nil {
			return err
		}
		if b.TenantID == "" || b.Source == "" {
			return apperror.New(apperror.PermanentFailure, fmt.Errorf("discover_leads body missing source/tenantId"))
		}
		_, err := disc.DiscoverLeads(ctx, b.Source, b.Queries, b.TenantID, b.Limit)
		if err != nil {
			return asRetryable(err)
		}
		return nil
	}
}

// ProfileLister supplies the active DiscoveryProfiles the daily
// batch_discovery tick fans out over, one job per profile.
type ProfileLister interface {
	ActiveProfiles(ctx context.Context) ([]domain.DiscoveryProfile, error)
}

// BatchDiscoveryBody builds the scheduler.Entry.Body for batch_discovery:
// one job body per active profile, each carrying just the profile id so the
// handler can re-resolve fresh profile state at dispatch time rather than
// risk acting on a stale copy captured at schedule time.
func BatchDiscoveryBody(profiles ProfileLister) func(ctx context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		list, err := profiles.ActiveProfiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("list active discovery profiles: %w", err)
		}
		bodies := make([]string, 0, len(list))
		for _, p := range list {
			b, err := json.Marshal(batchDiscoveryJobBody{ProfileID: p.ID})
			if err != nil {
				continue
			}
			bodies = append(bodies, string(b))
		}
		return bodies, nil
	}
}

type batchDiscoveryJobBody struct {
	ProfileID string `json:"profileId"`
}

// ProfileResolver loads one DiscoveryProfile by id, used by the
// batch_discovery handler to turn a profile id back into discover_leads
// parameters at dispatch time.
type ProfileResolver interface {
	GetProfile(ctx context.Context, profileID string) (domain.DiscoveryProfile, error)
}

// BatchDiscoveryHandler resolves the job's profile and enqueues the
// corresponding discover_leads job; idempotency (per-profile-per-day) is the
// caller's responsibility at enqueue time, same as every other scheduler
// entry (duplicates are tolerated downstream by discover_leads' own
// per-result-domain dedup).
func BatchDiscoveryHandler(profiles ProfileResolver, enq Enqueuer) func(ctx context.Context, body string) error {
	return func(ctx context.Context, body string) error {
		var b batchDiscoveryJobBody
		if err := decode(body, &b); err != nil {
			return err
		}
		if b.ProfileID == "" {
			return nil // legacy/manual tick with no profile scope: nothing to fan out
		}
		profile, err := profiles.GetProfile(ctx, b.ProfileID)
		if err != nil {
			return asRetryable(err)
		}
		discoverBody, err := json.Marshal(DiscoverLeadsBody{
			Source:   profile.Source,
			Queries:  profile.Queries,
			TenantID: profile.TenantID,
			Limit:    profile.AnalyzerLimit,
		})
		if err != nil {
			return fmt.Errorf("marshal discover_leads body: %w", err)
		}
		_, err = enq.Enqueue(ctx, domain.JobDiscoverLeads.DefaultQueue(), domain.JobDiscoverLeads, string(discoverBody), time.Now())
		if err != nil {
			return asRetryable(err)
		}
		return nil
	}
}

// Enqueuer is the narrow write surface onto the job transport the
// batch_discovery handler needs to fan out discover_leads jobs. Satisfied by
// queue.Store.
type Enqueuer interface {
	Enqueue(ctx context.Context, queue domain.QueueName, kind domain.JobKind, body string, availableAt time.Time) (int64, error)
}
