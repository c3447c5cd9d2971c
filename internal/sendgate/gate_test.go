package sendgate

import (
	"context"
	"testing"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
	"github.com/ignite/outreach-orchestrator/internal/domain"
)

type fakeRepo struct {
	offers map[string]domain.Offer
}

func newFakeRepo(offers ...domain.Offer) *fakeRepo {
	r := &fakeRepo{offers: make(map[string]domain.Offer)}
	for _, o := range offers {
		r.offers[o.ID] = o
	}
	return r
}

func (r *fakeRepo) Get(ctx context.Context, id string) (domain.Offer, error) {
	o, ok := r.offers[id]
	if !ok {
		return o, apperror.New(apperror.NotFound, nil)
	}
	return o, nil
}

func (r *fakeRepo) Transition(ctx context.Context, o domain.Offer) error {
	r.offers[o.ID] = o
	return nil
}

func (r *fakeRepo) Create(ctx context.Context, o domain.Offer) error {
	r.offers[o.ID] = o
	return nil
}

func (r *fakeRepo) ExpiryCandidates(ctx context.Context, cutoff time.Time) ([]domain.Offer, error) {
	var out []domain.Offer
	for _, o := range r.offers {
		switch o.Status {
		case domain.OfferPendingApproval:
			if o.SubmittedAt != nil && o.SubmittedAt.Before(cutoff) {
				out = append(out, o)
			}
		case domain.OfferApproved:
			if o.ApprovedAt != nil && o.ApprovedAt.Before(cutoff) {
				out = append(out, o)
			}
		}
	}
	return out, nil
}

type fakeSuppression struct{ blocked bool }

func (f fakeSuppression) IsBlocked(email, tenantID string) bool { return f.blocked }

type fakeLimiter struct {
	allowed bool
	reason  string
}

func (f fakeLimiter) Evaluate(ctx context.Context, tenantID, domainName string) (bool, string, error) {
	return f.allowed, f.reason, nil
}

func (f fakeLimiter) RecordSent(ctx context.Context, tenantID, domainName string) error { return nil }

type fakeSender struct {
	called bool
	err    error
}

func (f *fakeSender) Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return &domain.SendResult{Success: true, MessageID: "msg-1"}, nil
}

func TestSend_SuccessTransitionsToSent(t *testing.T) {
	offer := domain.Offer{ID: "o1", Status: domain.OfferApproved, Recipient: "lead@example.com"}
	repo := newFakeRepo(offer)
	sender := &fakeSender{}
	g := NewGate(repo, fakeSuppression{}, fakeLimiter{allowed: true}, sender, nil)

	got, err := g.Send(context.Background(), "o1", "tenant-1", "example.com")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.Status != domain.OfferSent {
		t.Errorf("status = %s, want sent", got.Status)
	}
	if got.SentAt == nil {
		t.Error("expected SentAt to be set")
	}
	if !sender.called {
		t.Error("expected sender to be called")
	}
}

func TestSend_SuppressedRejectsWithoutCallingSender(t *testing.T) {
	offer := domain.Offer{ID: "o1", Status: domain.OfferApproved, Recipient: "blocked@example.com"}
	repo := newFakeRepo(offer)
	sender := &fakeSender{}
	g := NewGate(repo, fakeSuppression{blocked: true}, fakeLimiter{allowed: true}, sender, nil)

	got, err := g.Send(context.Background(), "o1", "tenant-1", "example.com")
	if apperror.KindOf(err) != apperror.Suppressed {
		t.Fatalf("expected Suppressed kind, got %v", err)
	}
	if sender.called {
		t.Error("sender must not be called when recipient is suppressed")
	}
	if repo.offers["o1"].Status != domain.OfferRejected {
		t.Errorf("status = %q, want rejected", repo.offers["o1"].Status)
	}
	if got.RejectionReason != "suppressed" {
		t.Errorf("rejection reason = %q, want suppressed", got.RejectionReason)
	}
	if repo.offers["o1"].SentAt != nil {
		t.Error("SentAt must stay unset on a suppressed send")
	}
}

func TestSend_RateLimitedNeverCallsSender(t *testing.T) {
	offer := domain.Offer{ID: "o1", Status: domain.OfferApproved, Recipient: "lead@example.com"}
	repo := newFakeRepo(offer)
	sender := &fakeSender{}
	g := NewGate(repo, fakeSuppression{}, fakeLimiter{allowed: false, reason: "daily cap reached"}, sender, nil)

	_, err := g.Send(context.Background(), "o1", "tenant-1", "example.com")
	if apperror.KindOf(err) != apperror.RateLimited {
		t.Fatalf("expected RateLimited kind, got %v", err)
	}
	if sender.called {
		t.Error("sender must not be called when rate-limited")
	}
}

func TestSend_WrongStatusIsInvalidTransition(t *testing.T) {
	offer := domain.Offer{ID: "o1", Status: domain.OfferDraft, Recipient: "lead@example.com"}
	repo := newFakeRepo(offer)
	g := NewGate(repo, fakeSuppression{}, fakeLimiter{allowed: true}, &fakeSender{}, nil)

	_, err := g.Send(context.Background(), "o1", "tenant-1", "example.com")
	if apperror.KindOf(err) != apperror.InvalidTransition {
		t.Fatalf("expected InvalidTransition kind, got %v", err)
	}
}

func TestRecordOpen_IsIdempotent(t *testing.T) {
	offer := domain.Offer{ID: "o1", Status: domain.OfferSent}
	repo := newFakeRepo(offer)
	g := NewGate(repo, fakeSuppression{}, fakeLimiter{allowed: true}, &fakeSender{}, nil)

	first, err := g.RecordOpen(context.Background(), "o1")
	if err != nil {
		t.Fatalf("RecordOpen: %v", err)
	}
	if first.Status != domain.OfferOpened || first.OpenedAt == nil {
		t.Fatalf("expected opened with timestamp, got %+v", first)
	}

	second, err := g.RecordOpen(context.Background(), "o1")
	if err != nil {
		t.Fatalf("second RecordOpen: %v", err)
	}
	if second.OpenedAt != first.OpenedAt {
		t.Error("expected OpenedAt to be stamped only once")
	}
}

func TestRecycle_RejectsNonRecyclable(t *testing.T) {
	offer := domain.Offer{ID: "o1", Status: domain.OfferDraft, IsAIGenerated: true}
	repo := newFakeRepo(offer)
	g := NewGate(repo, fakeSuppression{}, fakeLimiter{allowed: true}, &fakeSender{}, nil)

	_, err := g.Recycle(context.Background(), "o1", "tenant-2", "")
	if err == nil {
		t.Error("expected error recycling a draft offer")
	}
}

func TestRecycle_ClonesSentOfferToNewTenant(t *testing.T) {
	offer := domain.Offer{ID: "o1", TenantID: "tenant-1", LeadID: "lead-1", Status: domain.OfferSent, IsAIGenerated: true, IsCustomized: false, Subject: "Hi there"}
	repo := newFakeRepo(offer)
	g := NewGate(repo, fakeSuppression{}, fakeLimiter{allowed: true}, &fakeSender{}, nil)

	clone, err := g.Recycle(context.Background(), "o1", "tenant-2", "")
	if err != nil {
		t.Fatalf("Recycle: %v", err)
	}
	if clone.Status != domain.OfferDraft || clone.Subject != "Hi there" {
		t.Errorf("unexpected clone: %+v", clone)
	}
	if clone.TenantID != "tenant-2" {
		t.Errorf("TenantID = %q, want tenant-2", clone.TenantID)
	}
	if clone.ID == "o1" || clone.ID == "" {
		t.Errorf("expected a fresh ID, got %q", clone.ID)
	}
	if len(clone.TrackingToken) != 64 {
		t.Errorf("TrackingToken len = %d, want 64", len(clone.TrackingToken))
	}
	if repo.offers["o1"].Status != domain.OfferSent {
		t.Error("source offer must not be mutated by recycle")
	}
}

func TestSend_StoresProviderMessageID(t *testing.T) {
	offer := domain.Offer{ID: "o1", Status: domain.OfferApproved, Recipient: "lead@example.com"}
	repo := newFakeRepo(offer)
	g := NewGate(repo, fakeSuppression{}, fakeLimiter{allowed: true}, &fakeSender{}, nil)

	got, err := g.Send(context.Background(), "o1", "tenant-1", "example.com")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.ProviderMessageID != "msg-1" {
		t.Errorf("ProviderMessageID = %q, want msg-1", got.ProviderMessageID)
	}
}

func TestExpireProposals_RejectsStaleOffersOnly(t *testing.T) {
	stale := time.Now().UTC().Add(-30 * 24 * time.Hour)
	fresh := time.Now().UTC().Add(-1 * time.Hour)
	offers := []domain.Offer{
		{ID: "stale-pending", Status: domain.OfferPendingApproval, SubmittedAt: &stale},
		{ID: "fresh-pending", Status: domain.OfferPendingApproval, SubmittedAt: &fresh},
		{ID: "stale-approved", Status: domain.OfferApproved, ApprovedAt: &stale},
		{ID: "sent", Status: domain.OfferSent},
	}
	repo := newFakeRepo(offers...)
	g := NewGate(repo, fakeSuppression{}, fakeLimiter{allowed: true}, &fakeSender{}, nil)

	n, err := g.ExpireProposals(context.Background())
	if err != nil {
		t.Fatalf("ExpireProposals: %v", err)
	}
	if n != 2 {
		t.Errorf("expired count = %d, want 2", n)
	}
	if repo.offers["stale-pending"].Status != domain.OfferRejected {
		t.Errorf("stale-pending status = %q, want rejected", repo.offers["stale-pending"].Status)
	}
	if repo.offers["stale-approved"].Status != domain.OfferRejected {
		t.Errorf("stale-approved status = %q, want rejected", repo.offers["stale-approved"].Status)
	}
	if repo.offers["fresh-pending"].Status != domain.OfferPendingApproval {
		t.Errorf("fresh-pending must not be touched, got %q", repo.offers["fresh-pending"].Status)
	}
	if repo.offers["sent"].Status != domain.OfferSent {
		t.Errorf("sent offer must not be touched, got %q", repo.offers["sent"].Status)
	}
}
