package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

type fakeStore struct {
	enqueued []domain.JobKind
}

func (f *fakeStore) Enqueue(ctx context.Context, q domain.QueueName, kind domain.JobKind, body string, availableAt time.Time) (int64, error) {
	f.enqueued = append(f.enqueued, kind)
	return int64(len(f.enqueued)), nil
}
func (f *fakeStore) Claim(ctx context.Context, q domain.QueueName) (*domain.Job, error) {
	return nil, nil
}
func (f *fakeStore) Delete(ctx context.Context, id int64) error { return nil }
func (f *fakeStore) Requeue(ctx context.Context, job domain.Job, availableAt time.Time) error {
	return nil
}
func (f *fakeStore) MoveToFailed(ctx context.Context, job domain.Job) error { return nil }
func (f *fakeStore) RecoverStale(ctx context.Context, leaseTimeout time.Duration) (int, error) {
	return 0, nil
}

func TestSchedulerTicksEmitJobs(t *testing.T) {
	store := &fakeStore{}
	entry := Entry{
		Name: "test_entry", Kind: domain.JobCheckSSL, Queue: domain.QueueLow, Every: 20 * time.Millisecond,
		Body: func(ctx context.Context) ([]string, error) { return []string{"{}"}, nil },
	}
	s := New(store, []Entry{entry})
	s.Start()
	defer s.Stop()

	time.Sleep(70 * time.Millisecond)
	if len(store.enqueued) < 2 {
		t.Fatalf("expected at least 2 ticks, got %d", len(store.enqueued))
	}
}
