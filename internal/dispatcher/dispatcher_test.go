package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/queue"
)

type memJob struct {
	job     domain.Job
	claimed bool
}

type memStore struct {
	mu   sync.Mutex
	jobs map[int64]*memJob
	next int64
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[int64]*memJob)}
}

func (s *memStore) Enqueue(ctx context.Context, q domain.QueueName, kind domain.JobKind, body string, availableAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.jobs[s.next] = &memJob{job: domain.Job{
		ID: s.next, Queue: q, Kind: kind, Body: body,
		Headers: queue.EncodeHeaders(queue.Headers{Kind: kind}), AvailableAt: availableAt,
	}}
	return s.next, nil
}

func (s *memStore) Claim(ctx context.Context, q domain.QueueName) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mj := range s.jobs {
		if mj.job.Queue == q && !mj.claimed && !mj.job.AvailableAt.After(time.Now()) {
			mj.claimed = true
			j := mj.job
			return &j, nil
		}
	}
	return nil, nil
}

func (s *memStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

func (s *memStore) Requeue(ctx context.Context, job domain.Job, availableAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, _ := queue.DecodeHeaders(job.Headers)
	h.RetryCount++
	job.Headers = queue.EncodeHeaders(h)
	job.AvailableAt = availableAt
	s.jobs[job.ID] = &memJob{job: job, claimed: false}
	return nil
}

func (s *memStore) MoveToFailed(ctx context.Context, job domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Queue = domain.QueueFailed
	s.jobs[job.ID] = &memJob{job: job, claimed: false}
	return nil
}

func (s *memStore) RecoverStale(ctx context.Context, leaseTimeout time.Duration) (int, error) {
	return 0, nil
}

func (s *memStore) queueOf(id int64) domain.QueueName {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id].job.Queue
}

func TestPoolSucceedsDeletesJob(t *testing.T) {
	store := newMemStore()
	id, _ := store.Enqueue(context.Background(), domain.QueueHigh, domain.JobSendEmail, "ok", time.Now())

	p := New(store, []domain.QueueName{domain.QueueHigh}, 1)
	p.Register(domain.JobSendEmail, func(ctx context.Context, body string) error { return nil })
	p.Start()
	defer p.Stop()

	waitUntil(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		_, exists := store.jobs[id]
		return !exists
	})
}

func TestPoolRetriesRetryableFailure(t *testing.T) {
	store := newMemStore()
	store.Enqueue(context.Background(), domain.QueueHigh, domain.JobSendEmail, "boom", time.Now())

	p := New(store, []domain.QueueName{domain.QueueHigh}, 1)
	p.Register(domain.JobSendEmail, func(ctx context.Context, body string) error {
		return apperror.New(apperror.UpstreamUnavailable, errors.New("transient"))
	})
	p.Start()
	defer p.Stop()

	waitUntil(t, func() bool {
		return p.Stats()["retried"] >= 1
	})
}

func TestPoolPermanentFailureSkipsRetry(t *testing.T) {
	store := newMemStore()
	store.Enqueue(context.Background(), domain.QueueHigh, domain.JobSendEmail, "bad-body", time.Now())

	p := New(store, []domain.QueueName{domain.QueueHigh}, 1)
	p.Register(domain.JobSendEmail, func(ctx context.Context, body string) error {
		return apperror.New(apperror.PermanentFailure, errors.New("malformed"))
	})
	p.Start()
	defer p.Stop()

	waitUntil(t, func() bool {
		return p.Stats()["failed"] >= 1 && p.Stats()["retried"] == 0
	})
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
