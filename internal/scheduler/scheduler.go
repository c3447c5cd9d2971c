// Package scheduler emits recurring jobs into the job transport on a
// fixed schedule. Each entry owns one time.Ticker sized to its period;
// there is no cron-expression parsing. If the scheduler is down during a
// tick, that tick is simply never fired — no catch-up storm.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/metrics"
	"github.com/ignite/outreach-orchestrator/internal/pkg/distlock"
	"github.com/ignite/outreach-orchestrator/internal/pkg/logger"
	"github.com/ignite/outreach-orchestrator/internal/queue"
)

// DepthSampler reports how many claimable jobs are waiting in a queue.
// Satisfied by internal/repository/postgres.QueueRepo.
type DepthSampler interface {
	Depth(ctx context.Context, q domain.QueueName) (int, error)
}

var sampledQueues = []domain.QueueName{domain.QueueHigh, domain.QueueNormal, domain.QueueLow, domain.QueueFailed}

const depthSampleInterval = 15 * time.Second

// Entry is one recurring emission: Kind into Queue every Every, with Body
// computed fresh at tick time (so per-tenant fan-out profiles can vary).
type Entry struct {
	Name  string
	Kind  domain.JobKind
	Queue domain.QueueName
	Every time.Duration
	Body  func(ctx context.Context) ([]string, error) // one body per emitted job
}

// DefaultEntries is the default schedule table. batchDiscoveryBody must be
// supplied by the caller since it depends on each tenant's DiscoveryProfile.
func DefaultEntries(batchDiscoveryBody func(ctx context.Context) ([]string, error)) []Entry {
	weekly := 7 * 24 * time.Hour
	daily := 24 * time.Hour
	return []Entry{
		{Name: "calculate_benchmarks", Kind: domain.JobCalculateBenchmarks, Queue: domain.QueueLow, Every: weekly,
			Body: func(ctx context.Context) ([]string, error) { return []string{"{}"}, nil }},
		{Name: "expire_proposals", Kind: domain.JobExpireProposals, Queue: domain.QueueLow, Every: daily,
			Body: func(ctx context.Context) ([]string, error) { return []string{"{}"}, nil }},
		{Name: "check_ssl", Kind: domain.JobCheckSSL, Queue: domain.QueueLow, Every: daily,
			Body: func(ctx context.Context) ([]string, error) { return []string{"{}"}, nil }},
		{Name: "cleanup_old_data", Kind: domain.JobCleanupOldData, Queue: domain.QueueLow, Every: weekly,
			Body: func(ctx context.Context) ([]string, error) { return []string{`{"target":"analyses"}`}, nil }},
		{Name: "batch_discovery", Kind: domain.JobBatchDiscovery, Queue: domain.QueueLow, Every: daily,
			Body: batchDiscoveryBody},
	}
}

// Scheduler runs a ticker per Entry and enqueues into the job transport.
//
// LockFactory, when set, guards each tick with a per-entry distributed lock
// so that running the scheduler on more than one replica does not double-
// enqueue a recurring job: only the replica that acquires the lock for that
// tick actually emits. This is best-effort mutual exclusion, not
// consensus — a missed lock just means two replicas both skip or both fire
// for one tick, which the job idempotency keys already tolerate
// downstream.
type Scheduler struct {
	store       queue.Store
	entries     []Entry
	LockFactory func(entryName string) distlock.DistLock

	// Depths, when set, drives a periodic sample of the queue_depth gauge
	// across the fixed priority classes. Optional: a deployment without it
	// just runs the recurring entries with no depth metric.
	Depths DepthSampler

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(store queue.Store, entries []Entry) *Scheduler {
	return &Scheduler{store: store, entries: entries}
}

// Start launches one goroutine per entry. Returns immediately.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, e := range s.entries {
		entry := e
		s.wg.Add(1)
		go s.run(ctx, entry)
	}

	if s.Depths != nil {
		s.wg.Add(1)
		go s.sampleDepths(ctx)
	}
}

func (s *Scheduler) sampleDepths(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(depthSampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, q := range sampledQueues {
				n, err := s.Depths.Depth(ctx, q)
				if err != nil {
					logger.Error("scheduler depth sample failed", "queue", string(q), "error", err.Error())
					continue
				}
				metrics.QueueDepth.WithLabelValues(string(q)).Set(float64(n))
			}
		}
	}
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, e Entry) {
	defer s.wg.Done()
	ticker := time.NewTicker(e.Every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, e)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, e Entry) {
	if s.LockFactory != nil {
		lock := s.LockFactory(e.Name)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			logger.Error("scheduler lock acquire failed", "entry", e.Name, "error", err.Error())
			return
		}
		if !acquired {
			return
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				logger.Warn("scheduler lock release failed", "entry", e.Name, "error", err.Error())
			}
		}()
	}

	bodies, err := e.Body(ctx)
	if err != nil {
		logger.Error("scheduler entry failed to build bodies", "entry", e.Name, "error", err.Error())
		return
	}
	for _, body := range bodies {
		if _, err := s.store.Enqueue(ctx, e.Queue, e.Kind, body, time.Now()); err != nil {
			logger.Error("scheduler enqueue failed", "entry", e.Name, "error", err.Error())
		}
	}
}
