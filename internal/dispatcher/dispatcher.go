// Package dispatcher implements the worker pool: a configurable number of
// goroutines that pull jobs from the job transport by priority, dispatch
// to the handler registered for the job's kind, and apply the queue's
// retry policy on failure.
package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/metrics"
	"github.com/ignite/outreach-orchestrator/internal/pkg/logger"
	"github.com/ignite/outreach-orchestrator/internal/queue"
)

// Handler processes one job body. It must be idempotent: at-least-once
// execution is guaranteed by the transport.
type Handler func(ctx context.Context, body string) error

// HandlerTimeout is the maximum handler wall time.
var HandlerTimeout = 120 * time.Second

// Pool pulls jobs from an ordered list of queues and dispatches them to
// registered handlers.
type Pool struct {
	store      queue.Store
	queues     []domain.QueueName // ordered; first non-empty claim wins
	handlers   map[domain.JobKind]Handler
	numWorkers int
	idleSleep  time.Duration

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	totalSucceeded int64
	totalRetried   int64
	totalFailed    int64
}

// New builds a Pool that will run numWorkers goroutines, each polling
// queues in the given priority order.
func New(store queue.Store, queues []domain.QueueName, numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 10
	}
	return &Pool{
		store:      store,
		queues:     queues,
		handlers:   make(map[domain.JobKind]Handler),
		numWorkers: numWorkers,
		idleSleep:  200 * time.Millisecond,
	}
}

// Register binds a handler to a job kind. Must be called before Start.
func (p *Pool) Register(kind domain.JobKind, h Handler) {
	p.handlers[kind] = h
}

// Stats returns running totals for observability.
func (p *Pool) Stats() map[string]int64 {
	return map[string]int64{
		"succeeded": atomic.LoadInt64(&p.totalSucceeded),
		"retried":   atomic.LoadInt64(&p.totalRetried),
		"failed":    atomic.LoadInt64(&p.totalFailed),
	}
}

// Start launches the worker goroutines. It returns immediately.
func (p *Pool) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.mu.Unlock()

	logger.Info("dispatcher starting", "workers", p.numWorkers, "queues", p.queues)
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels all workers and blocks until they have drained.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	logger.Info("dispatcher stopped", "succeeded", atomic.LoadInt64(&p.totalSucceeded),
		"retried", atomic.LoadInt64(&p.totalRetried), "failed", atomic.LoadInt64(&p.totalFailed))
}

func (p *Pool) worker(n int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		job, ok := p.claimNext()
		if !ok {
			time.Sleep(p.idleSleep)
			continue
		}
		p.process(*job)
	}
}

// claimNext tries each queue in priority order; the first non-empty claim
// wins.
func (p *Pool) claimNext() (*domain.Job, bool) {
	claimCtx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
	defer cancel()

	for _, q := range p.queues {
		job, err := p.store.Claim(claimCtx, q)
		if err != nil {
			logger.Error("claim failed", "queue", q, "error", err.Error())
			continue
		}
		if job != nil {
			metrics.JobsClaimed.WithLabelValues(string(q)).Inc()
			return job, true
		}
	}
	return nil, false
}

func (p *Pool) process(job domain.Job) {
	h, ok := p.handlers[job.Kind]
	if !ok {
		logger.Error("no handler registered", "kind", job.Kind, "job_id", job.ID)
		p.fail(job)
		return
	}

	handlerCtx, cancel := context.WithTimeout(p.ctx, HandlerTimeout)
	defer cancel()

	start := time.Now()
	err := h(handlerCtx, job.Body)
	metrics.HandlerDuration.WithLabelValues(string(job.Kind)).Observe(time.Since(start).Seconds())

	if err == nil {
		if delErr := p.store.Delete(context.Background(), job.ID); delErr != nil {
			logger.Error("delete after success failed", "job_id", job.ID, "error", delErr.Error())
		}
		atomic.AddInt64(&p.totalSucceeded, 1)
		metrics.JobsSucceeded.WithLabelValues(string(job.Kind)).Inc()
		return
	}

	if apperror.KindOf(err) == apperror.PermanentFailure {
		logger.Warn("permanent failure, moving to failed queue", "job_id", job.ID, "kind", job.Kind, "error", err.Error())
		p.fail(job)
		return
	}

	p.retryOrFail(job, err)
}

func (p *Pool) retryOrFail(job domain.Job, handlerErr error) {
	policy, ok := domain.RetryPolicies[job.Queue]
	if !ok {
		p.fail(job)
		return
	}

	h, _ := queue.DecodeHeaders(job.Headers)
	attempt := h.RetryCount + 1
	if attempt > policy.MaxRetries {
		logger.Warn("retries exhausted, moving to failed queue", "job_id", job.ID, "kind", job.Kind, "attempts", attempt)
		p.fail(job)
		return
	}

	delay := policy.Delay(attempt)
	logger.Warn("handler failed, requeuing", "job_id", job.ID, "kind", job.Kind, "attempt", attempt, "delay", delay.String(), "error", handlerErr.Error())
	if err := p.store.Requeue(context.Background(), job, time.Now().Add(delay)); err != nil {
		logger.Error("requeue failed", "job_id", job.ID, "error", err.Error())
	}
	atomic.AddInt64(&p.totalRetried, 1)
	metrics.JobsRetried.WithLabelValues(string(job.Kind)).Inc()
}

func (p *Pool) fail(job domain.Job) {
	if err := p.store.MoveToFailed(context.Background(), job); err != nil {
		logger.Error("move to failed errored", "job_id", job.ID, "error", err.Error())
	}
	atomic.AddInt64(&p.totalFailed, 1)
	metrics.JobsFailed.WithLabelValues(string(job.Kind)).Inc()
}
