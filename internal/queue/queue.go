// Package queue implements the durable job transport: a single table of
// priority-queued jobs with an atomic claim, a dead-lease recovery scan,
// and per-queue retry backoff across the fixed high/normal/low/failed
// classes.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// Headers is the decoded shape of a Job's headers column. RetryCount is the
// number of attempts already made; Kind routes the job to its handler.
type Headers struct {
	Kind       domain.JobKind `json:"kind"`
	RetryCount int            `json:"retryCount"`
}

// EncodeHeaders serializes h for storage in the headers column.
func EncodeHeaders(h Headers) string {
	b, _ := json.Marshal(h)
	return string(b)
}

// DecodeHeaders parses the headers column back into a Headers value.
func DecodeHeaders(raw string) (Headers, error) {
	var h Headers
	if raw == "" {
		return h, nil
	}
	err := json.Unmarshal([]byte(raw), &h)
	return h, err
}

// Store is the durable transport contract consumed by the dispatcher and
// the scheduler.
type Store interface {
	// Enqueue inserts a new job, claimable once availableAt has passed.
	Enqueue(ctx context.Context, queue domain.QueueName, kind domain.JobKind, body string, availableAt time.Time) (int64, error)

	// Claim atomically picks the earliest-available unclaimed job in queue
	// and marks it delivered. Returns nil, nil if the queue is empty.
	Claim(ctx context.Context, queue domain.QueueName) (*domain.Job, error)

	// Delete removes a job after successful handling.
	Delete(ctx context.Context, id int64) error

	// Requeue returns a job to its queue (its row updated in place, same id)
	// with availableAt pushed out by backoff and RetryCount incremented.
	Requeue(ctx context.Context, job domain.Job, availableAt time.Time) error

	// MoveToFailed relocates a job to the failed queue, never to be consumed
	// automatically again.
	MoveToFailed(ctx context.Context, job domain.Job) error

	// RecoverStale finds jobs delivered more than leaseTimeout ago and
	// returns them to their queue (decrementing nothing; the dispatcher's
	// retry accounting happens on handler failure, not on lease expiry).
	// It returns the number of jobs recovered.
	RecoverStale(ctx context.Context, leaseTimeout time.Duration) (int, error)
}
