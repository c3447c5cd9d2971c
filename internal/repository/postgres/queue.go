package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/queue"
)

// Schema is the durable job table DDL.
const Schema = `
CREATE TABLE IF NOT EXISTS messenger_messages (
	id           BIGSERIAL PRIMARY KEY,
	body         TEXT NOT NULL,
	headers      TEXT NOT NULL,
	queue_name   VARCHAR(190) NOT NULL,
	created_at   TIMESTAMP NOT NULL DEFAULT NOW(),
	available_at TIMESTAMP NOT NULL,
	delivered_at TIMESTAMP NULL
);
CREATE INDEX IF NOT EXISTS idx_messenger_messages_claim
	ON messenger_messages (queue_name, available_at, delivered_at);
`

// QueueRepo implements queue.Store against PostgreSQL: one table, an
// atomic claim CTE, and the fixed priority classes.
type QueueRepo struct{ db *sql.DB }

func NewQueueRepo(db *sql.DB) *QueueRepo { return &QueueRepo{db: db} }

func (r *QueueRepo) Enqueue(ctx context.Context, q domain.QueueName, kind domain.JobKind, body string, availableAt time.Time) (int64, error) {
	headers := queue.EncodeHeaders(queue.Headers{Kind: kind, RetryCount: 0})
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messenger_messages (body, headers, queue_name, created_at, available_at)
		VALUES ($1, $2, $3, NOW(), $4)
		RETURNING id
	`, body, headers, string(q), availableAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("enqueue: %w", err)
	}
	return id, nil
}

func (r *QueueRepo) Claim(ctx context.Context, q domain.QueueName) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `
		WITH claimed AS (
			SELECT id FROM messenger_messages
			WHERE queue_name = $1
			  AND available_at <= NOW()
			  AND delivered_at IS NULL
			ORDER BY available_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE messenger_messages m
		SET delivered_at = NOW()
		FROM claimed
		WHERE m.id = claimed.id
		RETURNING m.id, m.body, m.headers, m.queue_name, m.created_at, m.available_at, m.delivered_at
	`, string(q))

	var job domain.Job
	var queueName string
	var headers string
	var delivered sql.NullTime
	err := row.Scan(&job.ID, &job.Body, &headers, &queueName, &job.CreatedAt, &job.AvailableAt, &delivered)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim: %w", err)
	}
	job.Queue = domain.QueueName(queueName)
	job.Headers = headers
	if delivered.Valid {
		job.DeliveredAt = &delivered.Time
	}
	h, err := queue.DecodeHeaders(headers)
	if err == nil {
		job.Kind = h.Kind
	}
	return &job, nil
}

func (r *QueueRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messenger_messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

func (r *QueueRepo) Requeue(ctx context.Context, job domain.Job, availableAt time.Time) error {
	h, _ := queue.DecodeHeaders(job.Headers)
	h.RetryCount++
	_, err := r.db.ExecContext(ctx, `
		UPDATE messenger_messages
		SET headers = $1, available_at = $2, delivered_at = NULL
		WHERE id = $3
	`, queue.EncodeHeaders(h), availableAt, job.ID)
	if err != nil {
		return fmt.Errorf("requeue: %w", err)
	}
	return nil
}

func (r *QueueRepo) MoveToFailed(ctx context.Context, job domain.Job) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messenger_messages
		SET queue_name = $1, delivered_at = NULL, available_at = NOW()
		WHERE id = $2
	`, string(domain.QueueFailed), job.ID)
	if err != nil {
		return fmt.Errorf("move to failed: %w", err)
	}
	return nil
}

// Depth reports the number of claimable jobs waiting in q, sampled by the
// scheduler for the queue_depth gauge.
func (r *QueueRepo) Depth(ctx context.Context, q domain.QueueName) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM messenger_messages
		WHERE queue_name = $1 AND available_at <= NOW() AND delivered_at IS NULL
	`, string(q)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return n, nil
}

// RecoverStale implements dead-lease recovery: any row delivered more
// than leaseTimeout ago but never deleted (its worker crashed) becomes
// claimable again.
func (r *QueueRepo) RecoverStale(ctx context.Context, leaseTimeout time.Duration) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messenger_messages
		SET delivered_at = NULL
		WHERE delivered_at IS NOT NULL
		  AND delivered_at < NOW() - make_interval(secs => $1)
	`, leaseTimeout.Seconds())
	if err != nil {
		return 0, fmt.Errorf("recover stale: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
