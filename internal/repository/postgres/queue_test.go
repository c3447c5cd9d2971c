package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/queue"
)

func newMockQueueRepo(t *testing.T) (*QueueRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewQueueRepo(db), mock, func() { db.Close() }
}

func TestEnqueue_EncodesKindIntoHeaders(t *testing.T) {
	repo, mock, done := newMockQueueRepo(t)
	defer done()

	wantHeaders := queue.EncodeHeaders(queue.Headers{Kind: domain.JobSendEmail, RetryCount: 0})
	mock.ExpectQuery("INSERT INTO messenger_messages").
		WithArgs(`{"offerId":"o1"}`, wantHeaders, "high", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.Enqueue(context.Background(), domain.QueueHigh, domain.JobSendEmail, `{"offerId":"o1"}`, time.Now())
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if id != 7 {
		t.Errorf("id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestClaim_ReturnsDeliveredJob(t *testing.T) {
	repo, mock, done := newMockQueueRepo(t)
	defer done()

	now := time.Now()
	headers := queue.EncodeHeaders(queue.Headers{Kind: domain.JobAnalyzeLead, RetryCount: 1})
	mock.ExpectQuery("WITH claimed AS").
		WithArgs("normal").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "body", "headers", "queue_name", "created_at", "available_at", "delivered_at"},
		).AddRow(int64(3), `{"leadId":"l1"}`, headers, "normal", now, now, now))

	job, err := repo.Claim(context.Background(), domain.QueueNormal)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if job == nil {
		t.Fatal("expected a job")
	}
	if job.Kind != domain.JobAnalyzeLead {
		t.Errorf("kind = %s, want analyze_lead", job.Kind)
	}
	if job.DeliveredAt == nil {
		t.Error("a claimed job must carry its delivered_at")
	}
}

func TestClaim_EmptyQueueIsNil(t *testing.T) {
	repo, mock, done := newMockQueueRepo(t)
	defer done()

	mock.ExpectQuery("WITH claimed AS").
		WithArgs("low").
		WillReturnRows(sqlmock.NewRows([]string{"id", "body", "headers", "queue_name", "created_at", "available_at", "delivered_at"}))

	job, err := repo.Claim(context.Background(), domain.QueueLow)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if job != nil {
		t.Errorf("expected nil job for empty queue, got %+v", job)
	}
}

func TestRequeue_IncrementsRetryCount(t *testing.T) {
	repo, mock, done := newMockQueueRepo(t)
	defer done()

	job := domain.Job{
		ID:      5,
		Queue:   domain.QueueHigh,
		Headers: queue.EncodeHeaders(queue.Headers{Kind: domain.JobSendEmail, RetryCount: 1}),
	}
	wantHeaders := queue.EncodeHeaders(queue.Headers{Kind: domain.JobSendEmail, RetryCount: 2})
	mock.ExpectExec("UPDATE messenger_messages").
		WithArgs(wantHeaders, sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Requeue(context.Background(), job, time.Now().Add(2*time.Second)); err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMoveToFailed_RelabelsQueue(t *testing.T) {
	repo, mock, done := newMockQueueRepo(t)
	defer done()

	mock.ExpectExec("UPDATE messenger_messages").
		WithArgs("failed", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MoveToFailed(context.Background(), domain.Job{ID: 9, Queue: domain.QueueHigh}); err != nil {
		t.Fatalf("MoveToFailed: %v", err)
	}
}
