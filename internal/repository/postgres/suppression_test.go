package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

func newMockSuppressionRepo(t *testing.T) (*SuppressionRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewSuppressionRepo(db), mock, func() { db.Close() }
}

func TestUpsert_GlobalEntryConflictsOnEmailAlone(t *testing.T) {
	repo, mock, done := newMockSuppressionRepo(t)
	defer done()

	mock.ExpectExec(`ON CONFLICT \(email\) WHERE tenant_id IS NULL`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "x@y.com", sqlmock.AnyArg(), string(domain.ReasonHardBounce)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), domain.Suppression{
		Email: "x@y.com", Reason: domain.ReasonHardBounce,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpsert_TenantEntryConflictsOnTenantAndEmail(t *testing.T) {
	repo, mock, done := newMockSuppressionRepo(t)
	defer done()

	mock.ExpectExec(`ON CONFLICT \(tenant_id, email\) WHERE tenant_id IS NOT NULL`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "x@y.com", sqlmock.AnyArg(), string(domain.ReasonUnsubscribe)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), domain.Suppression{
		TenantID: "t1", Email: "x@y.com", Reason: domain.ReasonUnsubscribe,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func TestRemove_ReportsWhetherARowExisted(t *testing.T) {
	repo, mock, done := newMockSuppressionRepo(t)
	defer done()

	mock.ExpectExec("DELETE FROM suppressions").
		WithArgs("x@y.com", "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	removed, err := repo.Remove(context.Background(), "t1", "x@y.com")
	if err != nil || !removed {
		t.Fatalf("Remove = (%v, %v), want (true, nil)", removed, err)
	}

	mock.ExpectExec("DELETE FROM suppressions").
		WithArgs("x@y.com", "t1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	removed, err = repo.Remove(context.Background(), "t1", "x@y.com")
	if err != nil || removed {
		t.Fatalf("second Remove = (%v, %v), want (false, nil)", removed, err)
	}
}
