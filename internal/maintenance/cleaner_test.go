package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupTestDB(t *testing.T) (*Cleaner, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewCleaner(db), mock, func() { db.Close() }
}

func TestCleanupOldData_DeletesPastRetention(t *testing.T) {
	c, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM tracking_events WHERE created_at < \\$1").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := c.CleanupOldData(context.Background(), "tracking_events")
	if err != nil {
		t.Fatalf("CleanupOldData: %v", err)
	}
	if n != 7 {
		t.Errorf("n = %d, want 7", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCleanupOldData_AnalysesPurgesOrphanedResults(t *testing.T) {
	c, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("WITH doomed AS").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := c.CleanupOldData(context.Background(), "analyses")
	if err != nil {
		t.Fatalf("CleanupOldData: %v", err)
	}
	if n != 3 {
		t.Errorf("n = %d, want 3", n)
	}
}

func TestCleanupOldData_UnknownTargetIsError(t *testing.T) {
	c, _, cleanup := setupTestDB(t)
	defer cleanup()

	if _, err := c.CleanupOldData(context.Background(), "nonsense"); err == nil {
		t.Error("expected an error for an unrecognized cleanup target")
	}
}

func TestSetRetention_OverridesDefaultWindow(t *testing.T) {
	c, mock, cleanup := setupTestDB(t)
	defer cleanup()

	c.SetRetention("tracking_events", 24*time.Hour)

	mock.ExpectExec("DELETE FROM tracking_events").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if _, err := c.CleanupOldData(context.Background(), "tracking_events"); err != nil {
		t.Fatalf("CleanupOldData: %v", err)
	}
}

func TestCheckSSL_NoopReturnsZero(t *testing.T) {
	c, _, cleanup := setupTestDB(t)
	defer cleanup()

	n, err := c.CheckSSL(context.Background())
	if err != nil {
		t.Fatalf("CheckSSL: %v", err)
	}
	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
}
