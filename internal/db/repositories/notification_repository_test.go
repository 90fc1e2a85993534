package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/docshost/docshost/internal/db/models"
)

var notificationCols = []string{"id", "organization_id", "message_id", "state", "dismissable", "format_values", "created_at", "updated_at"}

func sampleNotificationRow() *sqlmock.Rows {
	return sqlmock.NewRows(notificationCols).
		AddRow("notif-1", "org-1", "org:billing:payment-failed", "unread", true, []byte(`{}`), time.Now(), time.Now())
}

func newNotificationRepo(t *testing.T) (*NotificationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewNotificationRepository(db), mock
}

func TestNotificationGetByID_Found(t *testing.T) {
	repo, mock := newNotificationRepo(t)
	mock.ExpectQuery("SELECT.*FROM notifications.*WHERE id").
		WithArgs("notif-1").
		WillReturnRows(sampleNotificationRow())

	n, err := repo.GetByID(context.Background(), "notif-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n == nil {
		t.Fatal("expected notification, got nil")
	}
	if n.MessageID != "org:billing:payment-failed" {
		t.Errorf("MessageID = %s", n.MessageID)
	}
}

func TestNotificationGetByID_ScansFormatValues(t *testing.T) {
	repo, mock := newNotificationRepo(t)
	rows := sqlmock.NewRows(notificationCols).
		AddRow("notif-1", "org-1", "org:trial:ending", "unread", true,
			[]byte(`{"EndDate":"2026-09-01"}`), time.Now(), time.Now())
	mock.ExpectQuery("SELECT.*FROM notifications.*WHERE id").
		WithArgs("notif-1").
		WillReturnRows(rows)

	n, err := repo.GetByID(context.Background(), "notif-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.FormatValues["EndDate"] != "2026-09-01" {
		t.Errorf("FormatValues = %v, want EndDate 2026-09-01", n.FormatValues)
	}
}

func TestNotificationGetByID_NotFound(t *testing.T) {
	repo, mock := newNotificationRepo(t)
	mock.ExpectQuery("SELECT.*FROM notifications.*WHERE id").
		WillReturnRows(sqlmock.NewRows(notificationCols))

	n, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != nil {
		t.Error("expected nil, got non-nil")
	}
}

func TestListPendingByOrganization_MostRecentFirst(t *testing.T) {
	repo, mock := newNotificationRepo(t)
	rows := sqlmock.NewRows(notificationCols).
		AddRow("notif-2", "org-1", "org:trial:ending", "unread", true, []byte(`{"EndDate":"2026-09-01"}`), time.Now(), time.Now()).
		AddRow("notif-1", "org-1", "org:billing:payment-failed", "read", true, []byte(`{}`), time.Now().Add(-time.Hour), time.Now())
	mock.ExpectQuery("SELECT.*FROM notifications.*state IN \\('unread', 'read'\\).*ORDER BY created_at DESC").
		WithArgs("org-1").
		WillReturnRows(rows)

	ns, err := repo.ListPendingByOrganization(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ns) != 2 {
		t.Fatalf("len = %d, want 2", len(ns))
	}
	if ns[0].ID != "notif-2" {
		t.Errorf("first = %s, want notif-2", ns[0].ID)
	}
	if ns[0].FormatValues["EndDate"] != "2026-09-01" {
		t.Errorf("FormatValues = %v, want EndDate 2026-09-01", ns[0].FormatValues)
	}
}

func TestListPendingByOrganization_Empty(t *testing.T) {
	repo, mock := newNotificationRepo(t)
	mock.ExpectQuery("SELECT.*FROM notifications").
		WillReturnRows(sqlmock.NewRows(notificationCols))

	ns, err := repo.ListPendingByOrganization(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ns) != 0 {
		t.Errorf("len = %d, want 0", len(ns))
	}
}

func TestListByOrganization_Paginated(t *testing.T) {
	repo, mock := newNotificationRepo(t)
	mock.ExpectQuery("SELECT.*FROM notifications.*LIMIT").
		WithArgs("org-1", 10, 0).
		WillReturnRows(sampleNotificationRow())

	ns, err := repo.ListByOrganization(context.Background(), "org-1", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ns) != 1 {
		t.Errorf("len = %d, want 1", len(ns))
	}
}

func TestNotificationCreate_Success(t *testing.T) {
	repo, mock := newNotificationRepo(t)
	mock.ExpectQuery("INSERT INTO notifications").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("notif-new", time.Now(), time.Now()))

	n := &models.Notification{
		OrganizationID: "org-1",
		MessageID:      "org:trial:ending",
		State:          models.NotificationStateUnread,
		Dismissable:    true,
		FormatValues:   models.FormatValues{"EndDate": "2026-09-01"},
	}
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.ID != "notif-new" {
		t.Errorf("ID = %s, want notif-new", n.ID)
	}
}

func TestNotificationUpdateState_Valid(t *testing.T) {
	repo, mock := newNotificationRepo(t)
	mock.ExpectExec("UPDATE notifications SET state").
		WithArgs("notif-1", "dismissed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateState(context.Background(), "notif-1", "dismissed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNotificationUpdateState_InvalidState(t *testing.T) {
	repo, _ := newNotificationRepo(t)

	err := repo.UpdateState(context.Background(), "notif-1", "archived")
	if err == nil {
		t.Error("expected error for invalid state, got nil")
	}
}

func TestNotificationUpdateState_DBError(t *testing.T) {
	repo, mock := newNotificationRepo(t)
	mock.ExpectExec("UPDATE notifications SET state").
		WillReturnError(errors.New("connection reset"))

	if err := repo.UpdateState(context.Background(), "notif-1", "read"); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestCancelOlderThan_ReturnsAffectedCount(t *testing.T) {
	repo, mock := newNotificationRepo(t)
	mock.ExpectExec("UPDATE notifications.*SET state = 'cancelled'").
		WithArgs(90).
		WillReturnResult(sqlmock.NewResult(0, 5))

	affected, err := repo.CancelOlderThan(context.Background(), 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if affected != 5 {
		t.Errorf("affected = %d, want 5", affected)
	}
}

func TestCancelOlderThan_DBError(t *testing.T) {
	repo, mock := newNotificationRepo(t)
	mock.ExpectExec("UPDATE notifications.*SET state = 'cancelled'").
		WillReturnError(errors.New("deadlock detected"))

	if _, err := repo.CancelOlderThan(context.Background(), 90); err == nil {
		t.Error("expected error, got nil")
	}
}
