package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/publora/publora/internal/models"
)

func newCalendarRepo(t *testing.T) (CalendarRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewCalendarRepository(db), mock
}

func TestCalendarGetByID(t *testing.T) {
	repo, mock := newCalendarRepo(t)
	now := time.Now()
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, user_id, project_id, title, duration").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "project_id", "title", "duration", "start_date", "end_date", "status", "created_at", "updated_at",
		}).AddRow(3, 7, 1, "weekly content calendar", "weekly", start, start.AddDate(0, 0, 6), "active", now, now))

	cal, err := repo.GetByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cal.Duration != models.DurationWeekly || cal.Status != models.CalendarStatusActive {
		t.Fatalf("unexpected calendar: %+v", cal)
	}

	mock.ExpectQuery("SELECT id, user_id, project_id, title, duration").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	cal, err = repo.GetByID(context.Background(), 404)
	if err != nil || cal != nil {
		t.Fatalf("missing calendar should return nil, nil: %v, %v", cal, err)
	}
}

func TestCalendarCompleteExpired(t *testing.T) {
	repo, mock := newCalendarRepo(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE content_calendars`)).
		WithArgs(string(models.CalendarStatusCompleted), now, string(models.CalendarStatusActive), now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.CompleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("complete expired: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 completed calendars, got %d", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCalendarUpdateStatus(t *testing.T) {
	repo, mock := newCalendarRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE content_calendars`)).
		WithArgs(string(models.CalendarStatusArchived), sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), models.CalendarStatusArchived, 3); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
