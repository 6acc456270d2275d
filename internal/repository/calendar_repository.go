package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/publora/publora/internal/models"
)

type CalendarRepository interface {
	GetByID(ctx context.Context, id int64) (*models.ContentCalendar, error)
	Create(ctx context.Context, tx *sql.Tx, cal *models.ContentCalendar) (int64, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.ContentCalendar, error)
	CheckByUserID(ctx context.Context, calendarID, userID int64) (bool, error)
	UpdateStatus(ctx context.Context, status models.CalendarStatus, calendarID int64) error
	CompleteExpired(ctx context.Context, now time.Time) (int64, error)
	Remove(ctx context.Context, id int64) error
}

type calendarRepository struct {
	db *sql.DB
}

func NewCalendarRepository(db *sql.DB) CalendarRepository {
	return &calendarRepository{db: db}
}

func (r *calendarRepository) Create(ctx context.Context, tx *sql.Tx, cal *models.ContentCalendar) (int64, error) {
	query := `
		INSERT INTO content_calendars (user_id, project_id, title, duration, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, cal.UserID, cal.ProjectID, cal.Title, cal.Duration, cal.StartDate, cal.EndDate, cal.Status).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, cal.UserID, cal.ProjectID, cal.Title, cal.Duration, cal.StartDate, cal.EndDate, cal.Status).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *calendarRepository) GetByID(ctx context.Context, id int64) (*models.ContentCalendar, error) {
	query := `SELECT id, user_id, project_id, title, duration, start_date, end_date, status, created_at, updated_at FROM content_calendars WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var cal models.ContentCalendar
	err := row.Scan(&cal.ID, &cal.UserID, &cal.ProjectID, &cal.Title, &cal.Duration, &cal.StartDate, &cal.EndDate, &cal.Status, &cal.CreatedAt, &cal.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &cal, nil
}

func (r *calendarRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.ContentCalendar, error) {
	query := `SELECT id, user_id, project_id, title, duration, start_date, end_date, status, created_at, updated_at FROM content_calendars WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var cals []*models.ContentCalendar
	for rows.Next() {
		var cal models.ContentCalendar
		err := rows.Scan(&cal.ID, &cal.UserID, &cal.ProjectID, &cal.Title, &cal.Duration, &cal.StartDate, &cal.EndDate, &cal.Status, &cal.CreatedAt, &cal.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		cals = append(cals, &cal)
	}
	return cals, nil
}

func (r *calendarRepository) CheckByUserID(ctx context.Context, calendarID, userID int64) (bool, error) {
	query := "SELECT 1 FROM content_calendars WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, calendarID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *calendarRepository) UpdateStatus(ctx context.Context, status models.CalendarStatus, calendarID int64) error {
	query := `
		UPDATE content_calendars
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), calendarID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *calendarRepository) CompleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE content_calendars
		SET status = $1, updated_at = $2
		WHERE status = $3 AND end_date < $4
	`
	result, err := r.db.ExecContext(ctx, query, models.CalendarStatusCompleted, now, models.CalendarStatusActive, now)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *calendarRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM content_calendars WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)

	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
