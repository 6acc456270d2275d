package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/publora/publora/internal/models"
)

type CalendarEntryRepository interface {
	GetByID(ctx context.Context, id int64) (*models.CalendarEntry, error)
	Create(ctx context.Context, tx *sql.Tx, entry *models.CalendarEntry) (int64, error)
	ListByCalendarID(ctx context.Context, calendarID int64) ([]*models.CalendarEntry, error)
	CheckByUserID(ctx context.Context, entryID, userID int64) (bool, error)
	UpdateStatus(ctx context.Context, status models.EntryStatus, entryID int64) error
	SetGeneratedContent(ctx context.Context, entryID int64, content string, hashtags []string) error
}

type calendarEntryRepository struct {
	db *sql.DB
}

func NewCalendarEntryRepository(db *sql.DB) CalendarEntryRepository {
	return &calendarEntryRepository{db: db}
}

const entryColumns = `id, calendar_id, scheduled_date, topic_title, topic_description, target_platform, sort_order, status, generated_content, suggested_hashtags, created_at, updated_at`

func scanEntry(row interface{ Scan(...any) error }) (*models.CalendarEntry, error) {
	var entry models.CalendarEntry
	var content sql.NullString

	err := row.Scan(&entry.ID, &entry.CalendarID, &entry.ScheduledDate, &entry.TopicTitle, &entry.TopicDescription, &entry.TargetPlatform, &entry.SortOrder, &entry.Status, &content, pq.Array(&entry.SuggestedHashtags), &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}

	entry.GeneratedContent = content.String
	return &entry, nil
}

func (r *calendarEntryRepository) Create(ctx context.Context, tx *sql.Tx, entry *models.CalendarEntry) (int64, error) {
	query := `
		INSERT INTO calendar_entries (calendar_id, scheduled_date, topic_title, topic_description, target_platform, sort_order, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, entry.CalendarID, entry.ScheduledDate, entry.TopicTitle, entry.TopicDescription, entry.TargetPlatform, entry.SortOrder, entry.Status).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, entry.CalendarID, entry.ScheduledDate, entry.TopicTitle, entry.TopicDescription, entry.TargetPlatform, entry.SortOrder, entry.Status).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *calendarEntryRepository) GetByID(ctx context.Context, id int64) (*models.CalendarEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM calendar_entries WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	entry, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return entry, nil
}

func (r *calendarEntryRepository) ListByCalendarID(ctx context.Context, calendarID int64) ([]*models.CalendarEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM calendar_entries WHERE calendar_id = $1 ORDER BY scheduled_date, sort_order`

	rows, err := r.db.QueryContext(ctx, query, calendarID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var entries []*models.CalendarEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *calendarEntryRepository) CheckByUserID(ctx context.Context, entryID, userID int64) (bool, error) {
	query := `
		SELECT 1 FROM calendar_entries e
		JOIN content_calendars c ON c.id = e.calendar_id
		WHERE e.id = $1 AND c.user_id = $2
	`

	var result int
	err := r.db.QueryRowContext(ctx, query, entryID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *calendarEntryRepository) UpdateStatus(ctx context.Context, status models.EntryStatus, entryID int64) error {
	query := `
		UPDATE calendar_entries
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), entryID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *calendarEntryRepository) SetGeneratedContent(ctx context.Context, entryID int64, content string, hashtags []string) error {
	query := `
		UPDATE calendar_entries
		SET status = $1, generated_content = $2, suggested_hashtags = $3, updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, models.EntryStatusContentGenerated, content, pq.Array(hashtags), time.Now(), entryID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
