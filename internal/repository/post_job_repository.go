package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/publora/publora/internal/models"
)

type PostJobRepository interface {
	GetByID(ctx context.Context, id int64) (*models.PostJob, error)
	Create(ctx context.Context, tx *sql.Tx, job *models.PostJob) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostJob, error)
	CheckByUserID(ctx context.Context, jobID, userID int64) (bool, error)
	MarkPublishing(ctx context.Context, id int64) error
	MarkPublished(ctx context.Context, id int64, platformPostID, platformURL string, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
	HasPublishing(ctx context.Context, postID int64) (bool, error)
}

type postJobRepository struct {
	db *sql.DB
}

func NewPostJobRepository(db *sql.DB) PostJobRepository {
	return &postJobRepository{db: db}
}

const jobColumns = `id, post_id, account_id, destination_id, platform, destination_name, status, published_at, platform_post_id, platform_url, error_message, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (*models.PostJob, error) {
	var job models.PostJob
	var publishedAt sql.NullTime
	var platformPostID, platformURL, errorMessage sql.NullString

	err := row.Scan(&job.ID, &job.PostID, &job.AccountID, &job.DestinationID, &job.Platform, &job.DestinationName, &job.Status, &publishedAt, &platformPostID, &platformURL, &errorMessage, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		job.PublishedAt = &publishedAt.Time
	}
	job.PlatformPostID = platformPostID.String
	job.PlatformURL = platformURL.String
	job.ErrorMessage = errorMessage.String
	return &job, nil
}

func (r *postJobRepository) Create(ctx context.Context, tx *sql.Tx, job *models.PostJob) (int64, error) {
	query := `
		INSERT INTO post_jobs (post_id, account_id, destination_id, platform, destination_name, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, job.PostID, job.AccountID, job.DestinationID, job.Platform, job.DestinationName, job.Status).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, job.PostID, job.AccountID, job.DestinationID, job.Platform, job.DestinationName, job.Status).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postJobRepository) GetByID(ctx context.Context, id int64) (*models.PostJob, error) {
	query := `SELECT ` + jobColumns + ` FROM post_jobs WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	job, err := scanJob(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return job, nil
}

func (r *postJobRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostJob, error) {
	query := `SELECT ` + jobColumns + ` FROM post_jobs WHERE post_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.PostJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (r *postJobRepository) CheckByUserID(ctx context.Context, jobID, userID int64) (bool, error) {
	query := `
		SELECT 1 FROM post_jobs j
		JOIN posts p ON p.id = j.post_id
		WHERE j.id = $1 AND p.user_id = $2
	`

	var result int
	err := r.db.QueryRowContext(ctx, query, jobID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postJobRepository) MarkPublishing(ctx context.Context, id int64) error {
	query := `
		UPDATE post_jobs
		SET status = $1, error_message = NULL, updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.JobStatusPublishing, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postJobRepository) MarkPublished(ctx context.Context, id int64, platformPostID, platformURL string, publishedAt time.Time) error {
	query := `
		UPDATE post_jobs
		SET status = $1, platform_post_id = $2, platform_url = $3, published_at = $4, error_message = NULL, updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query, models.JobStatusPublished, platformPostID, platformURL, publishedAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postJobRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE post_jobs
		SET status = $1, error_message = $2, platform_post_id = NULL, platform_url = NULL, updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.JobStatusFailed, errorMessage, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postJobRepository) HasPublishing(ctx context.Context, postID int64) (bool, error) {
	query := "SELECT 1 FROM post_jobs WHERE post_id = $1 AND status = $2 LIMIT 1"

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, models.JobStatusPublishing).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}
