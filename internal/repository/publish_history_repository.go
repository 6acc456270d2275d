package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/publora/publora/internal/models"
)

type PublishHistoryRepository interface {
	Create(ctx context.Context, ph *models.PublishHistory) (int64, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.PublishHistory, error)
}

type publishHistoryRepository struct {
	db *sql.DB
}

func NewPublishHistoryRepository(db *sql.DB) PublishHistoryRepository {
	return &publishHistoryRepository{db: db}
}

func (r *publishHistoryRepository) Create(ctx context.Context, ph *models.PublishHistory) (int64, error) {
	query := `
		INSERT INTO publish_history (user_id, post_id, job_id, account_id, platform, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, ph.UserID, ph.PostID, ph.JobID, ph.AccountID, ph.Platform, ph.ErrorMessage).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *publishHistoryRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.PublishHistory, error) {
	query := `SELECT id, user_id, post_id, job_id, account_id, platform, error_message, created_at FROM publish_history WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var phs []*models.PublishHistory
	for rows.Next() {
		var ph models.PublishHistory
		err := rows.Scan(&ph.ID, &ph.UserID, &ph.PostID, &ph.JobID, &ph.AccountID, &ph.Platform, &ph.ErrorMessage, &ph.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		phs = append(phs, &ph)
	}
	return phs, nil
}
