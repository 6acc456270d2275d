package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/publora/publora/internal/models"
)

type PostMediaRepository interface {
	Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) error
	ListURLsByPostID(ctx context.Context, postID int64) ([]string, error)
}

type postMediaRepository struct {
	db *sql.DB
}

func NewPostMediaRepository(db *sql.DB) PostMediaRepository {
	return &postMediaRepository{db: db}
}

func (r *postMediaRepository) Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) error {
	query := `
		INSERT INTO post_media (post_id, asset_id, display_order)
		VALUES ($1, $2, $3)
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, pm.PostID, pm.AssetID, pm.DisplayOrder)
	} else {
		_, err = r.db.ExecContext(ctx, query, pm.PostID, pm.AssetID, pm.DisplayOrder)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postMediaRepository) ListURLsByPostID(ctx context.Context, postID int64) ([]string, error) {
	query := `
		SELECT a.file_url
		FROM post_media pm
		JOIN media_assets a ON a.id = pm.asset_id
		WHERE pm.post_id = $1
		ORDER BY pm.display_order
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
