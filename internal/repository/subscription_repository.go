package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/publora/publora/internal/models"
)

type SubscriptionRepository interface {
	GetActiveByUserID(ctx context.Context, userID int64) (*models.Subscription, error)
}

type subscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetActiveByUserID(ctx context.Context, userID int64) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, subscription_id, subscription_end_date, status, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1 AND status = $2 AND subscription_end_date > $3
	`
	row := r.db.QueryRowContext(ctx, query, userID, models.SubscriptionStatusActive, time.Now())

	var sub models.Subscription
	err := row.Scan(&sub.ID, &sub.UserID, &sub.SubscriptionID, &sub.SubscriptionEndDate, &sub.Status, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &sub, nil
}
