package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/publora/publora/internal/models"
)

type SocialAccountRepository interface {
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	ListDestinations(ctx context.Context, accountID int64) ([]*models.Destination, error)
	ResolveDestination(ctx context.Context, userID, accountID int64, destinationID string) (*models.ResolvedDestination, error)
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT id, user_id, platform, account_name, account_username, profile_picture_url, access_token, account_status, created_at, updated_at FROM social_accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var acc models.SocialAccount
	err := row.Scan(&acc.ID, &acc.UserID, &acc.Platform, &acc.AccountName, &acc.AccountUsername, &acc.ProfilePicture, &acc.AccessToken, &acc.AccountStatus, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &acc, nil
}

func (r *socialAccountRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	query := `SELECT id, user_id, platform, account_name, account_username, profile_picture_url, access_token, account_status, created_at, updated_at FROM social_accounts WHERE user_id = $1`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		var acc models.SocialAccount
		err := rows.Scan(&acc.ID, &acc.UserID, &acc.Platform, &acc.AccountName, &acc.AccountUsername, &acc.ProfilePicture, &acc.AccessToken, &acc.AccountStatus, &acc.CreatedAt, &acc.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &acc)
	}
	return accounts, nil
}

func (r *socialAccountRepository) ListDestinations(ctx context.Context, accountID int64) ([]*models.Destination, error) {
	query := `SELECT id, account_id, destination_id, destination_name, created_at FROM account_destinations WHERE account_id = $1`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var destinations []*models.Destination
	for rows.Next() {
		var d models.Destination
		err := rows.Scan(&d.ID, &d.AccountID, &d.DestinationID, &d.DestinationName, &d.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		destinations = append(destinations, &d)
	}
	return destinations, nil
}

func (r *socialAccountRepository) ResolveDestination(ctx context.Context, userID, accountID int64, destinationID string) (*models.ResolvedDestination, error) {
	query := `
		SELECT a.id, d.destination_id, d.destination_name, a.platform, a.access_token
		FROM account_destinations d
		JOIN social_accounts a ON a.id = d.account_id
		WHERE a.id = $1 AND a.user_id = $2 AND d.destination_id = $3 AND a.account_status = $4
	`
	row := r.db.QueryRowContext(ctx, query, accountID, userID, destinationID, models.AccountStatusConnected)

	var rd models.ResolvedDestination
	err := row.Scan(&rd.AccountID, &rd.DestinationID, &rd.DestinationName, &rd.Platform, &rd.AccessToken)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &rd, nil
}
