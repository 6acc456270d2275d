package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/publora/publora/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	DebitCredits(ctx context.Context, tx *sql.Tx, userID int64, amount int) (bool, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, email, credits, created_at, updated_at FROM users WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.Credits, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &user, nil
}

// DebitCredits subtracts amount from the user's balance. Returns false when
// the balance is insufficient; the conditional update keeps the check and
// the debit in one statement.
func (r *userRepository) DebitCredits(ctx context.Context, tx *sql.Tx, userID int64, amount int) (bool, error) {
	query := `
		UPDATE users
		SET credits = credits - $1, updated_at = $2
		WHERE id = $3 AND credits >= $1
	`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.ExecContext(ctx, query, amount, time.Now(), userID)
	} else {
		result, err = r.db.ExecContext(ctx, query, amount, time.Now(), userID)
	}
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
