package models

import "time"

type PublishHistory struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	PostID       int64     `db:"post_id" json:"post_id"`
	JobID        int64     `db:"job_id" json:"job_id"`
	AccountID    int64     `db:"account_id" json:"account_id"`
	Platform     string    `db:"platform" json:"platform"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
