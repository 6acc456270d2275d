package models

import "time"

type SocialAccount struct {
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	Platform        string    `db:"platform" json:"platform"`
	AccountName     string    `db:"account_name" json:"account_name"`
	AccountUsername string    `db:"account_username" json:"account_username"`
	ProfilePicture  string    `db:"profile_picture_url" json:"profile_picture"`
	AccessToken     string    `db:"access_token" json:"-"`
	AccountStatus   string    `db:"account_status" json:"account_status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

const AccountStatusConnected = "connected"

// Destination is one publish target exposed by a connected account, e.g. a
// page or profile. One account may expose several.
type Destination struct {
	ID              int64     `db:"id" json:"id"`
	AccountID       int64     `db:"account_id" json:"account_id"`
	DestinationID   string    `db:"destination_id" json:"destination_id"`
	DestinationName string    `db:"destination_name" json:"destination_name"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ResolvedDestination joins a destination with its account for dispatch.
type ResolvedDestination struct {
	AccountID       int64
	DestinationID   string
	DestinationName string
	Platform        string
	AccessToken     string
}
