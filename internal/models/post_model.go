package models

import "time"

type Post struct {
	ID            int64      `db:"id" json:"id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	ProjectID     int64      `db:"project_id" json:"project_id"`
	ContentItemID int64      `db:"content_item_id" json:"content_item_id,omitempty"`
	Text          string     `db:"body" json:"text"`
	Hashtags      []string   `db:"hashtags" json:"hashtags"`
	ScheduledTime *time.Time `db:"scheduled_time" json:"scheduled_time,omitempty"`
	Jobs          []*PostJob `db:"-" json:"jobs,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

type PostJob struct {
	ID              int64      `db:"id" json:"id"`
	PostID          int64      `db:"post_id" json:"post_id"`
	AccountID       int64      `db:"account_id" json:"account_id"`
	DestinationID   string     `db:"destination_id" json:"destination_id"`
	Platform        string     `db:"platform" json:"platform"`
	DestinationName string     `db:"destination_name" json:"destination_name"`
	Status          JobStatus  `db:"status" json:"status"`
	PublishedAt     *time.Time `db:"published_at" json:"published_at,omitempty"`
	PlatformPostID  string     `db:"platform_post_id" json:"platform_post_id,omitempty"`
	PlatformURL     string     `db:"platform_url" json:"platform_url,omitempty"`
	ErrorMessage    string     `db:"error_message" json:"error_message,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

type JobStatus string

const (
	JobStatusDraft      JobStatus = "draft"
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusPublishing JobStatus = "publishing"
	JobStatusPublished  JobStatus = "published"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// jobTransitions is the closed transition table for a publish job.
// Scheduled behaves like Draft on submission.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusDraft:      {JobStatusPublishing, JobStatusCancelled},
	JobStatusScheduled:  {JobStatusPublishing, JobStatusCancelled},
	JobStatusPublishing: {JobStatusPublished, JobStatusFailed},
	JobStatusFailed:     {JobStatusPublishing},
	JobStatusPublished:  {},
	JobStatusCancelled:  {},
}

func (s JobStatus) Valid() bool {
	_, ok := jobTransitions[s]
	return ok
}

func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range jobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the job can never change again on its own.
// Failed is a settled outcome but stays retryable.
func (s JobStatus) Terminal() bool {
	return s == JobStatusPublished || s == JobStatusCancelled
}

func (s JobStatus) Settled() bool {
	return s == JobStatusPublished || s == JobStatusFailed || s == JobStatusCancelled
}

type MediaAsset struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileURL   string    `db:"file_url" json:"file_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type PostMedia struct {
	PostID       int64     `db:"post_id" json:"post_id"`
	AssetID      int64     `db:"asset_id" json:"asset_id"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
