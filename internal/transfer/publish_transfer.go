package transfer

import (
	"time"

	"github.com/publora/publora/internal/models"
)

// DestinationRef identifies one requested publish target.
type DestinationRef struct {
	AccountID     int64  `json:"account_id"`
	DestinationID string `json:"destination_id"`
}

type PublishRequest struct {
	ProjectID     int64            `json:"project_id"`
	Text          string           `json:"text"`
	Hashtags      []string         `json:"hashtags"`
	ContentItemID int64            `json:"content_item_id"`
	Destinations  []DestinationRef `json:"destinations"`
	ScheduledTime string           `json:"scheduled_time"`
}

// PublishResult is the snapshot returned by a dispatch call once every job
// has settled. Jobs still publishing or cancelled count in neither bucket.
type PublishResult struct {
	PostID     int64             `json:"post_id"`
	Jobs       []*models.PostJob `json:"jobs"`
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
}

type PostMetrics struct {
	JobID       int64     `json:"job_id"`
	Likes       int       `json:"likes"`
	Comments    int       `json:"comments"`
	Shares      int       `json:"shares"`
	Views       int       `json:"views"`
	Status      string    `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
}
