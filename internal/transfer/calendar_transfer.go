package transfer

import (
	"time"

	"github.com/publora/publora/internal/models"
)

type CalendarGeneration struct {
	ProjectID       int64    `json:"project_id"`
	Duration        string   `json:"duration"`
	TargetPlatforms []string `json:"target_platforms"`
	Language        string   `json:"language"`
}

type GeneratedCalendar struct {
	Calendar    *models.ContentCalendar `json:"calendar"`
	CreditsUsed int                     `json:"credits_used"`
}

type EntryStatusUpdate struct {
	EntryID int64  `json:"entry_id"`
	Status  string `json:"status"`
}

// WeekBucket groups calendar entries into one Sunday-anchored calendar
// week for display. Counts are derived at bucketing time, never stored.
type WeekBucket struct {
	WeekStart  time.Time               `json:"week_start"`
	WeekEnd    time.Time               `json:"week_end"`
	Label      string                  `json:"label"`
	DateRange  string                  `json:"date_range"`
	Entries    []*models.CalendarEntry `json:"entries"`
	IdeaCount  int                     `json:"idea_count"`
	ReadyCount int                     `json:"ready_count"`
}
