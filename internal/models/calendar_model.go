package models

import "time"

type ContentCalendar struct {
	ID        int64            `db:"id" json:"id"`
	UserID    int64            `db:"user_id" json:"user_id"`
	ProjectID int64            `db:"project_id" json:"project_id"`
	Title     string           `db:"title" json:"title"`
	Duration  CalendarDuration `db:"duration" json:"duration"`
	StartDate time.Time        `db:"start_date" json:"start_date"`
	EndDate   time.Time        `db:"end_date" json:"end_date"`
	Status    CalendarStatus   `db:"status" json:"status"`
	Entries   []*CalendarEntry `db:"-" json:"entries,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

type CalendarDuration string

const (
	DurationWeekly  CalendarDuration = "weekly"
	DurationMonthly CalendarDuration = "monthly"
)

func (d CalendarDuration) Valid() bool {
	return d == DurationWeekly || d == DurationMonthly
}

func (d CalendarDuration) Days() int {
	if d == DurationMonthly {
		return 30
	}
	return 7
}

// CreditCost is charged once per generation, regardless of how many
// platforms the calendar targets.
func (d CalendarDuration) CreditCost() int {
	if d == DurationMonthly {
		return 10
	}
	return 5
}

// EndDate returns the inclusive last day of a calendar starting at start.
func (d CalendarDuration) EndDate(start time.Time) time.Time {
	return start.AddDate(0, 0, d.Days()-1)
}

type CalendarStatus string

const (
	CalendarStatusActive    CalendarStatus = "active"
	CalendarStatusCompleted CalendarStatus = "completed"
	CalendarStatusArchived  CalendarStatus = "archived"
)

// CalendarEntry is one dated content idea inside a calendar. An entry that
// went through a skip round-trip may sit in Idea with generated content
// still attached; that state is legal and the content is kept on purpose.
type CalendarEntry struct {
	ID                int64       `db:"id" json:"id"`
	CalendarID        int64       `db:"calendar_id" json:"calendar_id"`
	ScheduledDate     time.Time   `db:"scheduled_date" json:"scheduled_date"`
	TopicTitle        string      `db:"topic_title" json:"topic_title"`
	TopicDescription  string      `db:"topic_description" json:"topic_description"`
	TargetPlatform    string      `db:"target_platform" json:"target_platform"`
	SortOrder         int         `db:"sort_order" json:"sort_order"`
	Status            EntryStatus `db:"status" json:"status"`
	GeneratedContent  string      `db:"generated_content" json:"generated_content,omitempty"`
	SuggestedHashtags []string    `db:"suggested_hashtags" json:"suggested_hashtags,omitempty"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
}

type EntryStatus string

const (
	EntryStatusIdea             EntryStatus = "idea"
	EntryStatusContentGenerated EntryStatus = "content_generated"
	EntryStatusPublished        EntryStatus = "published"
	EntryStatusSkipped          EntryStatus = "skipped"
)

var entryTransitions = map[EntryStatus][]EntryStatus{
	EntryStatusIdea:             {EntryStatusContentGenerated, EntryStatusSkipped},
	EntryStatusContentGenerated: {EntryStatusPublished, EntryStatusSkipped},
	EntryStatusSkipped:          {EntryStatusIdea},
	EntryStatusPublished:        {},
}

func (s EntryStatus) Valid() bool {
	_, ok := entryTransitions[s]
	return ok
}

func (s EntryStatus) CanTransitionTo(next EntryStatus) bool {
	for _, allowed := range entryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
