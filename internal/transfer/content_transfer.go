package transfer

type CalendarPlanRequest struct {
	ProjectID int64    `json:"project_id"`
	Duration  string   `json:"duration"`
	Platforms []string `json:"platforms"`
	Language  string   `json:"language"`
}

type PlannedEntry struct {
	ScheduledDate    string `json:"scheduled_date"`
	TopicTitle       string `json:"topic_title"`
	TopicDescription string `json:"topic_description"`
	TargetPlatform   string `json:"target_platform"`
}

type CalendarPlan struct {
	Entries     []PlannedEntry `json:"entries"`
	CreditsUsed int            `json:"credits_used"`
}

type EntryContentRequest struct {
	TopicTitle       string `json:"topic_title"`
	TopicDescription string `json:"topic_description"`
	TargetPlatform   string `json:"target_platform"`
}

type EntryContent struct {
	GeneratedContent  string   `json:"generated_content"`
	SuggestedHashtags []string `json:"suggested_hashtags"`
}

type ContentErrorResponse struct {
	Error string `json:"error"`
}
