package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/publora/publora/internal/apperr"
	"github.com/publora/publora/internal/content"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/repository"
	"github.com/publora/publora/internal/transfer"
)

// CalendarService orchestrates content calendars: generation is delegated
// to the content service, but the invariants (dates inside the window,
// entries pre-sorted, all-or-nothing persistence) are owned here.
type CalendarService interface {
	Generate(ctx context.Context, userID int64, req *transfer.CalendarGeneration) (*transfer.GeneratedCalendar, error)
	GenerateEntryContent(ctx context.Context, userID, entryID int64) (*models.CalendarEntry, error)
	SetEntryStatus(ctx context.Context, userID, entryID int64, status models.EntryStatus) (*models.CalendarEntry, error)
	CalendarInfo(ctx context.Context, calendarID, userID int64) (*models.ContentCalendar, error)
	List(ctx context.Context, userID int64) ([]*models.ContentCalendar, error)
	Weeks(ctx context.Context, calendarID, userID int64) ([]transfer.WeekBucket, error)
	Remove(ctx context.Context, userID, calendarID int64) error
}

type calendarService struct {
	db *sql.DB
	cr repository.CalendarRepository
	ce repository.CalendarEntryRepository
	sr repository.SubscriptionRepository
	ur repository.UserRepository
	cc content.Client
}

func NewCalendarService(
	db *sql.DB,
	cr repository.CalendarRepository,
	ce repository.CalendarEntryRepository,
	sr repository.SubscriptionRepository,
	ur repository.UserRepository,
	cc content.Client) CalendarService {
	return &calendarService{
		db: db,
		cr: cr,
		ce: ce,
		sr: sr,
		ur: ur,
		cc: cc,
	}
}

func (s *calendarService) Generate(ctx context.Context, userID int64, req *transfer.CalendarGeneration) (*transfer.GeneratedCalendar, error) {
	if req == nil || len(req.TargetPlatforms) == 0 {
		return nil, apperr.Validation("at least one target platform is required")
	}

	duration := models.CalendarDuration(req.Duration)
	if !duration.Valid() {
		return nil, apperr.Validation("duration must be weekly or monthly")
	}

	sub, err := s.sr.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("checking subscription: %v", err)
	}
	if sub == nil {
		return nil, apperr.Generation("no active subscription")
	}

	plan, err := s.cc.PlanCalendar(ctx, &transfer.CalendarPlanRequest{
		ProjectID: req.ProjectID,
		Duration:  req.Duration,
		Platforms: req.TargetPlatforms,
		Language:  req.Language,
	})
	if err != nil {
		return nil, err
	}
	if len(plan.Entries) == 0 {
		return nil, apperr.Generation("content service returned no entries")
	}

	startDate := time.Now().UTC().Truncate(24 * time.Hour)
	endDate := duration.EndDate(startDate)

	entries := make([]*models.CalendarEntry, 0, len(plan.Entries))
	for _, planned := range plan.Entries {
		scheduledDate, perr := time.Parse("2006-01-02", planned.ScheduledDate)
		if perr != nil {
			return nil, apperr.Generation("content service returned invalid date %q", planned.ScheduledDate)
		}
		if scheduledDate.Before(startDate) || scheduledDate.After(endDate) {
			return nil, apperr.Generation("entry date %s falls outside the calendar window", planned.ScheduledDate)
		}
		entries = append(entries, &models.CalendarEntry{
			ScheduledDate:    scheduledDate,
			TopicTitle:       planned.TopicTitle,
			TopicDescription: planned.TopicDescription,
			TargetPlatform:   planned.TargetPlatform,
			Status:           models.EntryStatusIdea,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ScheduledDate.Before(entries[j].ScheduledDate)
	})
	for i, entry := range entries {
		entry.SortOrder = i
	}

	cost := duration.CreditCost()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, apperr.UpstreamUnavailable("failed to start transaction: %v", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	debited, err := s.ur.DebitCredits(ctx, tx, userID, cost)
	if err != nil {
		err = apperr.UpstreamUnavailable("debiting credits: %v", err)
		return nil, err
	}
	if !debited {
		err = apperr.Generation("usage allowance exhausted")
		return nil, err
	}

	calendar := &models.ContentCalendar{
		UserID:    userID,
		ProjectID: req.ProjectID,
		Title:     req.Duration + " content calendar",
		Duration:  duration,
		StartDate: startDate,
		EndDate:   endDate,
		Status:    models.CalendarStatusActive,
	}

	calendarID, err := s.cr.Create(ctx, tx, calendar)
	if err != nil {
		err = apperr.UpstreamUnavailable("error creating calendar: %v", err)
		return nil, err
	}
	calendar.ID = calendarID

	for _, entry := range entries {
		entry.CalendarID = calendarID
		entryID, eerr := s.ce.Create(ctx, tx, entry)
		if eerr != nil {
			err = apperr.UpstreamUnavailable("error creating entry: %v", eerr)
			return nil, err
		}
		entry.ID = entryID
	}

	if err = tx.Commit(); err != nil {
		err = apperr.UpstreamUnavailable("failed to commit transaction: %v", err)
		return nil, err
	}

	calendar.Entries = entries
	return &transfer.GeneratedCalendar{Calendar: calendar, CreditsUsed: cost}, nil
}

func (s *calendarService) GenerateEntryContent(ctx context.Context, userID, entryID int64) (*models.CalendarEntry, error) {
	entry, err := s.ownedEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	if entry.Status != models.EntryStatusIdea {
		return nil, apperr.InvalidState("entry %d is %s, content can only be generated for ideas", entryID, entry.Status)
	}

	generated, err := s.cc.GenerateForEntry(ctx, &transfer.EntryContentRequest{
		TopicTitle:       entry.TopicTitle,
		TopicDescription: entry.TopicDescription,
		TargetPlatform:   entry.TargetPlatform,
	})
	if err != nil {
		return nil, err
	}

	if err := s.ce.SetGeneratedContent(ctx, entryID, generated.GeneratedContent, generated.SuggestedHashtags); err != nil {
		return nil, apperr.UpstreamUnavailable("error saving generated content: %v", err)
	}

	entry.Status = models.EntryStatusContentGenerated
	entry.GeneratedContent = generated.GeneratedContent
	entry.SuggestedHashtags = generated.SuggestedHashtags
	return entry, nil
}

func (s *calendarService) SetEntryStatus(ctx context.Context, userID, entryID int64, status models.EntryStatus) (*models.CalendarEntry, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown entry status %q", status)
	}

	entry, err := s.ownedEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	target := status
	if status == models.EntryStatusSkipped && entry.Status == models.EntryStatusSkipped {
		// Skipping an already-skipped entry un-skips it. The entry always
		// lands back on Idea; generated content stays attached.
		target = models.EntryStatusIdea
	} else if !entry.Status.CanTransitionTo(status) {
		return nil, apperr.InvalidState("entry %d cannot move from %s to %s", entryID, entry.Status, status)
	}

	if err := s.ce.UpdateStatus(ctx, target, entryID); err != nil {
		return nil, apperr.UpstreamUnavailable("error updating entry status: %v", err)
	}

	entry.Status = target
	return entry, nil
}

func (s *calendarService) ownedEntry(ctx context.Context, userID, entryID int64) (*models.CalendarEntry, error) {
	isValid, err := s.ce.CheckByUserID(ctx, entryID, userID)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("checking entry: %v", err)
	}
	if !isValid {
		return nil, apperr.NotFound("entry %d does not exist", entryID)
	}

	entry, err := s.ce.GetByID(ctx, entryID)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("fetching entry: %v", err)
	}
	if entry == nil {
		return nil, apperr.NotFound("entry %d does not exist", entryID)
	}
	return entry, nil
}

func (s *calendarService) CalendarInfo(ctx context.Context, calendarID, userID int64) (*models.ContentCalendar, error) {
	isValid, err := s.cr.CheckByUserID(ctx, calendarID, userID)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("checking calendar: %v", err)
	}
	if !isValid {
		return nil, apperr.NotFound("calendar %d does not exist", calendarID)
	}

	calendar, err := s.cr.GetByID(ctx, calendarID)
	if err != nil || calendar == nil {
		return nil, apperr.UpstreamUnavailable("error getting calendar: %v", err)
	}

	entries, err := s.ce.ListByCalendarID(ctx, calendarID)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("error getting entries: %v", err)
	}
	calendar.Entries = entries

	return calendar, nil
}

func (s *calendarService) List(ctx context.Context, userID int64) ([]*models.ContentCalendar, error) {
	calendars, err := s.cr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("error listing calendars: %v", err)
	}
	return calendars, nil
}

func (s *calendarService) Weeks(ctx context.Context, calendarID, userID int64) ([]transfer.WeekBucket, error) {
	calendar, err := s.CalendarInfo(ctx, calendarID, userID)
	if err != nil {
		return nil, err
	}
	return GroupByWeek(calendar.Entries), nil
}

func (s *calendarService) Remove(ctx context.Context, userID, calendarID int64) error {
	isValid, err := s.cr.CheckByUserID(ctx, calendarID, userID)
	if err != nil {
		return apperr.UpstreamUnavailable("checking calendar: %v", err)
	}
	if !isValid {
		return apperr.NotFound("calendar %d does not exist", calendarID)
	}

	if err := s.cr.Remove(ctx, calendarID); err != nil {
		return apperr.UpstreamUnavailable("error removing calendar: %v", err)
	}

	return nil
}
