package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/transfer"
)

// GroupByWeek buckets entries into Sunday-anchored calendar weeks. Weeks
// are anchored to the calendar grid, not to the content calendar's own
// start date. Pure function of its input; no I/O, no hidden state.
func GroupByWeek(entries []*models.CalendarEntry) []transfer.WeekBucket {
	buckets := make(map[time.Time][]*models.CalendarEntry)
	for _, entry := range entries {
		buckets[weekStart(entry.ScheduledDate)] = append(buckets[weekStart(entry.ScheduledDate)], entry)
	}

	starts := make([]time.Time, 0, len(buckets))
	for start := range buckets {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	result := make([]transfer.WeekBucket, 0, len(starts))
	for _, start := range starts {
		weekEntries := buckets[start]
		sort.SliceStable(weekEntries, func(i, j int) bool {
			if weekEntries[i].ScheduledDate.Equal(weekEntries[j].ScheduledDate) {
				return weekEntries[i].SortOrder < weekEntries[j].SortOrder
			}
			return weekEntries[i].ScheduledDate.Before(weekEntries[j].ScheduledDate)
		})

		end := start.AddDate(0, 0, 6)
		bucket := transfer.WeekBucket{
			WeekStart: start,
			WeekEnd:   end,
			Label:     fmt.Sprintf("Week of %s", start.Format("Jan 2, 2006")),
			DateRange: fmt.Sprintf("%s – %s", start.Format("Jan 2"), end.Format("Jan 2, 2006")),
			Entries:   weekEntries,
		}
		for _, entry := range weekEntries {
			switch entry.Status {
			case models.EntryStatusIdea:
				bucket.IdeaCount++
			case models.EntryStatusContentGenerated, models.EntryStatusPublished:
				bucket.ReadyCount++
			}
		}
		result = append(result, bucket)
	}

	return result
}

// weekStart truncates a date to midnight of its week's Sunday.
func weekStart(date time.Time) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}
