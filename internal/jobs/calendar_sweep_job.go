package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/publora/publora/internal/repository"
)

// CalendarSweepJob marks active calendars as completed once their end date
// has passed. Runs on a cron cadence from main.
type CalendarSweepJob struct {
	cr repository.CalendarRepository
}

func NewCalendarSweepJob(cr repository.CalendarRepository) *CalendarSweepJob {
	return &CalendarSweepJob{
		cr: cr,
	}
}

func (j *CalendarSweepJob) SweepExpired() {
	ctx := context.Background()

	count, err := j.cr.CompleteExpired(ctx, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return
	}

	if count > 0 {
		slog.Info("completed expired calendars", "count", count)
	}
}
