package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"sync"
	"time"

	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/apperr"
	"github.com/publora/publora/internal/gateway"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/repository"
	"github.com/publora/publora/internal/transfer"
	"github.com/publora/publora/pkg/utils"
)

const publishConcurrency = 10

// PublishService fans one authored post out to every requested destination.
// A dispatch call settles every job before it returns; per-destination
// failures become Failed jobs, never an error for the whole call.
type PublishService interface {
	Dispatch(ctx context.Context, userID int64, req *transfer.PublishRequest, files []*multipart.FileHeader) (*transfer.PublishResult, error)
	Schedule(ctx context.Context, userID int64, req *transfer.PublishRequest, files []*multipart.FileHeader) (int64, time.Duration, error)
	PublishScheduled(ctx context.Context, postID int64) (*transfer.PublishResult, error)
	Retry(ctx context.Context, userID, jobID int64) (*models.PostJob, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
}

type publishService struct {
	cfg   config.Config
	db    *sql.DB
	pr    repository.PostRepository
	jr    repository.PostJobRepository
	ph    repository.PublishHistoryRepository
	sa    repository.SocialAccountRepository
	pm    repository.PostMediaRepository
	ce    repository.CalendarEntryRepository
	media MediaService
	gw    gateway.Client
}

func NewPublishService(
	cfg config.Config,
	db *sql.DB,
	pr repository.PostRepository,
	jr repository.PostJobRepository,
	ph repository.PublishHistoryRepository,
	sa repository.SocialAccountRepository,
	pm repository.PostMediaRepository,
	ce repository.CalendarEntryRepository,
	media MediaService,
	gw gateway.Client) PublishService {
	return &publishService{
		cfg:   cfg,
		db:    db,
		pr:    pr,
		jr:    jr,
		ph:    ph,
		sa:    sa,
		pm:    pm,
		ce:    ce,
		media: media,
		gw:    gw,
	}
}

func (s *publishService) Dispatch(ctx context.Context, userID int64, req *transfer.PublishRequest, files []*multipart.FileHeader) (*transfer.PublishResult, error) {
	post, jobs, err := s.createPost(ctx, userID, req, files, models.JobStatusDraft)
	if err != nil {
		return nil, err
	}

	return s.fanOut(ctx, post, jobs), nil
}

func (s *publishService) Schedule(ctx context.Context, userID int64, req *transfer.PublishRequest, files []*multipart.FileHeader) (int64, time.Duration, error) {
	post, _, err := s.createPost(ctx, userID, req, files, models.JobStatusScheduled)
	if err != nil {
		return 0, 0, err
	}

	delay := time.Until(*post.ScheduledTime)
	if delay < 0 {
		delay = 0
	}

	return post.ID, delay, nil
}

// PublishScheduled runs the deferred fan-out for a post created by Schedule.
// Called from the queue worker at due time.
func (s *publishService) PublishScheduled(ctx context.Context, postID int64) (*transfer.PublishResult, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("fetching post: %v", err)
	}
	if post == nil {
		return nil, apperr.NotFound("post %d does not exist", postID)
	}

	jobs, err := s.jr.ListByPostID(ctx, postID)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("fetching jobs: %v", err)
	}

	// Only submit jobs still waiting; a requeued task must not resubmit
	// jobs that already settled.
	var pending []*models.PostJob
	for _, job := range jobs {
		if job.Status == models.JobStatusScheduled || job.Status == models.JobStatusDraft {
			pending = append(pending, job)
		}
	}
	if len(pending) == 0 {
		return s.snapshot(post.ID, jobs), nil
	}

	return s.fanOut(ctx, post, pending), nil
}

func (s *publishService) Retry(ctx context.Context, userID, jobID int64) (*models.PostJob, error) {
	isValid, err := s.jr.CheckByUserID(ctx, jobID, userID)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("checking job: %v", err)
	}
	if !isValid {
		return nil, apperr.NotFound("job %d does not exist", jobID)
	}

	job, err := s.jr.GetByID(ctx, jobID)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("fetching job: %v", err)
	}
	if job == nil {
		return nil, apperr.NotFound("job %d does not exist", jobID)
	}

	if job.Status != models.JobStatusFailed {
		return nil, apperr.InvalidState("job %d is %s, only failed jobs can be retried", jobID, job.Status)
	}

	post, err := s.pr.GetByID(ctx, job.PostID)
	if err != nil || post == nil {
		return nil, apperr.UpstreamUnavailable("fetching post for job %d: %v", jobID, err)
	}

	mediaURLs := s.mediaURLs(ctx, post.ID)
	s.submitJob(ctx, post, job, mediaURLs)

	return job, nil
}

// createPost validates the request, de-duplicates destinations and writes
// the post with all its jobs as one transaction.
func (s *publishService) createPost(ctx context.Context, userID int64, req *transfer.PublishRequest, files []*multipart.FileHeader, status models.JobStatus) (*models.Post, []*models.PostJob, error) {
	if req == nil || strings.TrimSpace(req.Text) == "" {
		return nil, nil, apperr.Validation("post text cannot be empty")
	}
	if len(req.Destinations) == 0 {
		return nil, nil, apperr.Validation("no destinations selected")
	}

	// De-duplicate by (account, destination); first occurrence wins.
	seen := make(map[string]struct{}, len(req.Destinations))
	var resolved []*models.ResolvedDestination
	for _, ref := range req.Destinations {
		key := fmt.Sprintf("%d:%s", ref.AccountID, ref.DestinationID)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		rd, err := s.sa.ResolveDestination(ctx, userID, ref.AccountID, ref.DestinationID)
		if err != nil {
			return nil, nil, apperr.UpstreamUnavailable("resolving destination: %v", err)
		}
		if rd == nil {
			return nil, nil, apperr.Validation("destination %s on account %d is not connected", ref.DestinationID, ref.AccountID)
		}
		resolved = append(resolved, rd)
	}

	var scheduledTime *time.Time
	if status == models.JobStatusScheduled {
		t, err := time.Parse("2006-01-02T15:04", req.ScheduledTime)
		if err != nil {
			return nil, nil, apperr.Validation("invalid scheduled time format: %v", err)
		}
		scheduledTime = &t
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, nil, apperr.UpstreamUnavailable("failed to start transaction: %v", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := &models.Post{
		UserID:        userID,
		ProjectID:     req.ProjectID,
		ContentItemID: req.ContentItemID,
		Text:          strings.TrimSpace(req.Text),
		Hashtags:      req.Hashtags,
		ScheduledTime: scheduledTime,
	}

	postID, err := s.pr.Create(ctx, tx, post)
	if err != nil {
		err = apperr.UpstreamUnavailable("error creating post: %v", err)
		return nil, nil, err
	}
	post.ID = postID

	var jobs []*models.PostJob
	for _, rd := range resolved {
		job := &models.PostJob{
			PostID:          postID,
			AccountID:       rd.AccountID,
			DestinationID:   rd.DestinationID,
			Platform:        rd.Platform,
			DestinationName: rd.DestinationName,
			Status:          status,
		}
		jobID, jerr := s.jr.Create(ctx, tx, job)
		if jerr != nil {
			err = apperr.UpstreamUnavailable("error creating job: %v", jerr)
			return nil, nil, err
		}
		job.ID = jobID
		jobs = append(jobs, job)
	}

	if len(files) > 0 {
		if merr := s.media.SaveFiles(ctx, tx, userID, postID, files); merr != nil {
			err = apperr.Validation("error processing files: %v", merr)
			return nil, nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		err = apperr.UpstreamUnavailable("failed to commit transaction: %v", err)
		return nil, nil, err
	}

	post.Jobs = jobs
	return post, jobs, nil
}

// fanOut submits every job concurrently and blocks until all have settled.
func (s *publishService) fanOut(ctx context.Context, post *models.Post, jobs []*models.PostJob) *transfer.PublishResult {
	mediaURLs := s.mediaURLs(ctx, post.ID)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, publishConcurrency)

	for _, job := range jobs {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(job *models.PostJob) {
			defer wg.Done()
			defer func() { <-semaphore }()

			s.submitJob(ctx, post, job, mediaURLs)
		}(job)
	}

	wg.Wait()

	if post.ContentItemID != 0 {
		s.markEntryPublished(ctx, post.ContentItemID, jobs)
	}

	return s.snapshot(post.ID, jobs)
}

// submitJob runs one job through publishing to a settled outcome and
// records a publish history row for the attempt.
func (s *publishService) submitJob(ctx context.Context, post *models.Post, job *models.PostJob, mediaURLs []string) {
	if err := s.jr.MarkPublishing(ctx, job.ID); err != nil {
		s.settleFailed(ctx, post, job, fmt.Sprintf("error updating job status: %v", err))
		return
	}
	job.Status = models.JobStatusPublishing
	job.ErrorMessage = ""

	token, err := s.accountToken(ctx, job.AccountID)
	if err != nil {
		s.settleFailed(ctx, post, job, err.Error())
		return
	}

	result, err := s.gw.Submit(ctx, &transfer.GatewaySubmission{
		AccountToken:  token,
		DestinationID: job.DestinationID,
		Platform:      job.Platform,
		Text:          post.Text,
		Hashtags:      post.Hashtags,
		MediaURLs:     mediaURLs,
	})
	if err != nil {
		slog.Info("publish failed", "job_id", job.ID, "platform", job.Platform, "error", err)
		s.settleFailed(ctx, post, job, err.Error())
		return
	}

	publishedAt := time.Now()
	if err := s.jr.MarkPublished(ctx, job.ID, result.PlatformPostID, result.PlatformURL, publishedAt); err != nil {
		slog.Info(err.Error())
	}
	job.Status = models.JobStatusPublished
	job.PlatformPostID = result.PlatformPostID
	job.PlatformURL = result.PlatformURL
	job.PublishedAt = &publishedAt
	job.ErrorMessage = ""

	s.recordHistory(ctx, post, job, "")
}

func (s *publishService) settleFailed(ctx context.Context, post *models.Post, job *models.PostJob, errorMessage string) {
	if err := s.jr.MarkFailed(ctx, job.ID, errorMessage); err != nil {
		slog.Info(err.Error())
	}
	job.Status = models.JobStatusFailed
	job.ErrorMessage = errorMessage
	job.PlatformPostID = ""
	job.PlatformURL = ""

	s.recordHistory(ctx, post, job, errorMessage)
}

func (s *publishService) recordHistory(ctx context.Context, post *models.Post, job *models.PostJob, errorMessage string) {
	history := models.PublishHistory{
		UserID:       post.UserID,
		PostID:       post.ID,
		JobID:        job.ID,
		AccountID:    job.AccountID,
		Platform:     job.Platform,
		ErrorMessage: errorMessage,
	}
	if _, err := s.ph.Create(ctx, &history); err != nil {
		slog.Info("error saving publish history", "post_id", post.ID, "error", err)
	}
}

func (s *publishService) accountToken(ctx context.Context, accountID int64) (string, error) {
	acc, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("error fetching account %d: %w", accountID, err)
	}
	if acc == nil {
		return "", fmt.Errorf("account %d does not exist", accountID)
	}

	token, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("error decrypting token for account %d: %w", accountID, err)
	}
	return token, nil
}

func (s *publishService) mediaURLs(ctx context.Context, postID int64) []string {
	urls, err := s.pm.ListURLsByPostID(ctx, postID)
	if err != nil {
		slog.Info("error listing post media", "post_id", postID, "error", err)
		return nil
	}
	return urls
}

// markEntryPublished moves the originating calendar entry to Published once
// at least one destination succeeded. Best effort; the publish outcome is
// already settled.
func (s *publishService) markEntryPublished(ctx context.Context, entryID int64, jobs []*models.PostJob) {
	succeeded := false
	for _, job := range jobs {
		if job.Status == models.JobStatusPublished {
			succeeded = true
			break
		}
	}
	if !succeeded {
		return
	}

	entry, err := s.ce.GetByID(ctx, entryID)
	if err != nil || entry == nil {
		return
	}
	if !entry.Status.CanTransitionTo(models.EntryStatusPublished) {
		return
	}
	if err := s.ce.UpdateStatus(ctx, models.EntryStatusPublished, entryID); err != nil {
		slog.Info(err.Error())
	}
}

func (s *publishService) snapshot(postID int64, jobs []*models.PostJob) *transfer.PublishResult {
	result := &transfer.PublishResult{
		PostID: postID,
		Jobs:   jobs,
	}
	for _, job := range jobs {
		switch job.Status {
		case models.JobStatusPublished:
			result.Successful++
		case models.JobStatusFailed:
			result.Failed++
		}
	}
	return result
}

func (s *publishService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("checking post: %v", err)
	}
	if !isValid {
		return nil, apperr.NotFound("post %d does not exist", postID)
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil || post == nil {
		return nil, apperr.UpstreamUnavailable("error getting post info: %v", err)
	}

	jobs, err := s.jr.ListByPostID(ctx, postID)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("error getting post jobs: %v", err)
	}
	post.Jobs = jobs

	return post, nil
}

func (s *publishService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("error listing posts: %v", err)
	}
	return posts, nil
}

func (s *publishService) Remove(ctx context.Context, userID, postID int64) error {
	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return apperr.UpstreamUnavailable("checking post: %v", err)
	}
	if !isValid {
		return apperr.NotFound("post %d does not exist", postID)
	}

	inFlight, err := s.jr.HasPublishing(ctx, postID)
	if err != nil {
		return apperr.UpstreamUnavailable("checking jobs: %v", err)
	}
	if inFlight {
		return apperr.InvalidState("post %d has jobs still publishing", postID)
	}

	if err := s.pr.Remove(ctx, postID); err != nil {
		return apperr.UpstreamUnavailable("error removing post: %v", err)
	}

	return nil
}
