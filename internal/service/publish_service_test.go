package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/apperr"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/transfer"
	"github.com/publora/publora/pkg/utils"
)

const testSecretKey = "0123456789abcdef0123456789abcdef"

// ---- fakes ----

type fakePostRepo struct {
	mu     sync.Mutex
	posts  map[int64]*models.Post
	nextID int64
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[int64]*models.Post)}
}

func (r *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := *post
	stored.ID = r.nextID
	r.posts[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *post
	return &copied, nil
}

func (r *fakePostRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []*models.Post
	for _, post := range r.posts {
		if post.UserID == userID {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (r *fakePostRepo) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	return ok && post.UserID == userID, nil
}

func (r *fakePostRepo) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

type fakeJobRepo struct {
	mu     sync.Mutex
	jobs   map[int64]*models.PostJob
	owners map[int64]int64 // postID -> userID
	nextID int64
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[int64]*models.PostJob), owners: make(map[int64]int64)}
}

func (r *fakeJobRepo) Create(ctx context.Context, tx *sql.Tx, job *models.PostJob) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := *job
	stored.ID = r.nextID
	r.jobs[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeJobRepo) GetByID(ctx context.Context, id int64) (*models.PostJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (r *fakeJobRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var jobs []*models.PostJob
	for id := int64(1); id <= r.nextID; id++ {
		if job, ok := r.jobs[id]; ok && job.PostID == postID {
			copied := *job
			jobs = append(jobs, &copied)
		}
	}
	return jobs, nil
}

func (r *fakeJobRepo) CheckByUserID(ctx context.Context, jobID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return false, nil
	}
	return r.owners[job.PostID] == userID, nil
}

func (r *fakeJobRepo) MarkPublishing(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[id]
	job.Status = models.JobStatusPublishing
	job.ErrorMessage = ""
	return nil
}

func (r *fakeJobRepo) MarkPublished(ctx context.Context, id int64, platformPostID, platformURL string, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[id]
	job.Status = models.JobStatusPublished
	job.PlatformPostID = platformPostID
	job.PlatformURL = platformURL
	job.PublishedAt = &publishedAt
	job.ErrorMessage = ""
	return nil
}

func (r *fakeJobRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[id]
	job.Status = models.JobStatusFailed
	job.ErrorMessage = errorMessage
	job.PlatformPostID = ""
	job.PlatformURL = ""
	return nil
}

func (r *fakeJobRepo) HasPublishing(ctx context.Context, postID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range r.jobs {
		if job.PostID == postID && job.Status == models.JobStatusPublishing {
			return true, nil
		}
	}
	return false, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	records []*models.PublishHistory
}

func (r *fakeHistoryRepo) Create(ctx context.Context, ph *models.PublishHistory) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, ph)
	return int64(len(r.records)), nil
}

func (r *fakeHistoryRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.PublishHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records, nil
}

type fakeAccountRepo struct {
	accounts     map[int64]*models.SocialAccount
	destinations map[string]*models.ResolvedDestination
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts:     make(map[int64]*models.SocialAccount),
		destinations: make(map[string]*models.ResolvedDestination),
	}
}

func (r *fakeAccountRepo) addDestination(t *testing.T, accountID int64, destinationID, platform string) {
	t.Helper()
	encrypted, err := utils.Encrypt([]byte("token-"+destinationID), []byte(testSecretKey))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	r.accounts[accountID] = &models.SocialAccount{
		ID:            accountID,
		Platform:      platform,
		AccessToken:   encrypted,
		AccountStatus: models.AccountStatusConnected,
	}
	key := fmt.Sprintf("%d:%s", accountID, destinationID)
	r.destinations[key] = &models.ResolvedDestination{
		AccountID:       accountID,
		DestinationID:   destinationID,
		DestinationName: destinationID,
		Platform:        platform,
	}
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return r.accounts[id], nil
}

func (r *fakeAccountRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (r *fakeAccountRepo) ListDestinations(ctx context.Context, accountID int64) ([]*models.Destination, error) {
	return nil, nil
}

func (r *fakeAccountRepo) ResolveDestination(ctx context.Context, userID, accountID int64, destinationID string) (*models.ResolvedDestination, error) {
	rd, ok := r.destinations[fmt.Sprintf("%d:%s", accountID, destinationID)]
	if !ok {
		return nil, nil
	}
	copied := *rd
	return &copied, nil
}

type fakePostMediaRepo struct{}

func (r *fakePostMediaRepo) Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) error {
	return nil
}

func (r *fakePostMediaRepo) ListURLsByPostID(ctx context.Context, postID int64) ([]string, error) {
	return nil, nil
}

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries map[int64]*models.CalendarEntry
	owners  map[int64]int64
	nextID  int64
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[int64]*models.CalendarEntry), owners: make(map[int64]int64)}
}

func (r *fakeEntryRepo) Create(ctx context.Context, tx *sql.Tx, entry *models.CalendarEntry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := *entry
	stored.ID = r.nextID
	r.entries[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeEntryRepo) GetByID(ctx context.Context, id int64) (*models.CalendarEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (r *fakeEntryRepo) ListByCalendarID(ctx context.Context, calendarID int64) ([]*models.CalendarEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []*models.CalendarEntry
	for id := int64(1); id <= r.nextID; id++ {
		if entry, ok := r.entries[id]; ok && entry.CalendarID == calendarID {
			copied := *entry
			entries = append(entries, &copied)
		}
	}
	return entries, nil
}

func (r *fakeEntryRepo) CheckByUserID(ctx context.Context, entryID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[entryID]
	if !ok {
		return false, nil
	}
	return r.owners[entryID] == userID, nil
}

func (r *fakeEntryRepo) UpdateStatus(ctx context.Context, status models.EntryStatus, entryID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entryID].Status = status
	return nil
}

func (r *fakeEntryRepo) SetGeneratedContent(ctx context.Context, entryID int64, content string, hashtags []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.entries[entryID]
	entry.Status = models.EntryStatusContentGenerated
	entry.GeneratedContent = content
	entry.SuggestedHashtags = hashtags
	return nil
}

type fakeMediaService struct{}

func (s *fakeMediaService) SaveFiles(ctx context.Context, tx *sql.Tx, userID, postID int64, files []*multipart.FileHeader) error {
	return nil
}

type submitOutcome struct {
	result *transfer.GatewayPublishResult
	err    error
}

type fakeGateway struct {
	mu       sync.Mutex
	submits  int
	fetches  int
	outcomes map[string]submitOutcome
	metrics  *transfer.GatewayMetrics
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{outcomes: make(map[string]submitOutcome)}
}

func (g *fakeGateway) succeed(destinationID, platformPostID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcomes[destinationID] = submitOutcome{result: &transfer.GatewayPublishResult{
		PlatformPostID: platformPostID,
		PlatformURL:    "https://platform.example/" + platformPostID,
	}}
}

func (g *fakeGateway) fail(destinationID, message string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcomes[destinationID] = submitOutcome{err: apperr.Gateway("%s", message)}
}

func (g *fakeGateway) Submit(ctx context.Context, sub *transfer.GatewaySubmission) (*transfer.GatewayPublishResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submits++
	outcome, ok := g.outcomes[sub.DestinationID]
	if !ok {
		return nil, apperr.Gateway("no outcome configured for %s", sub.DestinationID)
	}
	return outcome.result, outcome.err
}

func (g *fakeGateway) FetchMetrics(ctx context.Context, platform, platformPostID string) (*transfer.GatewayMetrics, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches++
	if g.metrics == nil {
		return nil, apperr.Gateway("no metrics configured")
	}
	return g.metrics, nil
}

func (g *fakeGateway) submitCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submits
}

// ---- harness ----

type publishFixture struct {
	svc     PublishService
	posts   *fakePostRepo
	jobs    *fakeJobRepo
	history *fakeHistoryRepo
	account *fakeAccountRepo
	entries *fakeEntryRepo
	gw      *fakeGateway
	mock    sqlmock.Sqlmock
}

func newPublishFixture(t *testing.T) *publishFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &publishFixture{
		posts:   newFakePostRepo(),
		jobs:    newFakeJobRepo(),
		history: &fakeHistoryRepo{},
		account: newFakeAccountRepo(),
		entries: newFakeEntryRepo(),
		gw:      newFakeGateway(),
		mock:    mock,
	}

	cfg := config.Config{SecretKey: testSecretKey}
	f.svc = NewPublishService(cfg, db, f.posts, f.jobs, f.history, f.account, &fakePostMediaRepo{}, f.entries, &fakeMediaService{}, f.gw)
	return f
}

func (f *publishFixture) expectTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

func (f *publishFixture) trackOwnership(userID int64) {
	f.jobs.mu.Lock()
	defer f.jobs.mu.Unlock()
	for _, job := range f.jobs.jobs {
		f.jobs.owners[job.PostID] = userID
	}
}

// ---- tests ----

func TestDispatchPartialFailure(t *testing.T) {
	f := newPublishFixture(t)
	f.account.addDestination(t, 1, "page-a", "facebook")
	f.account.addDestination(t, 1, "page-b", "facebook")
	f.gw.succeed("page-a", "fb-123")
	f.gw.fail("page-b", "rate limited")
	f.expectTx()

	result, err := f.svc.Dispatch(context.Background(), 7, &transfer.PublishRequest{
		Text: "hello world",
		Destinations: []transfer.DestinationRef{
			{AccountID: 1, DestinationID: "page-a"},
			{AccountID: 1, DestinationID: "page-b"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(result.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(result.Jobs))
	}
	if result.Successful != 1 || result.Failed != 1 {
		t.Fatalf("counters: successful=%d failed=%d", result.Successful, result.Failed)
	}

	for _, job := range result.Jobs {
		switch job.Status {
		case models.JobStatusPublished:
			if job.PlatformPostID == "" || job.PlatformURL == "" || job.PublishedAt == nil {
				t.Fatalf("published job missing platform fields: %+v", job)
			}
			if job.ErrorMessage != "" {
				t.Fatalf("published job should not carry an error message")
			}
		case models.JobStatusFailed:
			if job.ErrorMessage == "" {
				t.Fatalf("failed job should carry an error message")
			}
			if job.PlatformPostID != "" || job.PlatformURL != "" {
				t.Fatalf("failed job should not carry platform fields")
			}
		default:
			t.Fatalf("job did not settle: %s", job.Status)
		}
	}

	if len(f.history.records) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(f.history.records))
	}
}

func TestDispatchDeduplicatesDestinations(t *testing.T) {
	f := newPublishFixture(t)
	f.account.addDestination(t, 1, "page-a", "facebook")
	f.account.addDestination(t, 1, "page-b", "facebook")
	f.gw.succeed("page-a", "fb-1")
	f.gw.succeed("page-b", "fb-2")
	f.expectTx()

	result, err := f.svc.Dispatch(context.Background(), 7, &transfer.PublishRequest{
		Text: "once please",
		Destinations: []transfer.DestinationRef{
			{AccountID: 1, DestinationID: "page-a"},
			{AccountID: 1, DestinationID: "page-a"},
			{AccountID: 1, DestinationID: "page-b"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(result.Jobs) != 2 {
		t.Fatalf("duplicate destination should collapse to one job, got %d", len(result.Jobs))
	}
	if f.gw.submitCount() != 2 {
		t.Fatalf("expected 2 gateway submits, got %d", f.gw.submitCount())
	}
}

func TestDispatchValidation(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		f := newPublishFixture(t)
		f.account.addDestination(t, 1, "page-a", "facebook")

		_, err := f.svc.Dispatch(context.Background(), 7, &transfer.PublishRequest{
			Text:         "   ",
			Destinations: []transfer.DestinationRef{{AccountID: 1, DestinationID: "page-a"}},
		}, nil)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if f.gw.submitCount() != 0 {
			t.Fatal("validation failure must not hit the gateway")
		}
	})

	t.Run("no destinations", func(t *testing.T) {
		f := newPublishFixture(t)

		_, err := f.svc.Dispatch(context.Background(), 7, &transfer.PublishRequest{Text: "hi"}, nil)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if f.gw.submitCount() != 0 {
			t.Fatal("validation failure must not hit the gateway")
		}
	})

	t.Run("unknown destination", func(t *testing.T) {
		f := newPublishFixture(t)

		_, err := f.svc.Dispatch(context.Background(), 7, &transfer.PublishRequest{
			Text:         "hi",
			Destinations: []transfer.DestinationRef{{AccountID: 9, DestinationID: "nope"}},
		}, nil)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestRetryFailedJob(t *testing.T) {
	f := newPublishFixture(t)
	f.account.addDestination(t, 1, "page-a", "facebook")
	f.account.addDestination(t, 1, "page-b", "facebook")
	f.gw.succeed("page-a", "fb-123")
	f.gw.fail("page-b", "rate limited")
	f.expectTx()

	result, err := f.svc.Dispatch(context.Background(), 7, &transfer.PublishRequest{
		Text: "hello world",
		Destinations: []transfer.DestinationRef{
			{AccountID: 1, DestinationID: "page-a"},
			{AccountID: 1, DestinationID: "page-b"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	f.trackOwnership(7)

	var failedID, publishedID int64
	for _, job := range result.Jobs {
		if job.Status == models.JobStatusFailed {
			failedID = job.ID
		} else {
			publishedID = job.ID
		}
	}

	// The gateway recovers; retry should settle the failed job without
	// touching its sibling.
	f.gw.succeed("page-b", "fb-456")

	job, err := f.svc.Retry(context.Background(), 7, failedID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if job.Status != models.JobStatusPublished {
		t.Fatalf("retried job should be published, got %s", job.Status)
	}
	if job.PlatformPostID != "fb-456" {
		t.Fatalf("unexpected platform post id: %s", job.PlatformPostID)
	}

	sibling, err := f.jobs.GetByID(context.Background(), publishedID)
	if err != nil {
		t.Fatalf("get sibling: %v", err)
	}
	if sibling.Status != models.JobStatusPublished || sibling.PlatformPostID != "fb-123" {
		t.Fatalf("sibling job changed: %+v", sibling)
	}
}

func TestRetryRejectsNonFailedJob(t *testing.T) {
	f := newPublishFixture(t)
	f.account.addDestination(t, 1, "page-a", "facebook")
	f.gw.succeed("page-a", "fb-123")
	f.expectTx()

	result, err := f.svc.Dispatch(context.Background(), 7, &transfer.PublishRequest{
		Text:         "hello",
		Destinations: []transfer.DestinationRef{{AccountID: 1, DestinationID: "page-a"}},
	}, nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	f.trackOwnership(7)

	jobID := result.Jobs[0].ID
	submitsBefore := f.gw.submitCount()

	_, err = f.svc.Retry(context.Background(), 7, jobID)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected invalid state error, got %v", err)
	}

	job, _ := f.jobs.GetByID(context.Background(), jobID)
	if job.Status != models.JobStatusPublished || job.PlatformPostID != "fb-123" {
		t.Fatalf("rejected retry must leave the job unchanged: %+v", job)
	}
	if f.gw.submitCount() != submitsBefore {
		t.Fatal("rejected retry must not hit the gateway")
	}
}

func TestDispatchMarksOriginatingEntryPublished(t *testing.T) {
	f := newPublishFixture(t)
	f.account.addDestination(t, 1, "page-a", "facebook")
	f.gw.succeed("page-a", "fb-123")
	f.expectTx()

	entryID, _ := f.entries.Create(context.Background(), nil, &models.CalendarEntry{
		CalendarID: 1,
		Status:     models.EntryStatusContentGenerated,
	})

	_, err := f.svc.Dispatch(context.Background(), 7, &transfer.PublishRequest{
		Text:          "from the calendar",
		ContentItemID: entryID,
		Destinations:  []transfer.DestinationRef{{AccountID: 1, DestinationID: "page-a"}},
	}, nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	entry, _ := f.entries.GetByID(context.Background(), entryID)
	if entry.Status != models.EntryStatusPublished {
		t.Fatalf("originating entry should be published, got %s", entry.Status)
	}
}

func TestScheduleCreatesScheduledJobs(t *testing.T) {
	f := newPublishFixture(t)
	f.account.addDestination(t, 1, "page-a", "facebook")
	f.expectTx()

	future := time.Now().Add(2 * time.Hour).Format("2006-01-02T15:04")

	postID, delay, err := f.svc.Schedule(context.Background(), 7, &transfer.PublishRequest{
		Text:          "later please",
		ScheduledTime: future,
		Destinations:  []transfer.DestinationRef{{AccountID: 1, DestinationID: "page-a"}},
	}, nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if delay <= 0 {
		t.Fatalf("expected a positive delay, got %v", delay)
	}
	if f.gw.submitCount() != 0 {
		t.Fatal("scheduling must not publish immediately")
	}

	jobs, _ := f.jobs.ListByPostID(context.Background(), postID)
	if len(jobs) != 1 || jobs[0].Status != models.JobStatusScheduled {
		t.Fatalf("expected one scheduled job, got %+v", jobs)
	}
}

func TestPublishScheduledSubmitsPendingJobs(t *testing.T) {
	f := newPublishFixture(t)
	f.account.addDestination(t, 1, "page-a", "facebook")
	f.gw.succeed("page-a", "fb-123")
	f.expectTx()

	future := time.Now().Add(time.Minute).Format("2006-01-02T15:04")
	postID, _, err := f.svc.Schedule(context.Background(), 7, &transfer.PublishRequest{
		Text:          "later",
		ScheduledTime: future,
		Destinations:  []transfer.DestinationRef{{AccountID: 1, DestinationID: "page-a"}},
	}, nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	result, err := f.svc.PublishScheduled(context.Background(), postID)
	if err != nil {
		t.Fatalf("publish scheduled: %v", err)
	}
	if result.Successful != 1 || result.Failed != 0 {
		t.Fatalf("counters: successful=%d failed=%d", result.Successful, result.Failed)
	}

	// Replaying the task must not resubmit settled jobs.
	submits := f.gw.submitCount()
	if _, err := f.svc.PublishScheduled(context.Background(), postID); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if f.gw.submitCount() != submits {
		t.Fatal("replayed task resubmitted settled jobs")
	}
}
