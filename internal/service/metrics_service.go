package service

import (
	"context"
	"time"

	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/apperr"
	"github.com/publora/publora/internal/gateway"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/repository"
	"github.com/publora/publora/internal/transfer"
)

// MetricsService reads engagement counters for published jobs. Metrics do
// not exist before publication, so anything but a published job with a
// platform post id is rejected.
type MetricsService interface {
	FetchMetrics(ctx context.Context, userID, jobID int64, force bool) (*transfer.PostMetrics, error)
}

type metricsService struct {
	jr    repository.PostJobRepository
	gw    gateway.Client
	cache *metricsCache
}

func NewMetricsService(cfg config.Config, jr repository.PostJobRepository, gw gateway.Client) MetricsService {
	return &metricsService{
		jr:    jr,
		gw:    gw,
		cache: newMetricsCache(time.Duration(cfg.MetricsCacheTTLSec) * time.Second),
	}
}

func (s *metricsService) FetchMetrics(ctx context.Context, userID, jobID int64, force bool) (*transfer.PostMetrics, error) {
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

	if job.Status != models.JobStatusPublished || job.PlatformPostID == "" {
		return nil, apperr.InvalidState("metrics are only available for published jobs, job %d is %s", jobID, job.Status)
	}

	now := time.Now()
	if !force {
		if cached, ok := s.cache.Get(jobID, now); ok {
			return cached, nil
		}
	}

	raw, err := s.gw.FetchMetrics(ctx, job.Platform, job.PlatformPostID)
	if err != nil {
		return nil, err
	}

	metrics := &transfer.PostMetrics{
		JobID:       jobID,
		Likes:       raw.Likes,
		Comments:    raw.Comments,
		Shares:      raw.Shares,
		Views:       raw.Views,
		Status:      raw.Status,
		LastUpdated: raw.LastUpdated,
	}
	if metrics.LastUpdated.IsZero() {
		metrics.LastUpdated = now
	}

	s.cache.Put(jobID, metrics, now)
	return metrics, nil
}
