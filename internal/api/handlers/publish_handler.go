package handlers

import (
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/publora/publora/internal/queue"
	"github.com/publora/publora/internal/service"
	"github.com/publora/publora/internal/transfer"
)

type PublishHandler struct {
	s           service.PublishService
	m           service.MetricsService
	AsynqClient *asynq.Client
}

func NewPublishHandler(publishService service.PublishService, metricsService service.MetricsService, asynqClient *asynq.Client) *PublishHandler {
	return &PublishHandler{s: publishService, m: metricsService, AsynqClient: asynqClient}
}

// Dispatch publishes immediately when no scheduled_time is given, otherwise
// creates the post and queues it for deferred publication.
func (h *PublishHandler) Dispatch(c *fiber.Ctx) error {
	userID := GetUserID(c)

	req, files, err := parsePublishForm(c)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	if req.ScheduledTime != "" {
		postID, delay, err := h.s.Schedule(c.Context(), userID, req, files)
		if err != nil {
			return ErrorResponse(c, err)
		}

		err = queue.EnqueuePost(h.AsynqClient, queue.PublishPostPayload{PostID: postID}, delay)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error scheduling post",
			})
		}

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"post_id": postID,
			"message": "Post scheduled successfully",
		})
	}

	result, err := h.s.Dispatch(c.Context(), userID, req, files)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func parsePublishForm(c *fiber.Ctx) (*transfer.PublishRequest, []*multipart.FileHeader, error) {
	req := &transfer.PublishRequest{
		Text:          c.FormValue("text"),
		ScheduledTime: c.FormValue("scheduled_time"),
	}

	if v := c.FormValue("project_id"); v != "" {
		projectID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, nil, err
		}
		req.ProjectID = projectID
	}
	if v := c.FormValue("content_item_id"); v != "" {
		contentItemID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, nil, err
		}
		req.ContentItemID = contentItemID
	}
	if v := c.FormValue("hashtags"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Hashtags); err != nil {
			return nil, nil, err
		}
	}
	if v := c.FormValue("destinations"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Destinations); err != nil {
			return nil, nil, err
		}
	}

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = form.File["files"]
	}

	return req, files, nil
}

func (h *PublishHandler) RetryJob(c *fiber.Ctx) error {
	userID := GetUserID(c)
	jobID := c.QueryInt("id", 0)

	job, err := h.s.Retry(c.Context(), userID, int64(jobID))
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(job)
}

func (h *PublishHandler) JobMetrics(c *fiber.Ctx) error {
	userID := GetUserID(c)
	jobID := c.QueryInt("id", 0)
	force := c.QueryBool("force", false)

	metrics, err := h.m.FetchMetrics(c.Context(), userID, int64(jobID), force)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(metrics)
}

func (h *PublishHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	if postID != 0 {
		post, err := h.s.PostInfo(c.Context(), int64(postID), userID)
		if err != nil {
			return ErrorResponse(c, err)
		}

		return c.Status(fiber.StatusOK).JSON(post)
	}

	posts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PublishHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	err := h.s.Remove(c.Context(), userID, int64(postID))
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
