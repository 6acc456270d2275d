package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	result, err := q.ps.PublishScheduled(ctx, payload.PostID)
	if err != nil {
		slog.Info("scheduled publish failed", "post_id", payload.PostID, "error", err)
		return err
	}

	slog.Info("scheduled publish settled", "post_id", payload.PostID, "successful", result.Successful, "failed", result.Failed)
	return nil
}
