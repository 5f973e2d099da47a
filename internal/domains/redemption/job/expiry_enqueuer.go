package job

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"localdeals-backend/internal/domains/redemption/model"
	"localdeals-backend/internal/shared"
	"localdeals-backend/internal/shared/utils"
	"localdeals-backend/pkg/logger"
)

// task chạy trễ một chút sau expires_at để tránh biên
const expiryGrace = time.Second

// TaskEnqueuer is the subset of *asynq.Client used to schedule expiry.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ExpiryEnqueuer implements service.ExpiryScheduler on top of asynq.
type ExpiryEnqueuer struct {
	client TaskEnqueuer
	queue  string
}

func NewExpiryEnqueuer(client TaskEnqueuer, queue string) *ExpiryEnqueuer {
	if queue == "" {
		queue = shared.QueueRedemption
	}
	return &ExpiryEnqueuer{client: client, queue: queue}
}

func (e *ExpiryEnqueuer) ScheduleExpiry(ctx context.Context, redemptionID uuid.UUID, at time.Time) error {
	task, err := utils.MarshalTask(shared.TypeExpireRedemption, model.ExpireRedemptionPayload{
		RedemptionID: redemptionID,
	})
	if err != nil {
		return err
	}

	runAt := at.Add(expiryGrace)
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(e.queue),
		asynq.MaxRetry(3),
		asynq.ProcessAt(runAt),
		asynq.TaskID("expire:"+redemptionID.String()),
	)
	if err != nil {
		return fmt.Errorf("enqueue expiry for %s: %w", redemptionID, err)
	}

	logger.Info("Enqueued redemption expiry task", map[string]interface{}{
		"redemption_id": redemptionID,
		"task_id":       info.ID,
		"execute_at":    runAt.Format(time.RFC3339),
	})
	return nil
}
