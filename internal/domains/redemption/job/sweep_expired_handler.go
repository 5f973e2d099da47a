package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"localdeals-backend/internal/domains/redemption/model"
	"localdeals-backend/internal/domains/redemption/service"
	"localdeals-backend/internal/shared/utils"
	"localdeals-backend/pkg/logger"
)

const (
	defaultSweepBatch = 500
	// số batch tối đa trong một lần chạy cron
	maxSweepBatches = 20
)

// SweepExpiredHandler là safety net cho các delayed task bị mất
type SweepExpiredHandler struct {
	service service.ServiceInterface
}

func NewSweepExpiredHandler(svc service.ServiceInterface) *SweepExpiredHandler {
	return &SweepExpiredHandler{service: svc}
}

func (h *SweepExpiredHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.SweepExpiredPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	batch := payload.Limit
	if batch <= 0 {
		batch = defaultSweepBatch
	}

	var total int64
	for i := 0; i < maxSweepBatches; i++ {
		n, err := h.service.SweepExpired(ctx, batch)
		if err != nil {
			return fmt.Errorf("sweep expired redemptions: %w", err)
		}
		total += n
		if n < int64(batch) {
			break
		}
	}

	if total > 0 {
		logger.Info("Swept overdue redemptions", map[string]interface{}{
			"expired": total,
		})
	}
	return nil
}
