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

// ExpireRedemptionHandler xử lý delayed task được enqueue lúc create.
// Record đã terminal hoặc chưa tới hạn thì bỏ qua.
type ExpireRedemptionHandler struct {
	service service.ServiceInterface
}

func NewExpireRedemptionHandler(svc service.ServiceInterface) *ExpireRedemptionHandler {
	return &ExpireRedemptionHandler{service: svc}
}

func (h *ExpireRedemptionHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.ExpireRedemptionPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		// payload hỏng thì retry cũng vô ích
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	expired, err := h.service.ExpireRedemption(ctx, payload.RedemptionID)
	if err != nil {
		return fmt.Errorf("expire redemption %s: %w", payload.RedemptionID, err)
	}

	if expired {
		logger.Info("Redemption expired by scheduled task", map[string]interface{}{
			"redemption_id": payload.RedemptionID,
		})
	}
	return nil
}
