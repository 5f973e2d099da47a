package main

import (
	"github.com/hibiken/asynq"

	redemptionJob "localdeals-backend/internal/domains/redemption/job"
	"localdeals-backend/internal/shared"
	"localdeals-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	expireRedemption *redemptionJob.ExpireRedemptionHandler
	sweepExpired     *redemptionJob.SweepExpiredHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		expireRedemption: redemptionJob.NewExpireRedemptionHandler(c.RedemptionService),
		sweepExpired:     redemptionJob.NewSweepExpiredHandler(c.RedemptionService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeExpireRedemption, h.expireRedemption.ProcessTask)
	mux.HandleFunc(shared.TypeSweepExpired, h.sweepExpired.ProcessTask)
}
