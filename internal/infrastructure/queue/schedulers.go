package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"localdeals-backend/internal/config"
	"localdeals-backend/internal/domains/redemption/model"
	"localdeals-backend/internal/shared"
	"localdeals-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisOpt asynq.RedisConnOpt, jobConfig config.JobConfig, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: loc,
		LogLevel: asynq.WarnLevel,
	})

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

func (s *Scheduler) RegisterJobs() error {
	return s.registerSweepExpiredRedemptionsJob()
}

// ================================================
// Sweep overdue pending redemptions
// ================================================
// Delayed expire task là đường chính; sweep bắt các task bị mất
func (s *Scheduler) registerSweepExpiredRedemptionsJob() error {
	payload, err := json.Marshal(model.SweepExpiredPayload{Limit: s.jobConfig.SweepBatch})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeSweepExpired, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.SweepCron,
		task,
		asynq.Queue(s.jobConfig.Queue),
		asynq.MaxRetry(0),
		asynq.Timeout(time.Minute),
		// cron chạy dày, không cần giữ task trùng nếu tick trước chưa xong
		asynq.Unique(30*time.Second),
	)
	if err != nil {
		logger.Error("Failed to register SweepExpiredRedemptions job", err)
		return err
	}

	logger.Info("Registered SweepExpiredRedemptions", map[string]interface{}{
		"cron":  s.jobConfig.SweepCron,
		"batch": s.jobConfig.SweepBatch,
	})
	return nil
}

// Start không block, cron chạy trong goroutine của asynq
func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
