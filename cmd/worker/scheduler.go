package main

import (
	"log"

	"localdeals-backend/internal/infrastructure/queue"
	"localdeals-backend/pkg/container"
)

type asynqScheduler struct {
	*queue.Scheduler
}

func setupScheduler(c *container.Container) (*asynqScheduler, error) {
	scheduler := queue.NewScheduler(c.RedisConnOpt(), c.Config.Job, c.Config.Redemption.Location)

	if err := scheduler.RegisterJobs(); err != nil {
		return nil, err
	}

	log.Println("[Scheduler] Starting...")
	if err := scheduler.Start(); err != nil {
		return nil, err
	}

	return &asynqScheduler{Scheduler: scheduler}, nil
}

func (s *asynqScheduler) Shutdown() {
	log.Println("[Scheduler] Shutting down...")
	s.Scheduler.Shutdown()
	log.Println("[Scheduler] Stopped")
}
