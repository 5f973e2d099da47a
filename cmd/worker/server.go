package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"localdeals-backend/internal/shared"
	"localdeals-backend/pkg/container"
	"localdeals-backend/pkg/logger"
)

type asynqServer struct {
	*asynq.Server
}

func setupAsynqServer(c *container.Container, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	concurrency := c.Config.Job.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	srv := asynq.NewServer(
		c.RedisConnOpt(),
		asynq.Config{
			Queues: map[string]int{
				c.Config.Job.Queue:   10,
				shared.QueueDefault: 1,
			},
			Concurrency: concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Info("Task failed", map[string]interface{}{
					"type":  task.Type(),
					"error": err.Error(),
				})
			}),
		},
	)

	// Start không block, worker goroutines do asynq quản lý
	if err := srv.Start(mux); err != nil {
		log.Fatalf("[Worker] Failed: %v", err)
	}
	log.Println("[Worker] Started")

	return &asynqServer{Server: srv}
}

// Shutdown chờ các task đang chạy xong (asynq ShutdownTimeout mặc định 8s)
func (s *asynqServer) Shutdown() {
	log.Println("[Worker] Shutting down...")
	s.Server.Shutdown()
	log.Println("[Worker] Stopped")
}
