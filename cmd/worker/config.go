package main

import (
	"localdeals-backend/internal/shared/utils"
)

// workerConfig là phần config riêng của process worker,
// phần còn lại lấy từ container
type workerConfig struct {
	HealthAddr string
}

func loadWorkerConfig() *workerConfig {
	return &workerConfig{
		HealthAddr: utils.GetEnvVariable("WORKER_HEALTH_ADDR", ":9999"),
	}
}
