// cmd/worker/main.go
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"localdeals-backend/pkg/container"
	"localdeals-backend/pkg/metrics"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	c, err := container.NewContainer()
	if err != nil {
		log.Fatalf("[Container] Failed to initialize: %v", err)
	}
	defer c.Cleanup()

	metrics.InitMetrics()
	cfg := loadWorkerConfig()

	handlers := initializeHandlers(c)

	if err := startServices(c, cfg); err != nil {
		log.Fatalf("[Startup] Health check failed: %v", err)
	}

	srv := setupAsynqServer(c, handlers)

	scheduler, err := setupScheduler(c)
	if err != nil {
		srv.Shutdown()
		log.Fatalf("[Scheduler] Failed to start: %v", err)
	}

	waitForShutdown(srv, scheduler)
}

func waitForShutdown(srv *asynqServer, scheduler *asynqScheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("[Shutdown] Gracefully stopping...")
	scheduler.Shutdown()
	srv.Shutdown()
	log.Println("[Shutdown] Stopped")
}
