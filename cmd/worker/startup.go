// cmd/worker/startup.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"localdeals-backend/pkg/container"
)

// HealthChecker performs startup health checks
type HealthChecker struct {
	c *container.Container
}

func startServices(c *container.Container, cfg *workerConfig) error {
	log.Println("============================================")
	log.Println("LocalDeals Redemption Worker Starting...")
	log.Println("============================================")

	checker := &HealthChecker{c: c}
	if err := checker.checkAll(); err != nil {
		return err
	}

	go startHealthCheckServer(cfg.HealthAddr, checker)
	return nil
}

func (h *HealthChecker) checks() []struct {
	name string
	fn   func(ctx context.Context) error
} {
	return []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"Redis Connection", h.c.Cache.Ping},
		{"PostgreSQL Connection", h.c.DB.HealthCheck},
	}
}

func (h *HealthChecker) checkAll() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, check := range h.checks() {
		if err := check.fn(ctx); err != nil {
			log.Printf("%s: %v", check.name, err)
			return fmt.Errorf("%s failed: %w", check.name, err)
		}
		log.Printf("%s: OK", check.name)
	}
	return nil
}

func startHealthCheckServer(addr string, checker *HealthChecker) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"UP","service":"localdeals-worker"}`))
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := checker.checkAll(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"NOT_READY"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"READY"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Printf("[Health] Starting health check server on %s", addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Printf("[Health] Failed to start: %v", err)
	}
}
