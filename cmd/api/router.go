package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"localdeals-backend/internal/shared"
	"localdeals-backend/internal/shared/middleware"
	"localdeals-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupSubscriberRoutes(v1, c)
		setupBusinessRoutes(v1, c)
	}

	return router
}

// ========================================
// SUBSCRIBER ROUTES
// ========================================
func setupSubscriberRoutes(v1 *gin.RouterGroup, c *container.Container) {
	h := c.RedemptionHandler

	subscriber := v1.Group("")
	subscriber.Use(
		middleware.AuthMiddleware(c.JWTManager),
		middleware.RequireRole(shared.RoleSubscriber),
	)
	{
		subscriber.GET("/coupons/:id/redemption-eligibility", h.CheckEligibility)
		subscriber.POST("/coupons/:id/redemptions", h.CreateRedemption)
		subscriber.GET("/redemptions/:id", h.GetRedemption)
		subscriber.POST("/redemptions/:id/cancel", h.CancelRedemption)
	}
}

// ========================================
// BUSINESS ROUTES
// ========================================
func setupBusinessRoutes(v1 *gin.RouterGroup, c *container.Container) {
	h := c.RedemptionHandler

	business := v1.Group("/business")
	business.Use(
		middleware.AuthMiddleware(c.JWTManager),
		middleware.RequireRole(shared.RoleBusiness),
	)
	{
		business.POST("/redemptions/confirm",
			middleware.RateLimit(c.Cache, middleware.RateLimitConfig{
				Prefix:  "confirm",
				Limit:   c.Config.Redemption.ConfirmRate,
				Window:  c.Config.Redemption.ConfirmRateWindow,
				KeyFunc: middleware.BusinessKey,
			}),
			h.ConfirmRedemption,
		)
		business.GET("/coupons/:id/redemptions", h.ListCouponRedemptions)
		business.GET("/coupons/:id/redemptions/export", h.ExportCouponRedemptions)
		business.GET("/coupons/:id/redemption-stats", h.GetCouponStats)
	}
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{"database": "up", "redis": "up"}

		// DB down = service down; Redis down chỉ là degraded
		if err := c.DB.HealthCheck(checkCtx); err != nil {
			status = http.StatusServiceUnavailable
			checks["database"] = err.Error()
		}
		if err := c.Cache.Ping(checkCtx); err != nil {
			checks["redis"] = err.Error()
		}

		ctx.JSON(status, gin.H{
			"success": status == http.StatusOK,
			"service": c.Config.App.Name,
			"version": c.Config.App.Version,
			"checks":  checks,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}
