package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"localdeals-backend/internal/config"
	infraCache "localdeals-backend/internal/infrastructure/cache"
	"localdeals-backend/internal/infrastructure/database"
	"localdeals-backend/pkg/cache"
	"localdeals-backend/pkg/jwt"
	"localdeals-backend/pkg/logger"

	couponRepo "localdeals-backend/internal/domains/coupon/repository"
	redemptionHandler "localdeals-backend/internal/domains/redemption/handler"
	redemptionJob "localdeals-backend/internal/domains/redemption/job"
	redemptionRepo "localdeals-backend/internal/domains/redemption/repository"
	redemptionService "localdeals-backend/internal/domains/redemption/service"
	subscriberRepo "localdeals-backend/internal/domains/subscriber/repository"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container là root của dependency graph, dùng chung cho cmd/api và cmd/worker
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB
	Redis       *infraCache.RedisCache
	Cache       cache.Cache
	AsynqClient *asynq.Client
	JWTManager  *jwt.Manager

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	CouponRepo     couponRepo.CouponRepository
	SubscriberRepo subscriberRepo.SubscriberRepository
	RedemptionRepo redemptionRepo.RedemptionRepository

	// ========================================
	// SERVICE LAYER
	// ========================================
	RedemptionService redemptionService.ServiceInterface

	// ========================================
	// HANDLER LAYER
	// ========================================
	RedemptionHandler *redemptionHandler.RedemptionHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer build theo thứ tự:
// 1. Config
// 2. Infrastructure (DB, Redis, asynq client)
// 3. Repositories
// 4. Services
// 5. Handlers
func NewContainer() (*Container, error) {
	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	// ========================================
	// STEP 2: INITIALIZE INFRASTRUCTURE
	// ========================================
	if err := c.initInfrastructure(); err != nil {
		c.Cleanup()
		return nil, err
	}

	// ========================================
	// STEP 3-5: DOMAIN LAYERS
	// ========================================
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("DI container initialized", map[string]interface{}{
		"env":      cfg.App.Environment,
		"timezone": cfg.Redemption.Timezone,
	})
	return c, nil
}

func (c *Container) initInfrastructure() error {
	cfg := c.Config

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := database.NewPostgresDB(dbConfig)
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	// Redis chỉ phục vụ throttle và asynq: lỗi ping không chặn startup
	c.Redis = infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Redis.Ping(ctx); err != nil {
		logger.Warn("Redis unavailable at startup (non-critical)", map[string]interface{}{
			"host":  cfg.Redis.Host,
			"error": err.Error(),
		})
	}
	c.Cache = c.Redis

	c.AsynqClient = asynq.NewClient(c.RedisConnOpt())
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	return nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.CouponRepo = couponRepo.NewPostgresRepository(pool)
	c.SubscriberRepo = subscriberRepo.NewPostgresRepository(pool)
	c.RedemptionRepo = redemptionRepo.NewPostgresRepository(pool)
}

func (c *Container) initServices() {
	rc := c.Config.Redemption

	c.RedemptionService = redemptionService.NewRedemptionService(
		c.RedemptionRepo,
		c.CouponRepo,
		c.SubscriberRepo,
		redemptionService.NewCodeGenerator(nil),
		redemptionJob.NewExpiryEnqueuer(c.AsynqClient, c.Config.Job.Queue),
		redemptionService.Config{
			CodeTTL:       rc.CodeTTL,
			ConfirmWindow: rc.ConfirmWindow,
			Location:      rc.Location,
		},
	)
}

func (c *Container) initHandlers() {
	c.RedemptionHandler = redemptionHandler.NewRedemptionHandler(c.RedemptionService)
}

// RedisConnOpt dùng chung cho asynq client, server và scheduler
func (c *Container) RedisConnOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			logger.Error("Failed to close asynq client", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("Failed to close Redis", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
