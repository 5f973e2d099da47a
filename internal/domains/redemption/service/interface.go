package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"localdeals-backend/internal/domains/redemption/model"
)

// ServiceInterface là contract của Redemption Lifecycle Manager.
// Business-rule failures come back as result.Rejection; a non-nil error
// always means infrastructure trouble and is safe to retry.
type ServiceInterface interface {
	ValidateRedemption(ctx context.Context, subscriberID, couponID uuid.UUID) (*model.ValidationResult, error)
	CreateRedemption(ctx context.Context, subscriberID, couponID uuid.UUID) (*model.CreateResult, error)
	ConfirmRedemption(ctx context.Context, businessID uuid.UUID, qrCode, displayCode string) (*model.ConfirmResult, error)
	CancelRedemption(ctx context.Context, redemptionID, subscriberID uuid.UUID) (*model.CancelResult, error)

	GetRedemption(ctx context.Context, redemptionID, subscriberID uuid.UUID) (*model.RedemptionView, error)
	ListCouponRedemptions(ctx context.Context, businessID, couponID uuid.UUID, filter model.LedgerFilter) (*model.LedgerPage, error)
	GetCouponStats(ctx context.Context, businessID, couponID uuid.UUID) (*model.CouponStats, error)
	// ExportCouponRedemptions trả về file nil kèm page.Rejection khi coupon không thuộc business
	ExportCouponRedemptions(ctx context.Context, businessID, couponID uuid.UUID, filter model.LedgerFilter) (*excelize.File, *model.LedgerPage, error)

	// Housekeeping, driven by the worker
	ExpireRedemption(ctx context.Context, redemptionID uuid.UUID) (bool, error)
	SweepExpired(ctx context.Context, limit int) (int64, error)
}

// ExpiryScheduler đặt lịch task expire cho một redemption (best-effort)
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, redemptionID uuid.UUID, at time.Time) error
}

type Clock func() time.Time

// Config của redemption engine
type Config struct {
	CodeTTL         time.Duration  // hiệu lực của code pair, mặc định 60s
	ConfirmWindow   time.Duration  // hint cho dialog xác nhận phía client
	Location        *time.Location // timezone cho daily/monthly window
	MaxCodeAttempts int            // số lần re-roll khi collision
	Now             Clock
}

func (c Config) withDefaults() Config {
	if c.CodeTTL <= 0 {
		c.CodeTTL = 60 * time.Second
	}
	if c.ConfirmWindow <= 0 {
		c.ConfirmWindow = 10 * time.Second
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.MaxCodeAttempts <= 0 {
		c.MaxCodeAttempts = 5
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}
