package repository

import (
	"context"

	"github.com/google/uuid"

	"localdeals-backend/internal/domains/coupon/model"
)

// CouponRepository is the read side of the coupon directory.
type CouponRepository interface {
	// FindByID returns model.ErrCouponNotFound when no row exists.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
}
