package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	couponModel "localdeals-backend/internal/domains/coupon/model"
)

func TestStatusTransitions(t *testing.T) {
	for _, to := range []Status{StatusRedeemed, StatusExpired, StatusCancelled} {
		assert.True(t, StatusPending.CanTransitionTo(to), to)
	}
	assert.False(t, StatusPending.CanTransitionTo(StatusPending))

	for _, from := range []Status{StatusRedeemed, StatusExpired, StatusCancelled} {
		assert.True(t, from.IsTerminal())
		for _, to := range []Status{StatusPending, StatusRedeemed, StatusExpired, StatusCancelled} {
			assert.False(t, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.False(t, Status("archived").IsValid())
}

func TestIsOverdue_Boundary(t *testing.T) {
	expiresAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rd := &Redemption{Status: StatusPending, ExpiresAt: expiresAt}

	assert.False(t, rd.IsOverdue(expiresAt.Add(-time.Millisecond)))
	assert.False(t, rd.IsOverdue(expiresAt))
	assert.True(t, rd.IsOverdue(expiresAt.Add(time.Millisecond)))

	rd.Status = StatusRedeemed
	assert.False(t, rd.IsOverdue(expiresAt.Add(time.Hour)))
}

func TestCountdown(t *testing.T) {
	expiresAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	cd := NewCountdown(expiresAt, expiresAt.Add(-59500*time.Millisecond))
	assert.Equal(t, 60, cd.RemainingSeconds)
	assert.False(t, cd.Expired)

	cd = NewCountdown(expiresAt, expiresAt)
	assert.Equal(t, 0, cd.RemainingSeconds)
	assert.False(t, cd.Expired)

	cd = NewCountdown(expiresAt, expiresAt.Add(time.Second))
	assert.Equal(t, 0, cd.RemainingSeconds)
	assert.True(t, cd.Expired)
}

func TestLimitRejection(t *testing.T) {
	assert.Equal(t, ReasonAlreadyRedeemed, LimitRejection(couponModel.UsageOneTime).Reason)
	assert.Equal(t, ReasonDailyLimitReached, LimitRejection(couponModel.UsageDaily).Reason)
	assert.Equal(t, ReasonMonthlyLimitReached, LimitRejection(couponModel.UsageMonthlyFour).Reason)
	assert.Equal(t, ReasonValidationFailed, LimitRejection("weekly").Reason)
}

func TestRetryable(t *testing.T) {
	assert.True(t, ReasonNetworkError.Retryable())
	assert.True(t, ReasonValidationFailed.Retryable())
	assert.False(t, ReasonAlreadyRedeemed.Retryable())
	assert.False(t, ReasonCouponExpired.Retryable())
}
