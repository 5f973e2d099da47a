package model

import (
	"errors"
	"net/http"

	couponModel "localdeals-backend/internal/domains/coupon/model"
)

// Infrastructure errors. Business-rule failures are never returned as error,
// they travel as *Rejection inside the result structs.
var (
	ErrStoreUnavailable   = errors.New("redemption store unavailable")
	ErrRedemptionNotFound = errors.New("redemption not found")
	ErrCodeCollision      = errors.New("redemption code collides with a pending record")
	ErrDuplicateRedeemed  = errors.New("one-time coupon already redeemed for subscriber")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique redemption code")
)

type RejectionReason string

const (
	ReasonAlreadyRedeemed     RejectionReason = "ALREADY_REDEEMED"
	ReasonDailyLimitReached   RejectionReason = "DAILY_LIMIT_REACHED"
	ReasonMonthlyLimitReached RejectionReason = "MONTHLY_LIMIT_REACHED"
	ReasonCouponExpired       RejectionReason = "COUPON_EXPIRED"
	ReasonCouponInactive      RejectionReason = "COUPON_INACTIVE"
	ReasonUserNotSubscribed   RejectionReason = "USER_NOT_SUBSCRIBED"
	ReasonValidationFailed    RejectionReason = "VALIDATION_FAILED"
	ReasonNetworkError        RejectionReason = "NETWORK_ERROR"
)

// Retryable: chỉ NETWORK_ERROR và VALIDATION_FAILED được phép retry
func (r RejectionReason) Retryable() bool {
	switch r {
	case ReasonNetworkError, ReasonValidationFailed:
		return true
	case ReasonAlreadyRedeemed, ReasonDailyLimitReached, ReasonMonthlyLimitReached,
		ReasonCouponExpired, ReasonCouponInactive, ReasonUserNotSubscribed:
		return false
	}
	return false
}

// Rejection là kết quả business-rule failure, mang đúng một reason và một message
type Rejection struct {
	Reason     RejectionReason `json:"reason"`
	Message    string          `json:"message"`
	HTTPStatus int             `json:"-"`
}

// Predefined rejections. Messages come only from this table, never from a
// raw store error. Treat the values as read-only.
var (
	RejectAlreadyRedeemed = &Rejection{
		Reason:     ReasonAlreadyRedeemed,
		Message:    "You have already redeemed this coupon.",
		HTTPStatus: http.StatusConflict,
	}
	RejectDailyLimitReached = &Rejection{
		Reason:     ReasonDailyLimitReached,
		Message:    "You have reached today's limit for this coupon. Try again tomorrow.",
		HTTPStatus: http.StatusConflict,
	}
	RejectMonthlyLimitReached = &Rejection{
		Reason:     ReasonMonthlyLimitReached,
		Message:    "You have reached this month's limit for this coupon.",
		HTTPStatus: http.StatusConflict,
	}
	RejectCouponExpired = &Rejection{
		Reason:     ReasonCouponExpired,
		Message:    "This coupon is no longer valid.",
		HTTPStatus: http.StatusGone,
	}
	RejectCodeExpired = &Rejection{
		Reason:     ReasonCouponExpired,
		Message:    "This redemption code has expired. Please request a new one.",
		HTTPStatus: http.StatusGone,
	}
	RejectCouponInactive = &Rejection{
		Reason:     ReasonCouponInactive,
		Message:    "This coupon is currently inactive.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
	RejectUserNotSubscribed = &Rejection{
		Reason:     ReasonUserNotSubscribed,
		Message:    "An active subscription is required to redeem coupons.",
		HTTPStatus: http.StatusForbidden,
	}
	RejectCouponNotFound = &Rejection{
		Reason:     ReasonValidationFailed,
		Message:    "Coupon not found.",
		HTTPStatus: http.StatusNotFound,
	}
	RejectInvalidCode = &Rejection{
		Reason:     ReasonValidationFailed,
		Message:    "Invalid or expired code.",
		HTTPStatus: http.StatusNotFound,
	}
	RejectRedemptionNotFound = &Rejection{
		Reason:     ReasonValidationFailed,
		Message:    "Redemption not found.",
		HTTPStatus: http.StatusNotFound,
	}
	RejectUnsupportedUsageLimit = &Rejection{
		Reason:     ReasonValidationFailed,
		Message:    "This coupon has an unsupported usage limit.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
	RejectServiceUnavailable = &Rejection{
		Reason:     ReasonNetworkError,
		Message:    "Service temporarily unavailable. Please try again.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)

// LimitRejection maps a usage kind at its cap to the matching rejection.
func LimitRejection(kind couponModel.UsageLimit) *Rejection {
	switch kind {
	case couponModel.UsageOneTime:
		return RejectAlreadyRedeemed
	case couponModel.UsageDaily:
		return RejectDailyLimitReached
	case couponModel.UsageMonthlyOne, couponModel.UsageMonthlyTwo, couponModel.UsageMonthlyFour:
		return RejectMonthlyLimitReached
	}
	return RejectUnsupportedUsageLimit
}
