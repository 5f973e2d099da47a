package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	couponModel "localdeals-backend/internal/domains/coupon/model"
)

// =====================================================
// VALIDATION RESULT
// =====================================================

// UsageLimitValidation is computed fresh on every call and never cached.
type UsageLimitValidation struct {
	CanRedeem    bool                   `json:"can_redeem"`
	CurrentUsage int                    `json:"current_usage"`
	MaxAllowed   int                    `json:"max_allowed"`
	Remaining    int                    `json:"remaining"`
	UsageType    couponModel.UsageLimit `json:"usage_type,omitempty"`
	ResetInfo    string                 `json:"reset_info,omitempty"`
	ErrorReason  RejectionReason        `json:"error_reason,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
}

// ValidationResult: Rejection == nil nghĩa là được phép redeem
type ValidationResult struct {
	CanRedeem            bool                 `json:"can_redeem"`
	Usage                UsageLimitValidation `json:"usage"`
	Rejection            *Rejection           `json:"rejection,omitempty"`
	ConfirmWithinSeconds int                  `json:"confirm_within_seconds,omitempty"`
}

// Reject marks the result as failed with rej.
func (r *ValidationResult) Reject(rej *Rejection) *ValidationResult {
	r.CanRedeem = false
	r.Rejection = rej
	r.Usage.CanRedeem = false
	r.Usage.ErrorReason = rej.Reason
	r.Usage.ErrorMessage = rej.Message
	return r
}

// =====================================================
// LIFECYCLE RESULTS
// =====================================================

// IssuedCode là code pair trả về cho subscriber đúng một lần
type IssuedCode struct {
	RedemptionID         uuid.UUID `json:"redemption_id"`
	QRContent            string    `json:"qr_content"`
	DisplayCode          string    `json:"display_code"`
	DisplayCodeFormatted string    `json:"display_code_formatted"`
	ExpiresAt            time.Time `json:"expires_at"`
	Countdown            Countdown `json:"countdown"`
}

type CreateResult struct {
	Issued    *IssuedCode          `json:"issued,omitempty"`
	Usage     UsageLimitValidation `json:"usage"`
	Rejection *Rejection           `json:"rejection,omitempty"`
}

type ConfirmResult struct {
	RedemptionID uuid.UUID  `json:"redemption_id,omitempty"`
	CouponID     uuid.UUID  `json:"coupon_id,omitempty"`
	Status       Status     `json:"status,omitempty"`
	RedeemedAt   *time.Time `json:"redeemed_at,omitempty"`
	Rejection    *Rejection `json:"rejection,omitempty"`
}

type CancelResult struct {
	RedemptionID uuid.UUID  `json:"redemption_id,omitempty"`
	Status       Status     `json:"status,omitempty"`
	Rejection    *Rejection `json:"rejection,omitempty"`
}

// RedemptionView là trạng thái + countdown cho màn hình của subscriber
type RedemptionView struct {
	Redemption *Redemption `json:"redemption,omitempty"`
	Countdown  *Countdown  `json:"countdown,omitempty"`
	Rejection  *Rejection  `json:"rejection,omitempty"`
}

// =====================================================
// LEDGER
// =====================================================

type LedgerFilter struct {
	Status *Status
	Limit  int
	Offset int
}

type LedgerPage struct {
	Items     []Redemption `json:"items"`
	Total     int          `json:"total"`
	Rejection *Rejection   `json:"rejection,omitempty"`
}

type CouponStats struct {
	CouponID     uuid.UUID       `json:"coupon_id"`
	Pending      int             `json:"pending"`
	Redeemed     int             `json:"redeemed"`
	Expired      int             `json:"expired"`
	Cancelled    int             `json:"cancelled"`
	TotalSavings decimal.Decimal `json:"total_savings"`
	Rejection    *Rejection      `json:"rejection,omitempty"`
}

// =====================================================
// REQUEST DTOs
// =====================================================

type ConfirmRedemptionRequest struct {
	QRCode      string `json:"qr_code"`
	DisplayCode string `json:"display_code"`
}

// Normalize bỏ dấu "-" và khoảng trắng trước khi validate
func (r *ConfirmRedemptionRequest) Normalize() {
	r.QRCode = NormalizeQRCode(r.QRCode)
	r.DisplayCode = NormalizeDisplayCode(r.DisplayCode)
}

func (r ConfirmRedemptionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.QRCode,
			validation.Required.Error("qr_code is required"),
			validation.Match(QRCodePattern).Error("qr_code must be 64 lowercase hex characters"),
		),
		validation.Field(&r.DisplayCode,
			validation.Required.Error("display_code is required"),
			validation.Match(DisplayCodePattern).Error("display_code must be 8 digits"),
		),
	)
}

type ListRedemptionsRequest struct {
	Status string `form:"status"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

func (r *ListRedemptionsRequest) ApplyDefaults() {
	if r.Page == 0 {
		r.Page = 1
	}
	if r.Limit == 0 {
		r.Limit = 20
	}
}

func (r ListRedemptionsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status,
			validation.In(
				string(StatusPending), string(StatusRedeemed),
				string(StatusExpired), string(StatusCancelled),
			).Error("status must be one of pending, redeemed, expired, cancelled"),
		),
		validation.Field(&r.Page, validation.Min(1)),
		validation.Field(&r.Limit, validation.Min(1), validation.Max(100)),
	)
}

func (r ListRedemptionsRequest) ToFilter() LedgerFilter {
	f := LedgerFilter{Limit: r.Limit, Offset: (r.Page - 1) * r.Limit}
	if r.Status != "" {
		s := Status(r.Status)
		f.Status = &s
	}
	return f
}

// =====================================================
// TASK PAYLOADS
// =====================================================

type ExpireRedemptionPayload struct {
	RedemptionID uuid.UUID `json:"redemption_id"`
}

type SweepExpiredPayload struct {
	Limit int `json:"limit"`
}
