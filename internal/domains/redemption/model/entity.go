package model

import (
	"time"

	"github.com/google/uuid"

	couponModel "localdeals-backend/internal/domains/coupon/model"
)

// Status của một redemption record
type Status string

const (
	StatusPending   Status = "pending"
	StatusRedeemed  Status = "redeemed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusRedeemed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusRedeemed || s == StatusExpired || s == StatusCancelled
}

// CanTransitionTo: chỉ pending → {redeemed, expired, cancelled}
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next.IsTerminal()
}

// Redemption là một dòng trong ledger (append-only, không bao giờ bị xóa)
type Redemption struct {
	ID           uuid.UUID `json:"id"`
	SubscriberID uuid.UUID `json:"subscriber_id"`
	CouponID     uuid.UUID `json:"coupon_id"`
	BusinessID   uuid.UUID `json:"business_id"`

	// Secrets: chỉ trả về client đúng một lần khi issue
	QRCode      string `json:"-"`
	DisplayCode string `json:"-"`

	Status Status `json:"status"`

	// Snapshot policy tại thời điểm tạo
	UsageLimit couponModel.UsageLimit `json:"usage_limit"`
	MaxAllowed int                    `json:"max_allowed"`

	RedemptionMonth string     `json:"redemption_month"` // YYYY-MM
	ExpiresAt       time.Time  `json:"expires_at"`
	RedeemedAt      *time.Time `json:"redeemed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsOverdue reports a pending record whose window has passed. A record is
// still valid at exactly ExpiresAt.
func (r *Redemption) IsOverdue(now time.Time) bool {
	return r.Status == StatusPending && now.After(r.ExpiresAt)
}

func (r *Redemption) Pair() PairKey {
	return PairKey{SubscriberID: r.SubscriberID, CouponID: r.CouponID}
}

// PairKey identifies the (subscriber, coupon) pair that usage caps apply to.
type PairKey struct {
	SubscriberID uuid.UUID
	CouponID     uuid.UUID
}

func (k PairKey) String() string {
	return k.SubscriberID.String() + ":" + k.CouponID.String()
}
