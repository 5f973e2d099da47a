package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UsageLimit phân loại tần suất một coupon được dùng lại
type UsageLimit string

const (
	UsageOneTime     UsageLimit = "one_time"
	UsageDaily       UsageLimit = "daily"
	UsageMonthlyOne  UsageLimit = "monthly_one"
	UsageMonthlyTwo  UsageLimit = "monthly_two"
	UsageMonthlyFour UsageLimit = "monthly_four"
)

// IsMonthly reports whether the kind is counted per calendar month.
func (u UsageLimit) IsMonthly() bool {
	switch u {
	case UsageMonthlyOne, UsageMonthlyTwo, UsageMonthlyFour:
		return true
	}
	return false
}

// Coupon là deal do business tạo, chỉ được đọc trong luồng redemption
type Coupon struct {
	ID           uuid.UUID        `json:"id"`
	BusinessID   uuid.UUID        `json:"business_id"`
	Title        string           `json:"title"`
	Description  *string          `json:"description,omitempty"`
	DiscountText string           `json:"discount_text"`
	StartDate    time.Time        `json:"start_date"`
	EndDate      time.Time        `json:"end_date"`
	Active       bool             `json:"active"`
	UsageLimit   UsageLimit       `json:"usage_limit"`
	MonthlyLimit *int             `json:"monthly_limit,omitempty"`
	SavingsValue *decimal.Decimal `json:"savings_value,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// InWindow reports whether now lies inside [StartDate, EndDate].
func (c *Coupon) InWindow(now time.Time) bool {
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}
