package model

import (
	"fmt"
	"time"

	couponModel "localdeals-backend/internal/domains/coupon/model"
)

// WindowKind là khoảng thời gian mà usage được đếm
type WindowKind string

const (
	WindowAllTime WindowKind = "all_time"
	WindowDay     WindowKind = "day"
	WindowMonth   WindowKind = "month"
)

const monthStampLayout = "2006-01"

type Policy struct {
	Kind       couponModel.UsageLimit
	MaxAllowed int
	Window     WindowKind
}

var policyTable = map[couponModel.UsageLimit]Policy{
	couponModel.UsageOneTime:     {Kind: couponModel.UsageOneTime, MaxAllowed: 1, Window: WindowAllTime},
	couponModel.UsageDaily:       {Kind: couponModel.UsageDaily, MaxAllowed: 1, Window: WindowDay},
	couponModel.UsageMonthlyOne:  {Kind: couponModel.UsageMonthlyOne, MaxAllowed: 1, Window: WindowMonth},
	couponModel.UsageMonthlyTwo:  {Kind: couponModel.UsageMonthlyTwo, MaxAllowed: 2, Window: WindowMonth},
	couponModel.UsageMonthlyFour: {Kind: couponModel.UsageMonthlyFour, MaxAllowed: 4, Window: WindowMonth},
}

// LookupPolicy trả về rule gốc trong bảng, false nếu kind không được hỗ trợ
func LookupPolicy(kind couponModel.UsageLimit) (Policy, bool) {
	p, ok := policyTable[kind]
	return p, ok
}

// EffectivePolicy resolves the cap for a coupon. A positive MonthlyLimit
// replaces the table count for monthly kinds and is ignored otherwise.
func EffectivePolicy(c *couponModel.Coupon) (Policy, bool) {
	p, ok := LookupPolicy(c.UsageLimit)
	if !ok {
		return Policy{}, false
	}
	if p.Window == WindowMonth && c.MonthlyLimit != nil && *c.MonthlyLimit > 0 {
		p.MaxAllowed = *c.MonthlyLimit
	}
	return p, true
}

// UsageWindow là filter cụ thể mà store dùng để đếm redeemed rows.
// Day dùng [From, To); Month dùng redemption_month.
type UsageWindow struct {
	Kind  WindowKind
	From  time.Time
	To    time.Time
	Month string
}

// WindowAt computes the counting window that contains now.
func (p Policy) WindowAt(now time.Time, loc *time.Location) UsageWindow {
	switch p.Window {
	case WindowDay:
		start := StartOfDay(now, loc)
		return UsageWindow{Kind: WindowDay, From: start, To: start.AddDate(0, 0, 1)}
	case WindowMonth:
		return UsageWindow{Kind: WindowMonth, Month: MonthStamp(now, loc)}
	default:
		return UsageWindow{Kind: WindowAllTime}
	}
}

// ResetInfo is the human-readable reset hint shown next to remaining uses.
func (p Policy) ResetInfo(now time.Time, loc *time.Location) string {
	switch p.Window {
	case WindowDay:
		return fmt.Sprintf("Resets at midnight (%s)", loc.String())
	case WindowMonth:
		return "Resets on " + StartOfNextMonth(now, loc).Format("January 2, 2006")
	default:
		return "Single use only"
	}
}

func MonthStamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(monthStampLayout)
}

func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func StartOfNextMonth(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, _ := local.Date()
	return time.Date(y, m+1, 1, 0, 0, 0, 0, loc)
}
