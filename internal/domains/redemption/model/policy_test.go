package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	couponModel "localdeals-backend/internal/domains/coupon/model"
)

func TestLookupPolicy(t *testing.T) {
	cases := []struct {
		kind   couponModel.UsageLimit
		max    int
		window WindowKind
	}{
		{couponModel.UsageOneTime, 1, WindowAllTime},
		{couponModel.UsageDaily, 1, WindowDay},
		{couponModel.UsageMonthlyOne, 1, WindowMonth},
		{couponModel.UsageMonthlyTwo, 2, WindowMonth},
		{couponModel.UsageMonthlyFour, 4, WindowMonth},
	}
	for _, tc := range cases {
		p, ok := LookupPolicy(tc.kind)
		require.True(t, ok, tc.kind)
		assert.Equal(t, tc.max, p.MaxAllowed, tc.kind)
		assert.Equal(t, tc.window, p.Window, tc.kind)
	}

	_, ok := LookupPolicy("weekly")
	assert.False(t, ok)
}

func TestEffectivePolicy_MonthlyLimitOverride(t *testing.T) {
	three := 3
	zero := 0

	monthly := &couponModel.Coupon{UsageLimit: couponModel.UsageMonthlyTwo, MonthlyLimit: &three}
	p, ok := EffectivePolicy(monthly)
	require.True(t, ok)
	assert.Equal(t, 3, p.MaxAllowed)

	// zero không override
	monthly.MonthlyLimit = &zero
	p, _ = EffectivePolicy(monthly)
	assert.Equal(t, 2, p.MaxAllowed)

	// chỉ áp dụng cho monthly kinds
	daily := &couponModel.Coupon{UsageLimit: couponModel.UsageDaily, MonthlyLimit: &three}
	p, _ = EffectivePolicy(daily)
	assert.Equal(t, 1, p.MaxAllowed)

	_, ok = EffectivePolicy(&couponModel.Coupon{UsageLimit: "unknown"})
	assert.False(t, ok)
}

func TestWindowAt(t *testing.T) {
	now := time.Date(2026, 3, 15, 23, 30, 0, 0, time.UTC)

	daily, _ := LookupPolicy(couponModel.UsageDaily)
	w := daily.WindowAt(now, time.UTC)
	assert.Equal(t, WindowDay, w.Kind)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), w.From)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), w.To)

	monthly, _ := LookupPolicy(couponModel.UsageMonthlyFour)
	assert.Equal(t, "2026-03", monthly.WindowAt(now, time.UTC).Month)

	oneTime, _ := LookupPolicy(couponModel.UsageOneTime)
	assert.Equal(t, WindowAllTime, oneTime.WindowAt(now, time.UTC).Kind)
}

func TestWindowAt_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	// 20:00 UTC ngày 31/1 là 03:00 ngày 1/2 ở UTC+7
	now := time.Date(2026, 1, 31, 20, 0, 0, 0, time.UTC)

	monthly, _ := LookupPolicy(couponModel.UsageMonthlyOne)
	assert.Equal(t, "2026-01", monthly.WindowAt(now, time.UTC).Month)
	assert.Equal(t, "2026-02", monthly.WindowAt(now, loc).Month)

	daily, _ := LookupPolicy(couponModel.UsageDaily)
	w := daily.WindowAt(now, loc)
	assert.True(t, w.From.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, loc)))
}

func TestResetInfo(t *testing.T) {
	now := time.Date(2026, 12, 20, 10, 0, 0, 0, time.UTC)

	oneTime, _ := LookupPolicy(couponModel.UsageOneTime)
	assert.Equal(t, "Single use only", oneTime.ResetInfo(now, time.UTC))

	daily, _ := LookupPolicy(couponModel.UsageDaily)
	assert.Equal(t, "Resets at midnight (UTC)", daily.ResetInfo(now, time.UTC))

	monthly, _ := LookupPolicy(couponModel.UsageMonthlyTwo)
	assert.Equal(t, "Resets on January 1, 2027", monthly.ResetInfo(now, time.UTC))
}
