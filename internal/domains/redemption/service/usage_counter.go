package service

import (
	"context"
	"time"

	"localdeals-backend/internal/domains/redemption/model"
	"localdeals-backend/internal/domains/redemption/repository"
)

// UsageCounter đếm usage đã dùng (chỉ status = redeemed) theo window của policy
type UsageCounter struct {
	loc *time.Location
}

func NewUsageCounter(loc *time.Location) *UsageCounter {
	if loc == nil {
		loc = time.UTC
	}
	return &UsageCounter{loc: loc}
}

// CountUsage reads through store so a caller holding the pair lock counts
// inside its own transaction.
func (c *UsageCounter) CountUsage(ctx context.Context, store repository.Store, pair model.PairKey, policy model.Policy, now time.Time) (int, error) {
	return store.CountRedeemed(ctx, pair, policy.WindowAt(now, c.loc))
}

// Usage builds the full usage block for the window containing now.
func (c *UsageCounter) Usage(ctx context.Context, store repository.Store, pair model.PairKey, policy model.Policy, now time.Time) (model.UsageLimitValidation, error) {
	used, err := c.CountUsage(ctx, store, pair, policy, now)
	if err != nil {
		return model.UsageLimitValidation{}, err
	}

	remaining := policy.MaxAllowed - used
	if remaining < 0 {
		remaining = 0
	}

	return model.UsageLimitValidation{
		CanRedeem:    remaining > 0,
		CurrentUsage: used,
		MaxAllowed:   policy.MaxAllowed,
		Remaining:    remaining,
		UsageType:    policy.Kind,
		ResetInfo:    policy.ResetInfo(now, c.loc),
	}, nil
}

// ConfirmWindow là window dùng khi confirm một record đã tồn tại: monthly
// đếm theo redemption_month đã chốt lúc tạo.
func (c *UsageCounter) ConfirmWindow(policy model.Policy, rd *model.Redemption, now time.Time) model.UsageWindow {
	w := policy.WindowAt(now, c.loc)
	if w.Kind == model.WindowMonth {
		w.Month = rd.RedemptionMonth
	}
	return w
}
