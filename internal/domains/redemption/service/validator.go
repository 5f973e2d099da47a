package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	couponModel "localdeals-backend/internal/domains/coupon/model"
	couponRepo "localdeals-backend/internal/domains/coupon/repository"
	"localdeals-backend/internal/domains/redemption/model"
	"localdeals-backend/internal/domains/redemption/repository"
	subscriberModel "localdeals-backend/internal/domains/subscriber/model"
	subscriberRepo "localdeals-backend/internal/domains/subscriber/repository"
)

// subject là dữ liệu collaborator cần cho một lần validate.
// nil nghĩa là không tồn tại.
type subject struct {
	pair       model.PairKey
	coupon     *couponModel.Coupon
	subscriber *subscriberModel.Subscriber
}

// Validator gộp subscription-state, coupon-state và usage-policy thành một quyết định
type Validator struct {
	coupons     couponRepo.CouponRepository
	subscribers subscriberRepo.SubscriberRepository
	counter     *UsageCounter
}

func NewValidator(
	coupons couponRepo.CouponRepository,
	subscribers subscriberRepo.SubscriberRepository,
	counter *UsageCounter,
) *Validator {
	return &Validator{
		coupons:     coupons,
		subscribers: subscribers,
		counter:     counter,
	}
}

// Validate is read-only: it never creates or mutates a record.
func (v *Validator) Validate(ctx context.Context, store repository.Store, subscriberID, couponID uuid.UUID, now time.Time) (*model.ValidationResult, error) {
	subj, err := v.load(ctx, subscriberID, couponID)
	if err != nil {
		return nil, err
	}
	result, _, err := v.evaluate(ctx, store, subj, now)
	return result, err
}

// load fetches coupon and subscriber concurrently. Not-found is a value, not
// an error; only directory failures abort.
func (v *Validator) load(ctx context.Context, subscriberID, couponID uuid.UUID) (*subject, error) {
	subj := &subject{pair: model.PairKey{SubscriberID: subscriberID, CouponID: couponID}}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := v.coupons.FindByID(gctx, couponID)
		switch {
		case errors.Is(err, couponModel.ErrCouponNotFound):
			return nil
		case err != nil:
			return fmt.Errorf("coupon directory: %w: %w", model.ErrStoreUnavailable, err)
		}
		subj.coupon = c
		return nil
	})

	g.Go(func() error {
		s, err := v.subscribers.FindByID(gctx, subscriberID)
		switch {
		case errors.Is(err, subscriberModel.ErrSubscriberNotFound):
			return nil
		case err != nil:
			return fmt.Errorf("subscriber directory: %w: %w", model.ErrStoreUnavailable, err)
		}
		subj.subscriber = s
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return subj, nil
}

// evaluate chạy các check theo đúng thứ tự, check đầu tiên fail sẽ thắng:
//  1. coupon tồn tại
//  2. subscriber tồn tại và active
//  3. coupon active
//  4. now nằm trong [start_date, end_date]
//  5. usage < allowed
func (v *Validator) evaluate(ctx context.Context, store repository.Store, subj *subject, now time.Time) (*model.ValidationResult, model.Policy, error) {
	result := &model.ValidationResult{}

	// 1
	if subj.coupon == nil {
		return result.Reject(model.RejectCouponNotFound), model.Policy{}, nil
	}
	coupon := subj.coupon
	result.Usage.UsageType = coupon.UsageLimit

	policy, known := model.EffectivePolicy(coupon)
	if known {
		result.Usage.MaxAllowed = policy.MaxAllowed
		result.Usage.ResetInfo = policy.ResetInfo(now, v.counter.loc)
	}

	// 2
	if subj.subscriber == nil || !subj.subscriber.IsActive() {
		return result.Reject(model.RejectUserNotSubscribed), policy, nil
	}

	// 3
	if !coupon.Active {
		return result.Reject(model.RejectCouponInactive), policy, nil
	}

	// 4
	if !coupon.InWindow(now) {
		return result.Reject(model.RejectCouponExpired), policy, nil
	}

	// 5
	if !known {
		return result.Reject(model.RejectUnsupportedUsageLimit), policy, nil
	}

	usage, err := v.counter.Usage(ctx, store, subj.pair, policy, now)
	if err != nil {
		return nil, policy, fmt.Errorf("count usage: %w", err)
	}
	result.Usage = usage

	if !usage.CanRedeem {
		return result.Reject(model.LimitRejection(policy.Kind)), policy, nil
	}

	result.CanRedeem = true
	return result, policy, nil
}
