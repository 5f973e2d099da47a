package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	couponModel "localdeals-backend/internal/domains/coupon/model"
	couponRepo "localdeals-backend/internal/domains/coupon/repository"
	"localdeals-backend/internal/domains/redemption/model"
	"localdeals-backend/internal/domains/redemption/repository"
	subscriberRepo "localdeals-backend/internal/domains/subscriber/repository"
	"localdeals-backend/pkg/logger"
	"localdeals-backend/pkg/metrics"
)

// số pending row tối đa được self-heal khi tính stats
const statsHealBatch = 500

type redemptionService struct {
	repo      repository.RedemptionRepository
	coupons   couponRepo.CouponRepository
	validator *Validator
	counter   *UsageCounter
	codes     *CodeGenerator
	expiry    ExpiryScheduler
	cfg       Config
}

// NewRedemptionService wires the lifecycle manager. expiry may be nil, in
// which case lazy expiry and the periodic sweep are the only expiry paths.
func NewRedemptionService(
	repo repository.RedemptionRepository,
	coupons couponRepo.CouponRepository,
	subscribers subscriberRepo.SubscriberRepository,
	codes *CodeGenerator,
	expiry ExpiryScheduler,
	cfg Config,
) ServiceInterface {
	cfg = cfg.withDefaults()
	if codes == nil {
		codes = NewCodeGenerator(nil)
	}
	counter := NewUsageCounter(cfg.Location)

	return &redemptionService{
		repo:      repo,
		coupons:   coupons,
		validator: NewValidator(coupons, subscribers, counter),
		counter:   counter,
		codes:     codes,
		expiry:    expiry,
		cfg:       cfg,
	}
}

// =====================================================
// VALIDATE
// =====================================================

func (s *redemptionService) ValidateRedemption(ctx context.Context, subscriberID, couponID uuid.UUID) (*model.ValidationResult, error) {
	result, err := s.validator.Validate(ctx, s.repo, subscriberID, couponID, s.cfg.Now())
	if err != nil {
		metrics.ObserveOutcome("validate", "", err)
		return nil, err
	}

	if result.CanRedeem {
		result.ConfirmWithinSeconds = int(s.cfg.ConfirmWindow / time.Second)
	}
	metrics.ObserveOutcome("validate", rejectionReason(result.Rejection), nil)
	return result, nil
}

// =====================================================
// CREATE
// =====================================================

// CreateRedemption re-validates and inserts the pending record inside one
// pair-locked unit of work, so concurrent creates cannot overshoot the cap.
func (s *redemptionService) CreateRedemption(ctx context.Context, subscriberID, couponID uuid.UUID) (*model.CreateResult, error) {
	subj, err := s.validator.load(ctx, subscriberID, couponID)
	if err != nil {
		metrics.ObserveOutcome("create", "", err)
		return nil, err
	}

	var result *model.CreateResult
	err = s.repo.WithPairLock(ctx, subj.pair, func(ctx context.Context, tx repository.Store) error {
		now := s.cfg.Now()

		validation, policy, err := s.validator.evaluate(ctx, tx, subj, now)
		if err != nil {
			return err
		}
		if validation.Rejection != nil {
			result = &model.CreateResult{Usage: validation.Usage, Rejection: validation.Rejection}
			return nil
		}

		// Mỗi cặp chỉ giữ một code còn sống
		superseded, err := tx.CancelPendingForPair(ctx, subj.pair, now)
		if err != nil {
			return err
		}

		rd, err := s.insertWithUniqueCodes(ctx, tx, subj, policy, now)
		if err != nil {
			return err
		}

		if superseded > 0 {
			logger.Info("Superseded pending redemptions", map[string]interface{}{
				"subscriber_id": subscriberID,
				"coupon_id":     couponID,
				"count":         superseded,
			})
		}

		result = &model.CreateResult{
			Issued: &model.IssuedCode{
				RedemptionID:         rd.ID,
				QRContent:            rd.QRCode,
				DisplayCode:          rd.DisplayCode,
				DisplayCodeFormatted: model.FormatDisplayCode(rd.DisplayCode),
				ExpiresAt:            rd.ExpiresAt,
				Countdown:            model.NewCountdown(rd.ExpiresAt, now),
			},
			Usage: validation.Usage,
		}
		return nil
	})
	if err != nil {
		metrics.ObserveOutcome("create", "", err)
		return nil, fmt.Errorf("create redemption: %w", err)
	}

	metrics.ObserveOutcome("create", rejectionReason(result.Rejection), nil)
	if result.Issued == nil {
		return result, nil
	}

	logger.Info("Redemption created", map[string]interface{}{
		"redemption_id": result.Issued.RedemptionID,
		"subscriber_id": subscriberID,
		"coupon_id":     couponID,
		"expires_at":    result.Issued.ExpiresAt.Format(time.RFC3339),
	})
	s.scheduleExpiry(ctx, result.Issued.RedemptionID, result.Issued.ExpiresAt)

	return result, nil
}

// insertWithUniqueCodes re-rolls the code pair while it collides with
// another pending record.
func (s *redemptionService) insertWithUniqueCodes(ctx context.Context, tx repository.Store, subj *subject, policy model.Policy, now time.Time) (*model.Redemption, error) {
	for attempt := 1; attempt <= s.cfg.MaxCodeAttempts; attempt++ {
		qrCode, displayCode, err := s.codes.Pair()
		if err != nil {
			return nil, err
		}

		rd := &model.Redemption{
			ID:              uuid.New(),
			SubscriberID:    subj.pair.SubscriberID,
			CouponID:        subj.pair.CouponID,
			BusinessID:      subj.coupon.BusinessID,
			QRCode:          qrCode,
			DisplayCode:     displayCode,
			Status:          model.StatusPending,
			UsageLimit:      policy.Kind,
			MaxAllowed:      policy.MaxAllowed,
			RedemptionMonth: model.MonthStamp(now, s.cfg.Location),
			ExpiresAt:       now.Add(s.cfg.CodeTTL),
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		err = tx.Insert(ctx, rd)
		if err == nil {
			return rd, nil
		}
		if !errors.Is(err, model.ErrCodeCollision) {
			return nil, err
		}

		metrics.RedemptionCodeCollisionsTotal.Inc()
		logger.Debug(fmt.Sprintf("redemption code collision, re-rolling (attempt %d)", attempt))
	}

	return nil, model.ErrCodeSpaceExhausted
}

func (s *redemptionService) scheduleExpiry(ctx context.Context, id uuid.UUID, at time.Time) {
	if s.expiry == nil {
		return
	}
	if err := s.expiry.ScheduleExpiry(ctx, id, at); err != nil {
		logger.Warn("Failed to schedule redemption expiry", map[string]interface{}{
			"redemption_id": id,
			"error":         err.Error(),
		})
	}
}

// =====================================================
// CONFIRM
// =====================================================

// ConfirmRedemption is called from the business side. Wrong codes, consumed
// codes and codes owned by another business all get the same answer.
func (s *redemptionService) ConfirmRedemption(ctx context.Context, businessID uuid.UUID, qrCode, displayCode string) (*model.ConfirmResult, error) {
	qrCode = model.NormalizeQRCode(qrCode)
	displayCode = model.NormalizeDisplayCode(displayCode)

	if !model.IsValidQRCode(qrCode) || !model.IsValidDisplayCode(displayCode) {
		metrics.ObserveOutcome("confirm", string(model.ReasonValidationFailed), nil)
		return &model.ConfirmResult{Rejection: model.RejectInvalidCode}, nil
	}

	found, err := s.repo.FindPendingByCodes(ctx, qrCode, displayCode)
	if err != nil {
		if errors.Is(err, model.ErrRedemptionNotFound) {
			metrics.ObserveOutcome("confirm", string(model.ReasonValidationFailed), nil)
			return &model.ConfirmResult{Rejection: model.RejectInvalidCode}, nil
		}
		metrics.ObserveOutcome("confirm", "", err)
		return nil, fmt.Errorf("confirm redemption: %w", err)
	}

	if found.BusinessID != businessID {
		logger.Info("Confirm attempted by non-owning business", map[string]interface{}{
			"redemption_id": found.ID,
			"business_id":   businessID,
		})
		metrics.ObserveOutcome("confirm", string(model.ReasonValidationFailed), nil)
		return &model.ConfirmResult{Rejection: model.RejectInvalidCode}, nil
	}

	var result *model.ConfirmResult
	err = s.repo.WithPairLock(ctx, found.Pair(), func(ctx context.Context, tx repository.Store) error {
		now := s.cfg.Now()

		rd, err := tx.FindByID(ctx, found.ID)
		if err != nil {
			return err
		}
		if rd.Status != model.StatusPending {
			result = &model.ConfirmResult{Rejection: model.RejectInvalidCode}
			return nil
		}

		// Lazy expiry: code quá hạn bị chốt expired ngay tại đây
		if rd.IsOverdue(now) {
			if _, err := tx.Transition(ctx, rd.ID, model.StatusExpired, now); err != nil {
				return err
			}
			metrics.RedemptionsExpiredTotal.WithLabelValues(metrics.ExpiredLazy).Inc()
			result = &model.ConfirmResult{
				RedemptionID: rd.ID,
				CouponID:     rd.CouponID,
				Status:       model.StatusExpired,
				Rejection:    model.RejectCodeExpired,
			}
			return nil
		}

		// Đếm lại dưới lock: cap được enforce tại thời điểm redeemed
		policy, ok := model.LookupPolicy(rd.UsageLimit)
		if !ok {
			result = &model.ConfirmResult{Rejection: model.RejectUnsupportedUsageLimit}
			return nil
		}
		policy.MaxAllowed = rd.MaxAllowed

		used, err := tx.CountRedeemed(ctx, rd.Pair(), s.counter.ConfirmWindow(policy, rd, now))
		if err != nil {
			return err
		}
		if used >= policy.MaxAllowed {
			if _, err := tx.Transition(ctx, rd.ID, model.StatusCancelled, now); err != nil {
				return err
			}
			result = &model.ConfirmResult{
				RedemptionID: rd.ID,
				CouponID:     rd.CouponID,
				Status:       model.StatusCancelled,
				Rejection:    model.LimitRejection(rd.UsageLimit),
			}
			return nil
		}

		moved, err := tx.Transition(ctx, rd.ID, model.StatusRedeemed, now)
		if err != nil {
			return err
		}
		if !moved {
			result = &model.ConfirmResult{Rejection: model.RejectInvalidCode}
			return nil
		}

		redeemedAt := now
		result = &model.ConfirmResult{
			RedemptionID: rd.ID,
			CouponID:     rd.CouponID,
			Status:       model.StatusRedeemed,
			RedeemedAt:   &redeemedAt,
		}
		return nil
	})

	if errors.Is(err, model.ErrDuplicateRedeemed) {
		result, err = &model.ConfirmResult{Rejection: model.RejectAlreadyRedeemed}, nil
	}
	if err != nil {
		metrics.ObserveOutcome("confirm", "", err)
		return nil, fmt.Errorf("confirm redemption: %w", err)
	}

	metrics.ObserveOutcome("confirm", rejectionReason(result.Rejection), nil)
	if result.Rejection == nil {
		logger.Info("Redemption confirmed", map[string]interface{}{
			"redemption_id": result.RedemptionID,
			"coupon_id":     result.CouponID,
			"business_id":   businessID,
		})
	}
	return result, nil
}

// =====================================================
// CANCEL
// =====================================================

// CancelRedemption aborts a pending record owned by subscriberID. Terminal
// records are left alone and reported with their current status.
func (s *redemptionService) CancelRedemption(ctx context.Context, redemptionID, subscriberID uuid.UUID) (*model.CancelResult, error) {
	rd, rej, err := s.ownedBySubscriber(ctx, redemptionID, subscriberID)
	if err != nil {
		metrics.ObserveOutcome("cancel", "", err)
		return nil, err
	}
	if rej != nil {
		metrics.ObserveOutcome("cancel", string(rej.Reason), nil)
		return &model.CancelResult{Rejection: rej}, nil
	}

	now := s.cfg.Now()
	if rd, err = s.selfHeal(ctx, rd, now); err != nil {
		metrics.ObserveOutcome("cancel", "", err)
		return nil, err
	}
	if rd.Status.IsTerminal() {
		metrics.ObserveOutcome("cancel", "", nil)
		return &model.CancelResult{RedemptionID: rd.ID, Status: rd.Status}, nil
	}

	moved, err := s.repo.Transition(ctx, rd.ID, model.StatusCancelled, now)
	if err != nil {
		metrics.ObserveOutcome("cancel", "", err)
		return nil, fmt.Errorf("cancel redemption: %w", err)
	}
	if !moved {
		// Confirm hoặc sweep đã chạy trước, trả về trạng thái hiện tại
		if rd, err = s.repo.FindByID(ctx, rd.ID); err != nil {
			metrics.ObserveOutcome("cancel", "", err)
			return nil, fmt.Errorf("cancel redemption: %w", err)
		}
		metrics.ObserveOutcome("cancel", "", nil)
		return &model.CancelResult{RedemptionID: rd.ID, Status: rd.Status}, nil
	}

	logger.Info("Redemption cancelled", map[string]interface{}{
		"redemption_id": rd.ID,
		"subscriber_id": subscriberID,
	})
	metrics.ObserveOutcome("cancel", "", nil)
	return &model.CancelResult{RedemptionID: rd.ID, Status: model.StatusCancelled}, nil
}

// =====================================================
// READ SIDE
// =====================================================

func (s *redemptionService) GetRedemption(ctx context.Context, redemptionID, subscriberID uuid.UUID) (*model.RedemptionView, error) {
	rd, rej, err := s.ownedBySubscriber(ctx, redemptionID, subscriberID)
	if err != nil {
		return nil, err
	}
	if rej != nil {
		return &model.RedemptionView{Rejection: rej}, nil
	}

	now := s.cfg.Now()
	if rd, err = s.selfHeal(ctx, rd, now); err != nil {
		return nil, err
	}

	view := &model.RedemptionView{Redemption: rd}
	if rd.Status == model.StatusPending {
		cd := model.NewCountdown(rd.ExpiresAt, now)
		view.Countdown = &cd
	}
	return view, nil
}

func (s *redemptionService) ListCouponRedemptions(ctx context.Context, businessID, couponID uuid.UUID, filter model.LedgerFilter) (*model.LedgerPage, error) {
	_, rej, err := s.ownedByBusiness(ctx, couponID, businessID)
	if err != nil {
		return nil, err
	}
	if rej != nil {
		return &model.LedgerPage{Items: []model.Redemption{}, Rejection: rej}, nil
	}

	items, total, err := s.repo.ListByCoupon(ctx, couponID, filter)
	if err != nil {
		return nil, fmt.Errorf("list coupon redemptions: %w", err)
	}

	now := s.cfg.Now()
	for i := range items {
		healed, err := s.selfHeal(ctx, &items[i], now)
		if err != nil {
			return nil, err
		}
		items[i] = *healed
	}

	return &model.LedgerPage{Items: items, Total: total}, nil
}

func (s *redemptionService) GetCouponStats(ctx context.Context, businessID, couponID uuid.UUID) (*model.CouponStats, error) {
	coupon, rej, err := s.ownedByBusiness(ctx, couponID, businessID)
	if err != nil {
		return nil, err
	}
	if rej != nil {
		return &model.CouponStats{CouponID: couponID, TotalSavings: decimal.Zero, Rejection: rej}, nil
	}

	// Self-heal pending rows trước khi đếm
	pendingStatus := model.StatusPending
	pending, _, err := s.repo.ListByCoupon(ctx, couponID, model.LedgerFilter{Status: &pendingStatus, Limit: statsHealBatch})
	if err != nil {
		return nil, fmt.Errorf("coupon stats: %w", err)
	}
	now := s.cfg.Now()
	for i := range pending {
		if _, err := s.selfHeal(ctx, &pending[i], now); err != nil {
			return nil, err
		}
	}

	counts, err := s.repo.CountByStatus(ctx, couponID)
	if err != nil {
		return nil, fmt.Errorf("coupon stats: %w", err)
	}

	stats := &model.CouponStats{
		CouponID:     couponID,
		Pending:      counts[model.StatusPending],
		Redeemed:     counts[model.StatusRedeemed],
		Expired:      counts[model.StatusExpired],
		Cancelled:    counts[model.StatusCancelled],
		TotalSavings: decimal.Zero,
	}
	if coupon.SavingsValue != nil {
		stats.TotalSavings = coupon.SavingsValue.Mul(decimal.NewFromInt(int64(stats.Redeemed)))
	}
	return stats, nil
}

// =====================================================
// HOUSEKEEPING
// =====================================================

// ExpireRedemption là target của delayed task: chỉ expire nếu record vẫn pending và đã quá hạn
func (s *redemptionService) ExpireRedemption(ctx context.Context, redemptionID uuid.UUID) (bool, error) {
	rd, err := s.repo.FindByID(ctx, redemptionID)
	if err != nil {
		if errors.Is(err, model.ErrRedemptionNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("expire redemption: %w", err)
	}
	if !rd.IsOverdue(s.cfg.Now()) {
		return false, nil
	}

	moved, err := s.repo.Transition(ctx, rd.ID, model.StatusExpired, s.cfg.Now())
	if err != nil {
		return false, fmt.Errorf("expire redemption: %w", err)
	}
	if moved {
		metrics.RedemptionsExpiredTotal.WithLabelValues(metrics.ExpiredTask).Inc()
	}
	return moved, nil
}

func (s *redemptionService) SweepExpired(ctx context.Context, limit int) (int64, error) {
	n, err := s.repo.ExpireOverdue(ctx, s.cfg.Now(), limit)
	if err != nil {
		return 0, fmt.Errorf("sweep expired redemptions: %w", err)
	}
	if n > 0 {
		metrics.RedemptionsExpiredTotal.WithLabelValues(metrics.ExpiredSweep).Add(float64(n))
	}
	return n, nil
}

// =====================================================
// HELPERS
// =====================================================

// selfHeal persists pending → expired for an overdue record read from the store.
func (s *redemptionService) selfHeal(ctx context.Context, rd *model.Redemption, now time.Time) (*model.Redemption, error) {
	if !rd.IsOverdue(now) {
		return rd, nil
	}

	moved, err := s.repo.Transition(ctx, rd.ID, model.StatusExpired, now)
	if err != nil {
		return nil, fmt.Errorf("expire overdue redemption: %w", err)
	}
	if !moved {
		return s.repo.FindByID(ctx, rd.ID)
	}

	metrics.RedemptionsExpiredTotal.WithLabelValues(metrics.ExpiredLazy).Inc()
	healed := *rd
	healed.Status = model.StatusExpired
	healed.UpdatedAt = now
	return &healed, nil
}

func (s *redemptionService) ownedBySubscriber(ctx context.Context, redemptionID, subscriberID uuid.UUID) (*model.Redemption, *model.Rejection, error) {
	rd, err := s.repo.FindByID(ctx, redemptionID)
	if err != nil {
		if errors.Is(err, model.ErrRedemptionNotFound) {
			return nil, model.RejectRedemptionNotFound, nil
		}
		return nil, nil, fmt.Errorf("find redemption: %w", err)
	}
	if rd.SubscriberID != subscriberID {
		return nil, model.RejectRedemptionNotFound, nil
	}
	return rd, nil, nil
}

func (s *redemptionService) ownedByBusiness(ctx context.Context, couponID, businessID uuid.UUID) (*couponModel.Coupon, *model.Rejection, error) {
	coupon, err := s.coupons.FindByID(ctx, couponID)
	if err != nil {
		if errors.Is(err, couponModel.ErrCouponNotFound) {
			return nil, model.RejectCouponNotFound, nil
		}
		return nil, nil, fmt.Errorf("coupon directory: %w: %w", model.ErrStoreUnavailable, err)
	}
	if coupon.BusinessID != businessID {
		return nil, model.RejectCouponNotFound, nil
	}
	return coupon, nil, nil
}

func rejectionReason(r *model.Rejection) string {
	if r == nil {
		return ""
	}
	return string(r.Reason)
}
