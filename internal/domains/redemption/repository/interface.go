package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"localdeals-backend/internal/domains/redemption/model"
)

// Store là các thao tác trên ledger, dùng được cả trong và ngoài pair lock
type Store interface {
	// CountRedeemed đếm status = redeemed cho cặp (subscriber, coupon) trong window
	CountRedeemed(ctx context.Context, pair model.PairKey, window model.UsageWindow) (int, error)

	// Insert returns model.ErrCodeCollision when qr_code or display_code is
	// already held by another pending record.
	Insert(ctx context.Context, r *model.Redemption) error

	FindByID(ctx context.Context, id uuid.UUID) (*model.Redemption, error)

	// FindPendingByCodes returns model.ErrRedemptionNotFound unless a pending
	// record matches both codes.
	FindPendingByCodes(ctx context.Context, qrCode, displayCode string) (*model.Redemption, error)

	// Transition is a conditional update: it only applies while the row is
	// still pending. Returns false when another caller got there first.
	// Moving a one_time record to redeemed may fail with model.ErrDuplicateRedeemed.
	Transition(ctx context.Context, id uuid.UUID, to model.Status, at time.Time) (bool, error)

	// CancelPendingForPair huỷ các pending record còn sống của cặp, trả về số dòng
	CancelPendingForPair(ctx context.Context, pair model.PairKey, at time.Time) (int64, error)

	ListByCoupon(ctx context.Context, couponID uuid.UUID, filter model.LedgerFilter) ([]model.Redemption, int, error)

	CountByStatus(ctx context.Context, couponID uuid.UUID) (map[model.Status]int, error)

	// ExpireOverdue flips at most limit overdue pending rows to expired.
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int64, error)
}

// RedemptionRepository thêm unit of work được serialize theo từng cặp
type RedemptionRepository interface {
	Store

	// WithPairLock runs fn while holding an exclusive lock on the pair. All
	// writes fn makes through tx commit together or not at all.
	WithPairLock(ctx context.Context, pair model.PairKey, fn func(ctx context.Context, tx Store) error) error
}
