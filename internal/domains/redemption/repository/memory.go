package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	couponModel "localdeals-backend/internal/domains/coupon/model"
	"localdeals-backend/internal/domains/redemption/model"
)

// MemoryRepository is an in-process ledger with the same contract as the
// Postgres one, including per-pair locking and the one-time backstop. It
// backs the service tests.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.Redemption

	locksMu sync.Mutex
	locks   map[model.PairKey]*sync.Mutex
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rows:  map[uuid.UUID]model.Redemption{},
		locks: map[model.PairKey]*sync.Mutex{},
	}
}

func (r *MemoryRepository) pairLock(pair model.PairKey) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	l, ok := r.locks[pair]
	if !ok {
		l = &sync.Mutex{}
		r.locks[pair] = l
	}
	return l
}

// WithPairLock stages fn's writes and applies them only when fn succeeds.
func (r *MemoryRepository) WithPairLock(ctx context.Context, pair model.PairKey, fn func(ctx context.Context, tx Store) error) error {
	l := r.pairLock(pair)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("acquire pair lock: %w: %w", model.ErrStoreUnavailable, err)
	}

	tx := &memoryTx{parent: r, staged: map[uuid.UUID]model.Redemption{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range tx.staged {
		r.rows[id] = row
	}
	return nil
}

// -------------------------------------------------------------------
// Store
// -------------------------------------------------------------------

func (r *MemoryRepository) CountRedeemed(_ context.Context, pair model.PairKey, window model.UsageWindow) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return countRedeemed(r.rows, pair, window), nil
}

// Writes outside WithPairLock still take the pair mutex, the way a Postgres
// UPDATE waits on a row locked by another transaction.

func (r *MemoryRepository) Insert(_ context.Context, rd *model.Redemption) error {
	l := r.pairLock(rd.Pair())
	l.Lock()
	defer l.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := checkInsert(r.rows, nil, rd); err != nil {
		return err
	}
	r.rows[rd.ID] = *rd
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Redemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, model.ErrRedemptionNotFound
	}
	return &row, nil
}

func (r *MemoryRepository) FindPendingByCodes(_ context.Context, qrCode, displayCode string) (*model.Redemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Status == model.StatusPending && row.QRCode == qrCode && row.DisplayCode == displayCode {
			return &row, nil
		}
	}
	return nil, model.ErrRedemptionNotFound
}

func (r *MemoryRepository) Transition(_ context.Context, id uuid.UUID, to model.Status, at time.Time) (bool, error) {
	r.mu.Lock()
	current, exists := r.rows[id]
	r.mu.Unlock()
	if !exists {
		return false, nil
	}

	l := r.pairLock(current.Pair())
	l.Lock()
	defer l.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok, err := applyTransition(r.rows, nil, id, to, at)
	if err != nil || !ok {
		return false, err
	}
	r.rows[id] = row
	return true, nil
}

func (r *MemoryRepository) CancelPendingForPair(_ context.Context, pair model.PairKey, at time.Time) (int64, error) {
	l := r.pairLock(pair)
	l.Lock()
	defer l.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, row := range r.rows {
		if row.Pair() == pair && row.Status == model.StatusPending {
			row.Status = model.StatusCancelled
			row.UpdatedAt = at
			r.rows[id] = row
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) ListByCoupon(_ context.Context, couponID uuid.UUID, filter model.LedgerFilter) ([]model.Redemption, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]model.Redemption, 0)
	for _, row := range r.rows {
		if row.CouponID != couponID {
			continue
		}
		if filter.Status != nil && row.Status != *filter.Status {
			continue
		}
		matched = append(matched, row)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

func (r *MemoryRepository) CountByStatus(_ context.Context, couponID uuid.UUID) (map[model.Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[model.Status]int{}
	for _, row := range r.rows {
		if row.CouponID == couponID {
			counts[row.Status]++
		}
	}
	return counts, nil
}

// ExpireOverdue skips pairs whose lock is held, like FOR UPDATE SKIP LOCKED.
func (r *MemoryRepository) ExpireOverdue(_ context.Context, now time.Time, limit int) (int64, error) {
	r.mu.Lock()
	overdue := make([]model.Redemption, 0)
	for _, row := range r.rows {
		if row.Status == model.StatusPending && row.ExpiresAt.Before(now) {
			overdue = append(overdue, row)
		}
	}
	r.mu.Unlock()

	sort.Slice(overdue, func(i, j int) bool {
		return overdue[i].ExpiresAt.Before(overdue[j].ExpiresAt)
	})

	var n int64
	for _, candidate := range overdue {
		if limit > 0 && n >= int64(limit) {
			break
		}
		l := r.pairLock(candidate.Pair())
		if !l.TryLock() {
			continue
		}

		r.mu.Lock()
		row, ok := r.rows[candidate.ID]
		if ok && row.Status == model.StatusPending && row.ExpiresAt.Before(now) {
			row.Status = model.StatusExpired
			row.UpdatedAt = now
			r.rows[row.ID] = row
			n++
		}
		r.mu.Unlock()
		l.Unlock()
	}
	return n, nil
}

// -------------------------------------------------------------------
// memoryTx: writes staged until WithPairLock commits
// -------------------------------------------------------------------

type memoryTx struct {
	parent *MemoryRepository
	staged map[uuid.UUID]model.Redemption
}

// view merges committed rows with staged writes. Caller holds parent.mu.
func (t *memoryTx) view() map[uuid.UUID]model.Redemption {
	merged := make(map[uuid.UUID]model.Redemption, len(t.parent.rows)+len(t.staged))
	for id, row := range t.parent.rows {
		merged[id] = row
	}
	for id, row := range t.staged {
		merged[id] = row
	}
	return merged
}

func (t *memoryTx) CountRedeemed(_ context.Context, pair model.PairKey, window model.UsageWindow) (int, error) {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	return countRedeemed(t.view(), pair, window), nil
}

func (t *memoryTx) Insert(_ context.Context, rd *model.Redemption) error {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	if err := checkInsert(t.parent.rows, t.staged, rd); err != nil {
		return err
	}
	t.staged[rd.ID] = *rd
	return nil
}

func (t *memoryTx) FindByID(_ context.Context, id uuid.UUID) (*model.Redemption, error) {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	row, ok := t.view()[id]
	if !ok {
		return nil, model.ErrRedemptionNotFound
	}
	return &row, nil
}

func (t *memoryTx) FindPendingByCodes(_ context.Context, qrCode, displayCode string) (*model.Redemption, error) {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	for _, row := range t.view() {
		if row.Status == model.StatusPending && row.QRCode == qrCode && row.DisplayCode == displayCode {
			return &row, nil
		}
	}
	return nil, model.ErrRedemptionNotFound
}

func (t *memoryTx) Transition(_ context.Context, id uuid.UUID, to model.Status, at time.Time) (bool, error) {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	row, ok, err := applyTransition(t.parent.rows, t.staged, id, to, at)
	if err != nil || !ok {
		return false, err
	}
	t.staged[id] = row
	return true, nil
}

func (t *memoryTx) CancelPendingForPair(_ context.Context, pair model.PairKey, at time.Time) (int64, error) {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	var n int64
	for id, row := range t.view() {
		if row.Pair() == pair && row.Status == model.StatusPending {
			row.Status = model.StatusCancelled
			row.UpdatedAt = at
			t.staged[id] = row
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) ListByCoupon(ctx context.Context, couponID uuid.UUID, filter model.LedgerFilter) ([]model.Redemption, int, error) {
	return t.parent.ListByCoupon(ctx, couponID, filter)
}

func (t *memoryTx) CountByStatus(ctx context.Context, couponID uuid.UUID) (map[model.Status]int, error) {
	return t.parent.CountByStatus(ctx, couponID)
}

func (t *memoryTx) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int64, error) {
	return t.parent.ExpireOverdue(ctx, now, limit)
}

// -------------------------------------------------------------------
// shared rules
// -------------------------------------------------------------------

func lookup(rows, staged map[uuid.UUID]model.Redemption, id uuid.UUID) (model.Redemption, bool) {
	if row, ok := staged[id]; ok {
		return row, true
	}
	row, ok := rows[id]
	return row, ok
}

func each(rows, staged map[uuid.UUID]model.Redemption, fn func(model.Redemption)) {
	for id, row := range rows {
		if s, ok := staged[id]; ok {
			row = s
		}
		fn(row)
	}
	for id, row := range staged {
		if _, ok := rows[id]; !ok {
			fn(row)
		}
	}
}

func countRedeemed(rows map[uuid.UUID]model.Redemption, pair model.PairKey, window model.UsageWindow) int {
	n := 0
	for _, row := range rows {
		if row.Pair() != pair || row.Status != model.StatusRedeemed {
			continue
		}
		switch window.Kind {
		case model.WindowDay:
			if row.RedeemedAt == nil || row.RedeemedAt.Before(window.From) || !row.RedeemedAt.Before(window.To) {
				continue
			}
		case model.WindowMonth:
			if row.RedemptionMonth != window.Month {
				continue
			}
		}
		n++
	}
	return n
}

// checkInsert mirrors the partial unique indexes on pending codes.
func checkInsert(rows, staged map[uuid.UUID]model.Redemption, rd *model.Redemption) error {
	if _, exists := lookup(rows, staged, rd.ID); exists {
		return model.ErrCodeCollision
	}
	var collision bool
	each(rows, staged, func(row model.Redemption) {
		if row.Status != model.StatusPending {
			return
		}
		if row.QRCode == rd.QRCode || row.DisplayCode == rd.DisplayCode {
			collision = true
		}
	})
	if collision {
		return model.ErrCodeCollision
	}
	return nil
}

// applyTransition mirrors the conditional UPDATE and the one-time backstop index.
func applyTransition(rows, staged map[uuid.UUID]model.Redemption, id uuid.UUID, to model.Status, at time.Time) (model.Redemption, bool, error) {
	if !model.StatusPending.CanTransitionTo(to) {
		return model.Redemption{}, false, fmt.Errorf("invalid transition to %q", to)
	}
	row, ok := lookup(rows, staged, id)
	if !ok || row.Status != model.StatusPending {
		return model.Redemption{}, false, nil
	}

	if to == model.StatusRedeemed && row.UsageLimit == couponModel.UsageOneTime {
		var duplicate bool
		each(rows, staged, func(other model.Redemption) {
			if other.ID != row.ID && other.Pair() == row.Pair() &&
				other.Status == model.StatusRedeemed && other.UsageLimit == couponModel.UsageOneTime {
				duplicate = true
			}
		})
		if duplicate {
			return model.Redemption{}, false, model.ErrDuplicateRedeemed
		}
	}

	row.Status = to
	row.UpdatedAt = at
	if to == model.StatusRedeemed {
		redeemedAt := at
		row.RedeemedAt = &redeemedAt
	}
	return row, true, nil
}
