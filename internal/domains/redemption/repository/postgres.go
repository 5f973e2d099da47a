package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"localdeals-backend/internal/domains/redemption/model"
	"localdeals-backend/pkg/database"
)

const (
	pgUniqueViolation = "23505"

	// Partial unique index: một subscriber chỉ có tối đa một redeemed row cho coupon one_time
	oneTimeRedeemedIndex = "uq_redemptions_one_time_redeemed"
)

const redemptionColumns = `
	id, subscriber_id, coupon_id, business_id,
	qr_code, display_code, status,
	usage_limit, max_allowed, redemption_month,
	expires_at, redeemed_at, created_at, updated_at
`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository triển khai RedemptionRepository với PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
	db   querier
}

func NewPostgresRepository(pool *pgxpool.Pool) RedemptionRepository {
	return &PostgresRepository{pool: pool, db: pool}
}

// -------------------------------------------------------------------
// UNIT OF WORK
// -------------------------------------------------------------------

// WithPairLock mở transaction và giữ pg_advisory_xact_lock theo cặp
// (subscriber, coupon). Lock tự nhả khi commit/rollback.
func (r *PostgresRepository) WithPairLock(ctx context.Context, pair model.PairKey, fn func(ctx context.Context, tx Store) error) error {
	if r.pool == nil {
		return errors.New("pair lock requires a pool-backed repository")
	}

	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, pair.String()); err != nil {
			return storeErr("acquire pair lock", err)
		}
		return fn(ctx, &PostgresRepository{db: tx})
	})
}

// -------------------------------------------------------------------
// READ OPERATIONS
// -------------------------------------------------------------------

func (r *PostgresRepository) CountRedeemed(ctx context.Context, pair model.PairKey, window model.UsageWindow) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM redemptions
		WHERE subscriber_id = $1 AND coupon_id = $2 AND status = 'redeemed'
	`
	args := []any{pair.SubscriberID, pair.CouponID}

	switch window.Kind {
	case model.WindowDay:
		query += ` AND redeemed_at >= $3 AND redeemed_at < $4`
		args = append(args, window.From, window.To)
	case model.WindowMonth:
		query += ` AND redemption_month = $3`
		args = append(args, window.Month)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, storeErr("count redeemed", err)
	}
	return count, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redemptions WHERE id = $1`

	var rd model.Redemption
	if err := scanRedemption(r.db.QueryRow(ctx, query, id), &rd); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRedemptionNotFound
		}
		return nil, storeErr("find redemption by id", err)
	}
	return &rd, nil
}

func (r *PostgresRepository) FindPendingByCodes(ctx context.Context, qrCode, displayCode string) (*model.Redemption, error) {
	query := `
		SELECT ` + redemptionColumns + `
		FROM redemptions
		WHERE qr_code = $1 AND display_code = $2 AND status = 'pending'
	`

	var rd model.Redemption
	if err := scanRedemption(r.db.QueryRow(ctx, query, qrCode, displayCode), &rd); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRedemptionNotFound
		}
		return nil, storeErr("find pending redemption by codes", err)
	}
	return &rd, nil
}

func (r *PostgresRepository) ListByCoupon(ctx context.Context, couponID uuid.UUID, filter model.LedgerFilter) ([]model.Redemption, int, error) {
	where := ` WHERE coupon_id = $1`
	args := []any{couponID}
	if filter.Status != nil {
		where += ` AND status = $2`
		args = append(args, string(*filter.Status))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM redemptions`+where, args...).Scan(&total); err != nil {
		return nil, 0, storeErr("count coupon redemptions", err)
	}

	query := `SELECT ` + redemptionColumns + ` FROM redemptions` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, storeErr("list coupon redemptions", err)
	}
	defer rows.Close()

	items := make([]model.Redemption, 0, filter.Limit)
	for rows.Next() {
		var rd model.Redemption
		if err := scanRedemption(rows, &rd); err != nil {
			return nil, 0, storeErr("scan redemption", err)
		}
		items = append(items, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr("iterate redemptions", err)
	}

	return items, total, nil
}

func (r *PostgresRepository) CountByStatus(ctx context.Context, couponID uuid.UUID) (map[model.Status]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*)
		FROM redemptions
		WHERE coupon_id = $1
		GROUP BY status
	`, couponID)
	if err != nil {
		return nil, storeErr("count redemptions by status", err)
	}
	defer rows.Close()

	counts := make(map[model.Status]int, 4)
	for rows.Next() {
		var (
			status model.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, storeErr("scan status count", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate status counts", err)
	}
	return counts, nil
}

// -------------------------------------------------------------------
// WRITE OPERATIONS
// -------------------------------------------------------------------

// Insert dùng ON CONFLICT DO NOTHING để collision code không làm abort transaction
func (r *PostgresRepository) Insert(ctx context.Context, rd *model.Redemption) error {
	query := `
		INSERT INTO redemptions (` + redemptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query,
		rd.ID,
		rd.SubscriberID,
		rd.CouponID,
		rd.BusinessID,
		rd.QRCode,
		rd.DisplayCode,
		string(rd.Status),
		string(rd.UsageLimit),
		rd.MaxAllowed,
		rd.RedemptionMonth,
		rd.ExpiresAt,
		rd.RedeemedAt,
		rd.CreatedAt,
		rd.UpdatedAt,
	)
	if err != nil {
		return storeErr("insert redemption", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCodeCollision
	}
	return nil
}

func (r *PostgresRepository) Transition(ctx context.Context, id uuid.UUID, to model.Status, at time.Time) (bool, error) {
	if !model.StatusPending.CanTransitionTo(to) {
		return false, fmt.Errorf("invalid transition to %q", to)
	}

	query := `
		UPDATE redemptions
		SET status = $2,
			updated_at = $3,
			redeemed_at = CASE WHEN $2 = 'redeemed' THEN $3 ELSE redeemed_at END
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, id, string(to), at)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == oneTimeRedeemedIndex {
			return false, model.ErrDuplicateRedeemed
		}
		return false, storeErr("transition redemption", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) CancelPendingForPair(ctx context.Context, pair model.PairKey, at time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE redemptions
		SET status = 'cancelled', updated_at = $3
		WHERE subscriber_id = $1 AND coupon_id = $2 AND status = 'pending'
	`, pair.SubscriberID, pair.CouponID, at)
	if err != nil {
		return 0, storeErr("cancel pending redemptions", err)
	}
	return tag.RowsAffected(), nil
}

// ExpireOverdue dùng SKIP LOCKED để nhiều worker sweep song song không giẫm nhau
func (r *PostgresRepository) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE redemptions
		SET status = 'expired', updated_at = $1
		WHERE status = 'pending'
		  AND id IN (
			SELECT id FROM redemptions
			WHERE status = 'pending' AND expires_at < $1
			ORDER BY expires_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		  )
	`, now, limit)
	if err != nil {
		return 0, storeErr("expire overdue redemptions", err)
	}
	return tag.RowsAffected(), nil
}

// -------------------------------------------------------------------
// HELPERS
// -------------------------------------------------------------------

func scanRedemption(row pgx.Row, rd *model.Redemption) error {
	return row.Scan(
		&rd.ID,
		&rd.SubscriberID,
		&rd.CouponID,
		&rd.BusinessID,
		&rd.QRCode,
		&rd.DisplayCode,
		&rd.Status,
		&rd.UsageLimit,
		&rd.MaxAllowed,
		&rd.RedemptionMonth,
		&rd.ExpiresAt,
		&rd.RedeemedAt, // nullable
		&rd.CreatedAt,
		&rd.UpdatedAt,
	)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}
