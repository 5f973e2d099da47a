package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"localdeals-backend/internal/domains/coupon/model"
)

// PostgresRepository đọc coupons từ PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) CouponRepository {
	return &PostgresRepository{db: db}
}

// FindByID tìm coupon theo ID (không filter active/time, validator sẽ check)
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	query := `
		SELECT
			id, business_id, title, description, discount_text,
			start_date, end_date, active, usage_limit, monthly_limit,
			savings_value, created_at, updated_at
		FROM coupons
		WHERE id = $1
	`

	var (
		c       model.Coupon
		savings decimal.NullDecimal
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.BusinessID,
		&c.Title,
		&c.Description, // nullable
		&c.DiscountText,
		&c.StartDate,
		&c.EndDate,
		&c.Active,
		&c.UsageLimit,
		&c.MonthlyLimit, // nullable
		&savings,        // nullable
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCouponNotFound
		}
		return nil, fmt.Errorf("find coupon by id: %w", err)
	}

	if savings.Valid {
		c.SavingsValue = &savings.Decimal
	}

	return &c, nil
}
