package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"localdeals-backend/internal/domains/subscriber/model"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) SubscriberRepository {
	return &PostgresRepository{db: db}
}

// FindByID đọc subscription_status của subscriber (bảng do account subsystem quản lý)
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Subscriber, error) {
	query := `
		SELECT id, subscription_status, updated_at
		FROM subscribers
		WHERE id = $1
	`

	var s model.Subscriber
	err := r.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.SubscriptionStatus, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("find subscriber by id: %w", err)
	}

	return &s, nil
}
