package repository

import (
	"context"

	"github.com/google/uuid"

	"localdeals-backend/internal/domains/subscriber/model"
)

type SubscriberRepository interface {
	// FindByID returns model.ErrSubscriberNotFound when no row exists.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Subscriber, error)
}
