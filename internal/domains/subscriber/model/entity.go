package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

var ErrSubscriberNotFound = errors.New("subscriber not found")

// Subscriber chỉ chứa các field mà redemption cần đọc
type Subscriber struct {
	ID                 uuid.UUID          `json:"id"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func (s *Subscriber) IsActive() bool {
	return s.SubscriptionStatus == SubscriptionActive
}
