package model

import (
	"math"
	"time"
)

// Countdown là view tính lại được từ expires_at, không phải nguồn sự thật
type Countdown struct {
	ExpiresAt        time.Time     `json:"expires_at"`
	RemainingSeconds int           `json:"remaining_seconds"`
	Remaining        time.Duration `json:"-"`
	Expired          bool          `json:"expired"`
}

func NewCountdown(expiresAt, now time.Time) Countdown {
	remaining := expiresAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return Countdown{
		ExpiresAt:        expiresAt,
		RemainingSeconds: int(math.Ceil(remaining.Seconds())),
		Remaining:        remaining,
		Expired:          now.After(expiresAt),
	}
}
