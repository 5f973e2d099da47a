package cache

import (
	"context"
	"time"
)

// Cache là contract của cache layer, hiện chỉ Redis implement
type Cache interface {
	Ping(ctx context.Context) error

	// Increment tăng counter, key chưa có thì bắt đầu từ 1
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// TTL trả về thời gian sống còn lại, <= 0 nếu key không có expiry
	TTL(ctx context.Context, key string) (time.Duration, error)
}
