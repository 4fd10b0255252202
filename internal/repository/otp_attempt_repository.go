package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPAttemptRepository counts failed verification codes per e-mail in Redis.
type OTPAttemptRepository struct {
	client *redis.Client
	window time.Duration
}

// NewOTPAttemptRepository constructs a counter whose keys expire after window.
func NewOTPAttemptRepository(client *redis.Client, window time.Duration) *OTPAttemptRepository {
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &OTPAttemptRepository{client: client, window: window}
}

// OTPAttemptKey is the Redis key holding the failure count for email.
func OTPAttemptKey(email string) string {
	return "otp:attempts:" + strings.ToLower(strings.TrimSpace(email))
}

// Hit records one failed attempt and returns the running total.
func (r *OTPAttemptRepository) Hit(ctx context.Context, email string) (int64, error) {
	key := OTPAttemptKey(email)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, r.window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return incr.Val(), nil
}

// Reset forgets the failures recorded for email.
func (r *OTPAttemptRepository) Reset(ctx context.Context, email string) error {
	key := OTPAttemptKey(email)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}
