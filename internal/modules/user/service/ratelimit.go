package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle counts failed logins per username in redis. A nil client
// disables throttling.
type LoginThrottle struct {
	rdb         *redis.Client
	maxFailures int
	lockout     time.Duration
}

func NewLoginThrottle(rdb *redis.Client, maxFailures int, lockout time.Duration) *LoginThrottle {
	return &LoginThrottle{rdb: rdb, maxFailures: maxFailures, lockout: lockout}
}

func loginKey(username string) string {
	return fmt.Sprintf("rate_limit:login:%s", strings.ToLower(username))
}

// Locked reports whether username has used up its failed attempts, and how
// long until it may try again.
func (t *LoginThrottle) Locked(ctx context.Context, username string) (bool, time.Duration, error) {
	if t == nil || t.rdb == nil || t.maxFailures <= 0 {
		return false, 0, nil
	}

	count, err := t.rdb.Get(ctx, loginKey(username)).Int()
	if errors.Is(err, redis.Nil) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to read login attempts from redis: %w", err)
	}
	if count < t.maxFailures {
		return false, 0, nil
	}

	ttl, err := t.rdb.TTL(ctx, loginKey(username)).Result()
	if err != nil {
		return true, 0, fmt.Errorf("failed to read login lockout from redis: %w", err)
	}
	return true, ttl, nil
}

// Fail records a failed attempt. The window starts at the first failure.
func (t *LoginThrottle) Fail(ctx context.Context, username string) error {
	if t == nil || t.rdb == nil || t.maxFailures <= 0 {
		return nil
	}

	key := loginKey(username)
	count, err := t.rdb.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to record login attempt in redis: %w", err)
	}
	if count == 1 {
		if err := t.rdb.Expire(ctx, key, t.lockout).Err(); err != nil {
			return fmt.Errorf("failed to set login lockout in redis: %w", err)
		}
	}
	return nil
}

// Clear forgets the failures of username after a successful login.
func (t *LoginThrottle) Clear(ctx context.Context, username string) error {
	if t == nil || t.rdb == nil {
		return nil
	}
	if _, err := t.rdb.Del(ctx, loginKey(username)).Result(); err != nil {
		return fmt.Errorf("failed to clear login attempts in redis: %w", err)
	}
	return nil
}
