// Package ratelimit provides per-device rate limiting for write endpoints.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// =============================================================================
// SlidingWindowLimiter - Redis based sliding window limiter
// =============================================================================

// SlidingWindowLimiter implements sliding window rate limiting using Redis.
// Without Redis it falls back to an in-process window, which is good enough
// for a single instance.
type SlidingWindowLimiter struct {
	redis  *redis.Client
	max    int
	window time.Duration

	mu    sync.Mutex
	local map[string][]time.Time
}

// NewSlidingWindowLimiter creates a limiter allowing max events per window.
func NewSlidingWindowLimiter(redisClient *redis.Client, max int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		redis:  redisClient,
		max:    max,
		window: window,
		local:  make(map[string][]time.Time),
	}
}

var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local max_requests = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)

	if count < max_requests then
		redis.call('ZADD', key, now, now .. '-' .. math.random())
		redis.call('PEXPIRE', key, window_ms * 2)
		return 1
	end
	return 0
`)

// Allow records an event for key and reports whether it fits the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) bool {
	now := time.Now()
	windowStart := now.Add(-l.window)

	if l.redis != nil {
		redisKey := fmt.Sprintf("ratelimit:%s", key)
		result, err := slidingWindowScript.Run(ctx, l.redis, []string{redisKey},
			now.UnixMilli(),
			windowStart.UnixMilli(),
			l.max,
			l.window.Milliseconds(),
		).Int64()
		if err == nil {
			return result == 1
		}
		// Redis error falls through to the local window
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.local[key][:0]
	for _, t := range l.local[key] {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.max {
		l.local[key] = kept
		return false
	}
	l.local[key] = append(kept, now)
	return true
}

// =============================================================================
// DeviceLimiter - action limits for the suggestion workflow
// =============================================================================

// DeviceLimiter enforces per-device daily limits on store suggestions and
// suggestion votes.
type DeviceLimiter struct {
	suggestions *SlidingWindowLimiter
	votes       *SlidingWindowLimiter
}

// DeviceLimits configures the per-device windows.
type DeviceLimits struct {
	SuggestionsPerDay int
	VotesPerDay       int
}

// DefaultDeviceLimits returns the default daily limits.
func DefaultDeviceLimits() DeviceLimits {
	return DeviceLimits{
		SuggestionsPerDay: 5,
		VotesPerDay:       10,
	}
}

// NewDeviceLimiter creates a device limiter backed by Redis.
func NewDeviceLimiter(redisClient *redis.Client, limits DeviceLimits) *DeviceLimiter {
	if limits.SuggestionsPerDay <= 0 {
		limits.SuggestionsPerDay = 5
	}
	if limits.VotesPerDay <= 0 {
		limits.VotesPerDay = 10
	}
	day := 24 * time.Hour
	return &DeviceLimiter{
		suggestions: NewSlidingWindowLimiter(redisClient, limits.SuggestionsPerDay, day),
		votes:       NewSlidingWindowLimiter(redisClient, limits.VotesPerDay, day),
	}
}

// AllowSuggestion reports whether the device may file another suggestion today.
func (d *DeviceLimiter) AllowSuggestion(ctx context.Context, deviceHash string) bool {
	return d.suggestions.Allow(ctx, "suggestion:"+deviceHash)
}

// AllowVote reports whether the device may cast another vote today.
func (d *DeviceLimiter) AllowVote(ctx context.Context, deviceHash string) bool {
	return d.votes.Allow(ctx, "vote:"+deviceHash)
}
