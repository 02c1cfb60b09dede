package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter decides whether one more request for key fits the budget.
// Implementations are safe for concurrent use.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

// KeyPrefix namespaces limiter keys in a shared redis.
const KeyPrefix = "hookrelay:ratelimit:"

// admitScript keeps one sorted-set member per admitted request, scored by
// its timestamp. KEYS[1]=bucket ARGV: now, window start, limit, ttl ms, member.
var admitScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
  return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[5])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

type redisRateLimiter struct {
	client   *redis.Client
	ownsConn bool
	limit    int64
	window   time.Duration
	now      func() time.Time
	seq      atomic.Uint64
}

// NewRedisRateLimiter connects to redisURL and returns a sliding window limiter.
func NewRedisRateLimiter(redisURL string, limit int, window time.Duration) (RateLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &redisRateLimiter{
		client:   client,
		ownsConn: true,
		limit:    int64(limit),
		window:   window,
		now:      time.Now,
	}, nil
}

// NewRedisRateLimiterWithClient shares an existing client. Close does not
// close a shared client.
func NewRedisRateLimiterWithClient(client *redis.Client, limit int, window time.Duration) RateLimiter {
	return &redisRateLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// Allow admits the request if fewer than limit requests were admitted for
// key during the trailing window.
func (r *redisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := r.now().UnixNano()
	ttl := r.window.Milliseconds()
	if ttl < 1 {
		ttl = 1
	}
	member := strconv.FormatInt(now, 36) + "." + strconv.FormatUint(r.seq.Add(1), 36)

	admitted, err := admitScript.Run(ctx, r.client, []string{KeyPrefix + key},
		now, now-r.window.Nanoseconds(), r.limit, ttl, member).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check for %q: %w", key, err)
	}
	return admitted == 1, nil
}

func (r *redisRateLimiter) Close() error {
	if r.client != nil && r.ownsConn {
		return r.client.Close()
	}
	return nil
}

// NoOpRateLimiter admits everything. It backs ingestion.rate_limit_enabled=false.
type NoOpRateLimiter struct{}

func (*NoOpRateLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

func (*NoOpRateLimiter) Close() error { return nil }
