// Package cache keeps short-lived copies of expensive aggregate reads in Redis.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

const statusCountsKey = "issues:status_counts"

// StatusCounts caches the global issue status breakdown as a Redis hash.
// A nil receiver or nil client is a disabled cache: every Get misses and
// writes are dropped.
type StatusCounts struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatusCounts returns a cache over client, or nil when client is nil.
func NewStatusCounts(client *redis.Client, ttl time.Duration, logger *zap.Logger) *StatusCounts {
	if client == nil {
		return nil
	}
	return &StatusCounts{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached counts. Failures are logged and reported as a miss.
func (c *StatusCounts) Get(ctx context.Context) (domain.StatusCounts, bool) {
	if c == nil {
		return nil, false
	}
	values, err := c.client.HGetAll(ctx, statusCountsKey).Result()
	if err != nil {
		c.logger.Warn("status counts cache read failed", zap.Error(err))
		return nil, false
	}
	if len(values) == 0 {
		return nil, false
	}

	counts := domain.NewStatusCounts()
	for _, status := range domain.IssueStatuses {
		raw, ok := values[string(status)]
		if !ok {
			return nil, false
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.logger.Warn("status counts cache entry corrupt", zap.String("status", string(status)), zap.Error(err))
			return nil, false
		}
		counts[status] = n
	}
	return counts, true
}

// Set stores counts with the configured TTL.
func (c *StatusCounts) Set(ctx context.Context, counts domain.StatusCounts) {
	if c == nil {
		return
	}
	fields := make(map[string]any, len(domain.IssueStatuses))
	for _, status := range domain.IssueStatuses {
		fields[string(status)] = counts[status]
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, statusCountsKey, fields)
		pipe.Expire(ctx, statusCountsKey, c.ttl)
		return nil
	})
	if err != nil {
		c.logger.Warn("status counts cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached counts.
func (c *StatusCounts) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, statusCountsKey).Err(); err != nil {
		c.logger.Warn("status counts cache invalidation failed", zap.Error(err))
	}
}
